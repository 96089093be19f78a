package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key"

func newTestUserService() (UserService, *mockUserRepository, *mockRefreshTokenRepository) {
	userRepo := newMockUserRepository()
	refreshTokenRepo := newMockRefreshTokenRepository()
	service := NewUserService(userRepo, refreshTokenRepo, TokenSettings{Secret: testSecret})
	return service, userRepo, refreshTokenRepo
}

// Feature: shop-api, Property 1: Registration creates hashed passwords
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email string, password string, name string) bool {
			service, userRepo, _ := newTestUserService()
			ctx := context.Background()

			user, err := service.Register(ctx, name, email, password)
			if err != nil {
				t.Logf("FAIL: registration failed: %v", err)
				return false
			}

			if user.PasswordHash == password {
				t.Logf("FAIL: Password stored as plaintext for email %s", email)
				return false
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				t.Logf("FAIL: Password hash doesn't match: %v", err)
				return false
			}

			cost, err := bcrypt.Cost([]byte(user.PasswordHash))
			if err != nil || cost != BcryptCost {
				t.Logf("FAIL: unexpected bcrypt cost %d: %v", cost, err)
				return false
			}

			storedUser, err := userRepo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("FAIL: Could not find stored user: %v", err)
				return false
			}

			return storedUser.PasswordHash == user.PasswordHash && storedUser.Role == domain.RoleUser
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: shop-api, Property 2: JWT tokens contain required claims
func TestProperty_JWTTokensContainRequiredClaims(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("access tokens contain user ID and role claims", prop.ForAll(
		func(email string, password string, name string, role string) bool {
			service, userRepo, _ := newTestUserService()
			ctx := context.Background()

			user, err := service.Register(ctx, name, email, password)
			if err != nil {
				return false
			}

			user.Role = domain.Role(role)
			if err := userRepo.Update(ctx, user); err != nil {
				return false
			}

			accessToken, _, _, err := service.Login(ctx, email, password)
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			claims, err := service.ValidateToken(accessToken)
			if err != nil {
				t.Logf("FAIL: Token validation failed: %v", err)
				return false
			}

			if claims.UserID != user.ID {
				t.Logf("FAIL: User ID claim mismatch. Expected %s, got %s", user.ID, claims.UserID)
				return false
			}
			if claims.Role != role {
				t.Logf("FAIL: Role claim mismatch. Expected %s, got %s", role, claims.Role)
				return false
			}

			return claims.ExpiresAt != nil && claims.IssuedAt != nil
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.OneConstOf("user", "admin"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: shop-api, Property 3: Token refresh round trip
func TestProperty_TokenRefreshRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid refresh token returns new valid access token", prop.ForAll(
		func(email string, password string, name string) bool {
			service, _, _ := newTestUserService()
			ctx := context.Background()

			if _, err := service.Register(ctx, name, email, password); err != nil {
				return false
			}

			_, refreshToken, user, err := service.Login(ctx, email, password)
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			newAccessToken, err := service.RefreshToken(ctx, refreshToken)
			if err != nil {
				t.Logf("FAIL: Token refresh failed: %v", err)
				return false
			}

			claims, err := service.ValidateToken(newAccessToken)
			if err != nil {
				t.Logf("FAIL: New access token validation failed: %v", err)
				return false
			}

			if claims.UserID != user.ID || claims.Role != string(user.Role) {
				t.Logf("FAIL: claims mismatch in refreshed token")
				return false
			}

			return claims.ExpiresAt != nil && time.Now().Before(claims.ExpiresAt.Time)
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: shop-api, Property 4: Logout invalidates refresh token
func TestProperty_LogoutInvalidatesRefreshToken(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("logout marks refresh token as revoked", prop.ForAll(
		func(email string, password string, name string) bool {
			service, _, refreshTokenRepo := newTestUserService()
			ctx := context.Background()

			if _, err := service.Register(ctx, name, email, password); err != nil {
				return false
			}

			_, refreshToken, _, err := service.Login(ctx, email, password)
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			if _, err := service.RefreshToken(ctx, refreshToken); err != nil {
				t.Logf("FAIL: Refresh token should work before logout: %v", err)
				return false
			}

			if err := service.Logout(ctx, refreshToken); err != nil {
				t.Logf("FAIL: Logout failed: %v", err)
				return false
			}

			_, err = service.RefreshToken(ctx, refreshToken)
			if !errors.Is(err, ErrInvalidToken) {
				t.Logf("FAIL: Expected ErrInvalidToken, got: %v", err)
				return false
			}

			storedToken, err := refreshTokenRepo.FindByToken(ctx, refreshToken)
			return errors.Is(err, repository.ErrRefreshTokenRevoked) && storedToken == nil
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegister_NormalizesEmailAndRejectsDuplicates(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	user, err := service.Register(ctx, "  Asha  ", "  Asha@Example.COM ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, "Asha", user.Name)

	_, err = service.Register(ctx, "Other", "asha@example.com", "secret2")
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	service, userRepo, _ := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)

	_, _, _, err = service.Login(ctx, "asha@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = service.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// accounts created through Google cannot log in with a password
	require.NoError(t, userRepo.Create(ctx, &domain.User{ID: "g1", Email: "g@example.com", GoogleID: "google-1", Role: domain.RoleUser}))
	_, _, _, err = service.Login(ctx, "g@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RejectsExpiredAndForeignTokens(t *testing.T) {
	service, _, _ := newTestUserService()

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "u1",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "u1", Role: "admin"}).
		SignedString([]byte("another-secret"))
	require.NoError(t, err)

	_, err = service.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_Expired(t *testing.T) {
	service, _, refreshTokenRepo := newTestUserService()
	ctx := context.Background()

	require.NoError(t, refreshTokenRepo.Create(ctx, &domain.RefreshToken{
		ID:        "rt1",
		UserID:    "u1",
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := service.RefreshToken(ctx, "stale")
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = service.RefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, service.Logout(ctx, "unknown"))
}

func TestLoginWithGoogle(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a password-less account", func(t *testing.T) {
		service, userRepo, _ := newTestUserService()

		token, user, err := service.LoginWithGoogle(ctx, ExternalProfile{ProviderID: "g-123", Name: "Ravi", Email: "Ravi@Example.com"})
		require.NoError(t, err)
		assert.Equal(t, "ravi@example.com", user.Email)
		assert.Empty(t, user.PasswordHash)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.WithinDuration(t, time.Now().Add(ExternalLoginTokenExpiration), claims.ExpiresAt.Time, time.Minute)

		stored, err := userRepo.FindByGoogleID(ctx, "g-123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("links an existing account by email", func(t *testing.T) {
		service, userRepo, _ := newTestUserService()

		existing, err := service.Register(ctx, "Ravi", "ravi@example.com", "secret1")
		require.NoError(t, err)

		_, user, err := service.LoginWithGoogle(ctx, ExternalProfile{ProviderID: "g-456", Email: "ravi@example.com"})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)

		stored, err := userRepo.FindByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, "g-456", stored.GoogleID)
		assert.NotEmpty(t, stored.PasswordHash)
	})

	t.Run("returning user is found by google id", func(t *testing.T) {
		service, userRepo, _ := newTestUserService()

		_, first, err := service.LoginWithGoogle(ctx, ExternalProfile{ProviderID: "g-789", Email: "a@example.com"})
		require.NoError(t, err)
		_, second, err := service.LoginWithGoogle(ctx, ExternalProfile{ProviderID: "g-789", Email: "a@example.com"})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, userRepo.users, 1)
	})
}

func TestUpdateProfileAndAdminUpdate(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	user, err := service.Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)

	phone := " 9876543210 "
	address := domain.Address{Street: "1 MG Road", City: "Pune", Country: "IN"}
	updated, err := service.UpdateProfile(ctx, user.ID, ProfileUpdate{Phone: &phone, Address: &address})
	require.NoError(t, err)
	assert.Equal(t, "9876543210", updated.Phone)
	assert.Equal(t, "Pune", updated.Address.City)
	assert.Equal(t, "Asha", updated.Name)

	invalid := domain.Role("owner")
	_, err = service.UpdateUser(ctx, user.ID, UserUpdate{Role: &invalid})
	assert.ErrorIs(t, err, ErrInvalidRole)

	admin := domain.RoleAdmin
	promoted, err := service.UpdateUser(ctx, user.ID, UserUpdate{Role: &admin})
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	_, err = service.UpdateProfile(ctx, "missing", ProfileUpdate{})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestListUsers_Pagination(t *testing.T) {
	service, userRepo, _ := newTestUserService()
	ctx := context.Background()

	base := time.Now()
	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.NoError(t, userRepo.Create(ctx, &domain.User{
			ID:        email,
			Email:     email,
			Role:      domain.RoleUser,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := service.ListUsers(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Users, 2)
	assert.Equal(t, "c@x.com", page.Users[0].Email)

	require.NoError(t, service.DeleteUser(ctx, "c@x.com"))
	assert.ErrorIs(t, service.DeleteUser(ctx, "c@x.com"), repository.ErrUserNotFound)
}

func TestDeleteUser_RevokesSessions(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)
	_, refreshToken, user, err := service.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, service.DeleteUser(ctx, user.ID))

	_, err = service.RefreshToken(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
