package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"shop-api/internal/domain"
	"shop-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIdentityProvider struct {
	profile *service.ExternalProfile
	err     error
	code    string
}

func (p *fakeIdentityProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/consent?state=" + url.QueryEscape(state)
}

func (p *fakeIdentityProvider) Exchange(_ context.Context, code string) (*service.ExternalProfile, error) {
	p.code = code
	return p.profile, p.err
}

func oauthRouter(provider IdentityProvider, users service.UserService) chi.Router {
	r := chi.NewRouter()
	NewOAuthHandler(provider, users, "https://shop.example", false, zap.NewNop()).RegisterRoutes(r)
	return r
}

func stateCookie(t *testing.T, r chi.Router) *http.Cookie {
	t.Helper()
	w := serve(r, newRequest(t, http.MethodGet, "/auth/google", nil))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == stateCookieName {
			location, err := url.Parse(w.Header().Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, c.Value, location.Query().Get("state"))
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatal("state cookie not set")
	return nil
}

func TestOAuthCallback_IssuesToken(t *testing.T) {
	provider := &fakeIdentityProvider{profile: &service.ExternalProfile{ProviderID: "g-1", Email: "asha@example.com"}}
	var gotProfile service.ExternalProfile
	users := &stubUserService{
		loginWithGoogle: func(_ context.Context, profile service.ExternalProfile) (string, *domain.User, error) {
			gotProfile = profile
			return "jwt-token", &domain.User{ID: "u1"}, nil
		},
	}
	r := oauthRouter(provider, users)
	cookie := stateCookie(t, r)

	req := newRequest(t, http.MethodGet, "/auth/google/callback?code=abc&state="+url.QueryEscape(cookie.Value), nil)
	req.AddCookie(cookie)
	w := serve(r, req)

	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://shop.example/login?token=jwt-token", w.Header().Get("Location"))
	assert.Equal(t, "abc", provider.code)
	assert.Equal(t, "g-1", gotProfile.ProviderID)
}

func TestOAuthCallback_Failures(t *testing.T) {
	const failure = "https://shop.example/login?error=Authentication+failed"

	t.Run("state mismatch", func(t *testing.T) {
		provider := &fakeIdentityProvider{}
		r := oauthRouter(provider, &stubUserService{})
		cookie := stateCookie(t, r)

		req := newRequest(t, http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil)
		req.AddCookie(cookie)
		w := serve(r, req)

		assert.Equal(t, failure, w.Header().Get("Location"))
		assert.Empty(t, provider.code)
	})

	t.Run("missing cookie", func(t *testing.T) {
		r := oauthRouter(&fakeIdentityProvider{}, &stubUserService{})
		w := serve(r, newRequest(t, http.MethodGet, "/auth/google/callback?code=abc&state=s", nil))
		assert.Equal(t, failure, w.Header().Get("Location"))
	})

	t.Run("exchange error", func(t *testing.T) {
		r := oauthRouter(&fakeIdentityProvider{err: errors.New("bad code")}, &stubUserService{})
		cookie := stateCookie(t, r)

		req := newRequest(t, http.MethodGet, "/auth/google/callback?code=abc&state="+url.QueryEscape(cookie.Value), nil)
		req.AddCookie(cookie)
		w := serve(r, req)

		assert.Equal(t, failure, w.Header().Get("Location"))
	})

	t.Run("consent denied", func(t *testing.T) {
		provider := &fakeIdentityProvider{}
		r := oauthRouter(provider, &stubUserService{})
		cookie := stateCookie(t, r)

		req := newRequest(t, http.MethodGet, "/auth/google/callback?error=access_denied&state="+url.QueryEscape(cookie.Value), nil)
		req.AddCookie(cookie)
		w := serve(r, req)

		assert.Equal(t, failure, w.Header().Get("Location"))
		assert.Empty(t, provider.code)
	})
}
