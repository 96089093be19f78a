package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shop-api/internal/domain"
	"shop-api/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const (
	callerKey contextKey = "caller"
)

// TokenValidator verifies a signed access token and returns its claims
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware validates bearer tokens and attaches the caller to the request context
func AuthMiddleware(tokens TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, service.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			role := domain.Role(claims.Role)
			if claims.UserID == "" || !role.Valid() {
				logger.Warn("Token carries incomplete claims",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
				)
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			caller := service.Caller{ID: claims.UserID, Role: role}

			logger.Debug("User authenticated",
				zap.String("user_id", caller.ID),
				zap.String("role", string(caller.Role)),
			)

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller returns a copy of ctx carrying the authenticated caller
func WithCaller(ctx context.Context, caller service.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller extracts the authenticated caller from request context
func GetCaller(ctx context.Context) (service.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(service.Caller)
	return caller, ok
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	caller, ok := GetCaller(ctx)
	return caller.ID, ok
}
