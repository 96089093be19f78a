package transport

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"

	"shop-api/internal/oauth"
	"shop-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// IdentityProvider runs an OAuth authorization code flow
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*service.ExternalProfile, error)
}

// OAuthHandler handles the browser redirect flow for third party sign-in
type OAuthHandler struct {
	provider    IdentityProvider
	userService service.UserService
	frontendURL string
	secure      bool
	logger      *zap.Logger
}

// NewOAuthHandler creates a new OAuthHandler. Tokens are handed to frontendURL/login.
func NewOAuthHandler(provider IdentityProvider, userService service.UserService, frontendURL string, secure bool, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider:    provider,
		userService: userService,
		frontendURL: frontendURL,
		secure:      secure,
		logger:      logger,
	}
}

// RegisterRoutes registers the Google sign-in routes
func (h *OAuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/google", h.Begin)
	r.Get("/auth/google/callback", h.Callback)
}

// Begin stores a fresh state in a cookie and redirects to the consent page
func (h *OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	state := oauth.NewState()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback completes sign-in and sends the browser back to the frontend with a token
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	h.clearState(w)

	if !h.stateMatches(r) {
		h.logger.Warn("OAuth state mismatch", zap.String("remote_addr", r.RemoteAddr))
		h.redirectFailure(w, r)
		return
	}

	if reason := r.URL.Query().Get("error"); reason != "" {
		h.logger.Info("OAuth consent denied", zap.String("reason", reason))
		h.redirectFailure(w, r)
		return
	}

	profile, err := h.provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("OAuth exchange failed", zap.Error(err))
		h.redirectFailure(w, r)
		return
	}

	token, user, err := h.userService.LoginWithGoogle(r.Context(), *profile)
	if err != nil {
		h.logger.Error("Google login failed", zap.Error(err))
		h.redirectFailure(w, r)
		return
	}

	h.logger.Info("User logged in with Google", zap.String("user_id", user.ID))
	h.redirectToFrontend(w, r, url.Values{"token": {token}})
}

func (h *OAuthHandler) stateMatches(r *http.Request) bool {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	state := r.URL.Query().Get("state")
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) == 1
}

func (h *OAuthHandler) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *OAuthHandler) redirectFailure(w http.ResponseWriter, r *http.Request) {
	h.redirectToFrontend(w, r, url.Values{"error": {"Authentication failed"}})
}

func (h *OAuthHandler) redirectToFrontend(w http.ResponseWriter, r *http.Request, query url.Values) {
	http.Redirect(w, r, h.frontendURL+"/login?"+query.Encode(), http.StatusTemporaryRedirect)
}
