package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"shop-api/internal/config"
	"shop-api/internal/service"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var (
	ErrMissingCode    = errors.New("authorization code is missing")
	ErrIncompleteUser = errors.New("identity provider returned no subject")
)

// GoogleProvider runs the authorization code flow against Google
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a provider requesting the profile and email scopes
func NewGoogleProvider(cfg config.GoogleConfig) *GoogleProvider {
	return newGoogleProvider(cfg, google.Endpoint, googleUserInfoURL)
}

func newGoogleProvider(cfg config.GoogleConfig, endpoint oauth2.Endpoint, userInfoURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"profile", "email"},
		},
		userInfoURL: userInfoURL,
	}
}

// NewState returns an unguessable value binding the callback to the browser that started the flow
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL is the consent page URL; the account chooser is always shown
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Exchange trades the authorization code for a token and fetches the user's profile
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*service.ExternalProfile, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch user info: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Sub == "" {
		return nil, ErrIncompleteUser
	}

	return &service.ExternalProfile{
		ProviderID: info.Sub,
		Name:       info.Name,
		Email:      info.Email,
	}, nil
}
