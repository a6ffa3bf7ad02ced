package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"holidayhub/internal/domain/settings"
)

var ErrNotConnected = errors.New("google account not connected")

// Endpoint is Google's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var Scopes = []string{
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/gmail.send",
}

// TokenSource serves the installed Google token from settings and writes
// refreshed tokens back so every replica sees them.
type TokenSource struct {
	oauth    *oauth2.Config
	settings *settings.Service
	timeout  time.Duration
	mu       sync.Mutex
}

func NewTokenSource(clientID, clientSecret string, svc *settings.Service) *TokenSource {
	return &TokenSource{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     Endpoint,
			Scopes:       Scopes,
		},
		settings: svc,
		timeout:  15 * time.Second,
	}
}

func (t *TokenSource) Token() (*oauth2.Token, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stored := t.settings.Current().GoogleToken
	if stored == nil {
		return nil, ErrNotConnected
	}
	tok := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}
	if tok.Valid() {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: access token expired and no refresh token", ErrNotConnected)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	fresh, err := t.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh google token: %w", err)
	}
	refresh := fresh.RefreshToken
	if refresh == "" {
		refresh = tok.RefreshToken
	}
	if _, err := t.settings.SaveGoogleToken(ctx, settings.GoogleToken{
		AccessToken:  fresh.AccessToken,
		RefreshToken: refresh,
		TokenType:    fresh.TokenType,
		Expiry:       fresh.Expiry,
	}); err != nil {
		return nil, fmt.Errorf("persist google token: %w", err)
	}
	return fresh, nil
}

func (t *TokenSource) Connected() bool {
	return t.settings.Current().GoogleConnected()
}

func (t *TokenSource) client() *http.Client {
	return oauth2.NewClient(context.Background(), t)
}
