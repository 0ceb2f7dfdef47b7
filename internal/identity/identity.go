// Package identity turns an OAuth authorization code into an access token and
// describes who the current owner is. Resolving the token to a user profile
// happens in the caller; this package only performs the code exchange.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// AnonymousKey is the owner key used when nobody is signed in.
const AnonymousKey = ""

// ErrMissingCode is returned by Exchange for an empty authorization code.
var ErrMissingCode = errors.New("authorization code is required")

// Identity is the owner as known after sign-in.
type Identity struct {
	OwnerID     string
	DisplayName string
	AvatarRef   string
}

// OwnerKey returns the key that partitions local state for id. An identity
// without an owner id is anonymous.
func OwnerKey(id Identity) string {
	return strings.TrimSpace(id.OwnerID)
}

// Exchanger trades an authorization code for an access token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// OAuth2Config holds the provider settings for OAuth2Exchanger.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	RedirectURL  string
}

// OAuth2Exchanger performs the authorization-code grant against a token
// endpoint.
type OAuth2Exchanger struct {
	conf *oauth2.Config
}

// NewOAuth2Exchanger validates cfg and builds an exchanger.
func NewOAuth2Exchanger(cfg OAuth2Config) (*OAuth2Exchanger, error) {
	if cfg.ClientID == "" || cfg.TokenURL == "" {
		return nil, errors.New("oauth client id and token url are required")
	}
	return &OAuth2Exchanger{conf: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}}, nil
}

// Exchange returns the provider's access token for code.
func (e *OAuth2Exchanger) Exchange(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrMissingCode
	}
	tok, err := e.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging code: %w", err)
	}
	return tok.AccessToken, nil
}
