package auth

import (
	"fmt"
	"net/url"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// TokenAuth is the default Provider. It maps an opaque token to HTTP basic
// auth the way git hosting providers expect: the token travels as the
// password with a fixed username.
type TokenAuth struct {
	// Username overrides the fixed basic-auth username. Most providers
	// ignore it when a token is present.
	Username string
}

// NewTokenAuth creates a token-based credential provider for HTTPS remotes.
func NewTokenAuth() *TokenAuth {
	return &TokenAuth{Username: "token"}
}

// Method resolves credentials for the given remote URL. An empty token
// yields anonymous access. Only https:// remotes can be authenticated.
//
//nolint:ireturn // go-git consumes the transport.AuthMethod interface
func (p *TokenAuth) Method(remoteURL, token string) (transport.AuthMethod, error) {
	if token == "" {
		return nil, nil
	}

	parsed, err := url.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote URL: %w", err)
	}

	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("token auth only supports https:// remotes, got %q", parsed.Scheme)
	}

	username := p.Username
	if username == "" {
		username = "token"
	}

	return &http.BasicAuth{
		Username: username,
		Password: token,
	}, nil
}
