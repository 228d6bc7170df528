// Package auth resolves transport credentials for workspace sync operations.
// The engine hands every network call an opaque token supplied by the caller;
// the provider turns that token into the basic-auth pair go-git expects on
// HTTPS remotes.
package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Provider resolves an authentication method for a remote URL and token.
// Implementations are supplied once at engine construction; the token varies
// per call.
type Provider interface {
	// Method returns the transport.AuthMethod for the given remote URL and
	// token. A nil method with a nil error means anonymous access.
	Method(remoteURL, token string) (transport.AuthMethod, error)
}
