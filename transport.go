// Transport abstraction over go-git's network operations. The engine talks
// to remotes exclusively through this interface so tests can substitute an
// in-memory implementation.
package worksync

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// FetchSpec describes one fetch against the tracked remote.
type FetchSpec struct {
	// Branch is the single branch ref to fetch.
	Branch string

	// Depth bounds the fetched history; 0 means full history.
	Depth int

	// Auth is the resolved credential, nil for anonymous access.
	Auth transport.AuthMethod
}

// PushSpec describes one push of a local branch to the tracked remote.
type PushSpec struct {
	// Branch is the local branch ref to push.
	Branch string

	// Auth is the resolved credential, nil for anonymous access.
	Auth transport.AuthMethod
}

// Transport performs network transfers for a repository. Implementations
// must treat "already up to date" as success.
type Transport interface {
	// Fetch updates refs/remotes/origin/<branch> from the remote.
	Fetch(ctx context.Context, repo *gogit.Repository, spec FetchSpec) error

	// Push sends refs/heads/<branch> to the remote.
	Push(ctx context.Context, repo *gogit.Repository, spec PushSpec) error
}

// netTransport is the production Transport: go-git's native HTTPS client.
type netTransport struct{}

func (netTransport) Fetch(ctx context.Context, repo *gogit.Repository, spec FetchSpec) error {
	refSpec := config.RefSpec(fmt.Sprintf(
		"+refs/heads/%s:refs/remotes/%s/%s", spec.Branch, DefaultRemoteName, spec.Branch))

	err := repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: DefaultRemoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Depth:      spec.Depth,
		Auth:       spec.Auth,
		Tags:       gogit.NoTags,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return err
	}

	return nil
}

func (netTransport) Push(ctx context.Context, repo *gogit.Repository, spec PushSpec) error {
	refSpec := config.RefSpec(fmt.Sprintf(
		"refs/heads/%s:refs/heads/%s", spec.Branch, spec.Branch))

	err := repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: DefaultRemoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       spec.Auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return err
	}

	return nil
}
