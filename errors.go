// Package worksync provides sentinel errors for workspace sync operations.
// All errors can be checked with errors.Is() for programmatic handling.
package worksync

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Sentinel errors returned by the engine. Classification happens exactly
// once, at the outer boundary of each public method; helpers propagate
// unclassified errors unchanged.

// ErrAuthFailed is returned when the remote rejects the supplied credentials
// (HTTP 401/403 during clone, fetch, or push).
var ErrAuthFailed = errors.New("authentication failed")

// ErrNotFound is returned when the remote repository does not exist
// (HTTP 404) or when required workspace metadata is missing.
var ErrNotFound = errors.New("not found")

// ErrMergeConflict is returned when the local branch and the fetched remote
// head have diverged. The engine is fast-forward only: it never merges and
// never mutates local state on divergence.
var ErrMergeConflict = errors.New("histories diverged, fast-forward not possible")

// ErrWorkspaceLocked is returned when another operation holds the workspace
// lock and the record is fresh. The caller retries with a fresh call; the
// engine never queues.
var ErrWorkspaceLocked = errors.New("workspace is locked")

// ErrInvalidRef is returned when a required argument (branch, URL, path) is
// missing or malformed.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a ref or revision cannot be resolved to
// an object id.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrNoChanges is returned by CommitAndPush when staging produced an empty
// index and there is nothing to commit.
var ErrNoChanges = errors.New("no changes to commit")

// ErrInvalidMessage is returned when conventional-commit enforcement is
// enabled and the commit message does not parse.
var ErrInvalidMessage = errors.New("commit message is not a conventional commit")

// WrapError wraps an error with additional context while preserving the
// ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while
// preserving the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// classifyTransportErr maps go-git transport failures onto the engine's
// taxonomy. Anything unrecognized passes through unchanged.
func classifyTransportErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return WrapError(ErrAuthFailed, err.Error())
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return WrapError(ErrNotFound, err.Error())
	default:
		return err
	}
}
