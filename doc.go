// Package worksync keeps a local working directory of text-based test
// assets synchronized with a remote git repository. It never shells out to
// an installed git binary: every operation manipulates git's object model
// directly through go-git plumbing (refs, commit/tree/blob objects,
// ancestry), and all repository state flows through the project's native
// filesystem abstraction so workspaces can live on disk or fully in memory.
//
// # Design Principles
//
//   - Fast-forward only - the engine never merges; divergent histories
//     fail loudly and leave local state untouched
//   - Testability by construction - injectable transport and auth, in-memory
//     filesystems, controlled side effects
//   - Durable local work - a commit that succeeds locally is never rolled
//     back because the network failed
//   - No ambient state - one explicitly constructed Engine carries every
//     dependency
//
// # Basic Usage
//
// Construct an engine and bootstrap a workspace:
//
//	import (
//	    "context"
//	    billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
//	    "github.com/gherkinlab/worksync"
//	)
//
//	engine, err := worksync.New(&worksync.Options{
//	    FS: billyfs.NewOSFS("/srv/workspaces"),
//	})
//
//	meta, err := engine.CloneOrOpen(context.Background(), worksync.CloneParams{
//	    Owner:     "acme",
//	    Repo:      "checkout-tests",
//	    Branch:    "main",
//	    RepoURL:   "https://git.example.com/acme/checkout-tests.git",
//	    Token:     token,
//	    LocalPath: "acme/checkout-tests",
//	})
//
// CloneOrOpen is idempotent: an already-initialized workspace is opened in
// place with no network clone.
//
// # Pulling Remote Changes
//
// Pull fetches the tracked branch and fast-forwards the local ref:
//
//	res, err := engine.Pull(ctx, "acme/checkout-tests", token)
//	if errors.Is(err, worksync.ErrMergeConflict) {
//	    // histories diverged; resolve out of band
//	}
//	for _, path := range res.UpdatedFiles {
//	    // re-index changed assets
//	}
//
// # Status and Committing
//
// Status maps the raw head/workdir/stage comparison matrix onto domain
// statuses and filters them down to test-asset paths:
//
//	st, err := engine.Status(ctx, "acme/checkout-tests")
//	for _, f := range st.FilteredStatus {
//	    fmt.Println(f.Path, f.Status)
//	}
//
// CommitAndPush stages, commits, and pushes in one call. A push failure is
// not an error; the result reports Pushed=false and the commit stays local:
//
//	res, err := engine.CommitAndPush(ctx, "acme/checkout-tests", token, worksync.CommitOptions{
//	    Message: "feat: cover the refund flow",
//	})
//
// # Concurrency
//
// Every public method wraps its body in a file-based workspace lock beside
// the working tree. A second call against the same path while one is in
// flight fails fast with ErrWorkspaceLocked; staleness is time-based and
// abandoned locks are reclaimed automatically.
//
// # Error Handling
//
// Failures classify once, at each public method's boundary, onto sentinel
// errors checkable with errors.Is: ErrAuthFailed, ErrNotFound,
// ErrMergeConflict, ErrWorkspaceLocked. Everything else propagates wrapped
// but unclassified. The engine never retries; a retry is always a fresh
// call by the caller.
package worksync
