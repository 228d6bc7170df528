// Repository discovery and ref helpers built on go-git filesystem storage.
package worksync

import (
	"errors"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/gherkinlab/worksync/internal/fsbridge"
)

// repoExists reports whether localPath already holds a repository marker.
func (e *Engine) repoExists(localPath string) (bool, error) {
	exists, err := e.fs.Exists(filepath.Join(localPath, ".git"))
	if err != nil {
		return false, WrapError(err, "failed to probe repository marker")
	}
	return exists, nil
}

// openRepo opens the repository at localPath with LRU-cached filesystem
// storage and a worktree scoped to the same directory.
func (e *Engine) openRepo(localPath string) (*gogit.Repository, *gogit.Worktree, error) {
	storage, worktreeFS, err := e.repoStorage(localPath)
	if err != nil {
		return nil, nil, err
	}

	repo, err := gogit.Open(storage, worktreeFS)
	if err != nil {
		return nil, nil, WrapError(err, "failed to open repository")
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil, WrapError(err, "failed to get worktree")
	}

	return repo, wt, nil
}

// initRepo initializes a fresh repository at localPath and points HEAD at
// the requested branch before anything is committed.
func (e *Engine) initRepo(localPath, branch string) (*gogit.Repository, *gogit.Worktree, error) {
	if err := e.fs.MkdirAll(localPath, 0o755); err != nil {
		return nil, nil, WrapError(err, "failed to create workspace directory")
	}

	storage, worktreeFS, err := e.repoStorage(localPath)
	if err != nil {
		return nil, nil, err
	}

	repo, err := gogit.Init(storage, worktreeFS)
	if err != nil {
		return nil, nil, WrapError(err, "failed to initialize repository")
	}

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, nil, WrapError(err, "failed to point HEAD at branch")
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil, WrapError(err, "failed to get worktree")
	}

	return repo, wt, nil
}

// repoStorage builds go-git storage rooted at localPath/.git plus the
// worktree filesystem rooted at localPath.
func (e *Engine) repoStorage(localPath string) (*filesystem.Storage, billy.Filesystem, error) {
	billyFS, err := fsbridge.ToBillyFilesystem(e.fs)
	if err != nil {
		return nil, nil, WrapError(err, "filesystem conversion failed")
	}

	scopedFS, err := billyFS.Chroot(localPath)
	if err != nil {
		return nil, nil, WrapErrorf(err, "failed to chroot to workspace %q", localPath)
	}

	dotGitFS, err := scopedFS.Chroot(".git")
	if err != nil {
		return nil, nil, WrapError(err, "failed to access .git directory")
	}

	return fsbridge.NewStorage(dotGitFS, e.opts.StorerCacheSize), scopedFS, nil
}

// headTargetsBranch reports whether HEAD is a symbolic ref at branchRef and
// the branch resolves to a commit, i.e. the branch is already checked out.
func headTargetsBranch(repo *gogit.Repository, branchRef plumbing.ReferenceName) bool {
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil || head.Type() != plumbing.SymbolicReference || head.Target() != branchRef {
		return false
	}

	_, err = repo.Reference(branchRef, true)
	return err == nil
}

// currentBranch reads the branch HEAD points at without resolving it, so it
// also answers for an unborn branch in a freshly initialized repository.
func currentBranch(repo *gogit.Repository) (string, error) {
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", WrapError(err, "failed to read HEAD")
	}

	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", WrapError(ErrResolveFailed, "HEAD is detached")
	}

	return head.Target().Short(), nil
}

// branchOid resolves the branch's head object id. The second return is false
// when the branch has no commits yet.
func branchOid(repo *gogit.Repository, branch string) (plumbing.Hash, bool, error) {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, WrapError(err, "failed to resolve branch")
	}
	return ref.Hash(), true, nil
}

// originURL returns the configured origin URL. The second return is false
// when no remote is configured.
func originURL(repo *gogit.Repository) (string, bool, error) {
	remote, err := repo.Remote(DefaultRemoteName)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return "", false, nil
		}
		return "", false, WrapError(err, "failed to read remote configuration")
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", false, nil
	}
	return urls[0], true, nil
}

// checkoutBranch makes branch the checked-out worktree state, creating the
// local ref from the remote-tracking ref when it does not exist yet. When
// the branch is already checked out a non-forced call is a no-op, so
// uncommitted edits in an open workspace survive.
func checkoutBranch(repo *gogit.Repository, wt *gogit.Worktree, branch string, force bool) error {
	branchRef := plumbing.NewBranchReferenceName(branch)

	if !force && headTargetsBranch(repo, branchRef) {
		return nil
	}

	if _, err := repo.Reference(branchRef, true); err != nil {
		remoteRef, remoteErr := repo.Reference(
			plumbing.NewRemoteReferenceName(DefaultRemoteName, branch), true)
		if remoteErr != nil {
			return WrapErrorf(ErrResolveFailed, "branch %q does not exist locally or on origin", branch)
		}

		newRef := plumbing.NewHashReference(branchRef, remoteRef.Hash())
		if err := repo.Storer.SetReference(newRef); err != nil {
			return WrapError(err, "failed to create local branch from remote")
		}
	}

	if err := wt.Checkout(&gogit.CheckoutOptions{Branch: branchRef, Force: force}); err != nil {
		return WrapError(err, "failed to checkout branch")
	}

	// go-git can leave HEAD dangling after certain checkouts; make sure it
	// points at the branch we just checked out.
	if _, err := repo.Head(); err != nil {
		head := plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)
		if setErr := repo.Storer.SetReference(head); setErr != nil {
			return WrapError(setErr, "failed to restore HEAD after checkout")
		}
	}

	return nil
}
