// Pull: fetch the tracked branch, fast-forward the local ref, and report
// the paths whose blob object ids changed between the two heads.
package worksync

import (
	"context"
	"errors"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gherkinlab/worksync/internal/metadata"
)

// PullResult reports the outcome of one Pull.
type PullResult struct {
	// UpdatedFiles lists every path whose blob object id differs between
	// the pre-pull and post-pull trees, sorted.
	UpdatedFiles []string

	// Conflicts is always empty under the fast-forward-only policy. It is
	// kept in the result shape so callers do not change when richer
	// conflict reporting lands.
	Conflicts []string

	// HeadOid is the local branch head after the pull.
	HeadOid string
}

// Pull fetches the tracked branch from origin and fast-forwards the local
// branch to it. Branch and remote are read from the repository itself, so
// externally modified workspaces stay consistent. Divergent histories fail
// with ErrMergeConflict and leave all local state untouched.
//
// A workspace without a configured remote returns a no-op result, not an
// error.
func (e *Engine) Pull(ctx context.Context, localPath, token string) (*PullResult, error) {
	if localPath == "" {
		return nil, WrapError(ErrInvalidRef, "local path is required")
	}

	var result *PullResult
	err := e.withLock(localPath, func() error {
		repo, wt, err := e.openRepo(localPath)
		if err != nil {
			return err
		}

		branch, err := currentBranch(repo)
		if err != nil {
			return err
		}

		remoteURL, hasRemote, err := originURL(repo)
		if err != nil {
			return err
		}

		beforeOid, hasBefore, err := branchOid(repo, branch)
		if err != nil {
			return err
		}

		if !hasRemote {
			result = noopPullResult(beforeOid, hasBefore)
			return nil
		}

		authMethod, err := e.auth.Method(remoteURL, token)
		if err != nil {
			return WrapError(err, "failed to resolve credentials")
		}

		err = e.transport.Fetch(ctx, repo, FetchSpec{Branch: branch, Auth: authMethod})
		if err != nil {
			return classifyTransportErr(err)
		}

		remoteRef, err := repo.Reference(
			plumbing.NewRemoteReferenceName(DefaultRemoteName, branch), true)
		if err != nil {
			return WrapErrorf(ErrResolveFailed, "branch %q not found on origin", branch)
		}
		remoteOid := remoteRef.Hash()

		if hasBefore && beforeOid == remoteOid {
			result = noopPullResult(beforeOid, true)
			return nil
		}

		if hasBefore {
			ok, err := isAncestor(repo, beforeOid, remoteOid)
			if err != nil {
				return err
			}
			if !ok {
				return WrapErrorf(ErrMergeConflict,
					"local %s is not an ancestor of remote %s", beforeOid, remoteOid)
			}
		}

		branchRef := plumbing.NewBranchReferenceName(branch)
		newRef := plumbing.NewHashReference(branchRef, remoteOid)
		if err := repo.Storer.SetReference(newRef); err != nil {
			return WrapError(err, "failed to fast-forward branch ref")
		}

		err = wt.Checkout(&gogit.CheckoutOptions{Branch: branchRef, Force: true})
		if err != nil {
			return WrapError(err, "failed to check out fast-forwarded tree")
		}

		updated, err := changedPaths(repo, beforeOid, hasBefore, remoteOid)
		if err != nil {
			return err
		}

		e.updateLastPulled(localPath, remoteOid.String())

		e.log.Info("pulled workspace",
			"path", localPath,
			"branch", branch,
			"head", remoteOid.String(),
			"updated", len(updated))

		result = &PullResult{
			UpdatedFiles: updated,
			Conflicts:    []string{},
			HeadOid:      remoteOid.String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func noopPullResult(oid plumbing.Hash, has bool) *PullResult {
	head := ""
	if has {
		head = oid.String()
	}
	return &PullResult{UpdatedFiles: []string{}, Conflicts: []string{}, HeadOid: head}
}

// isAncestor reports whether ancestor is reachable from descendant, i.e.
// moving the branch from ancestor to descendant is a fast-forward.
func isAncestor(repo *gogit.Repository, ancestor, descendant plumbing.Hash) (bool, error) {
	ancestorCommit, err := repo.CommitObject(ancestor)
	if err != nil {
		return false, WrapError(err, "failed to read local head commit")
	}

	descendantCommit, err := repo.CommitObject(descendant)
	if err != nil {
		return false, WrapError(err, "failed to read remote head commit")
	}

	ok, err := ancestorCommit.IsAncestor(descendantCommit)
	if err != nil {
		return false, WrapError(err, "ancestry walk failed")
	}
	return ok, nil
}

// changedPaths walks the before and after trees in parallel and collects
// every path whose blob object id differs. With no before commit, every
// file in the after tree is new.
func changedPaths(repo *gogit.Repository, before plumbing.Hash, hasBefore bool, after plumbing.Hash) ([]string, error) {
	afterTree, err := commitTree(repo, after)
	if err != nil {
		return nil, err
	}

	if !hasBefore {
		return allTreePaths(afterTree)
	}

	beforeTree, err := commitTree(repo, before)
	if err != nil {
		return nil, err
	}

	changes, err := beforeTree.Diff(afterTree)
	if err != nil {
		return nil, WrapError(err, "tree diff failed")
	}

	paths := make([]string, 0, len(changes))
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		paths = append(paths, name)
	}
	sort.Strings(paths)

	return paths, nil
}

func commitTree(repo *gogit.Repository, oid plumbing.Hash) (*object.Tree, error) {
	commit, err := repo.CommitObject(oid)
	if err != nil {
		return nil, WrapError(err, "failed to read commit object")
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, WrapError(err, "failed to read tree object")
	}

	return tree, nil
}

func allTreePaths(tree *object.Tree) ([]string, error) {
	var paths []string
	err := tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "tree walk failed")
	}
	sort.Strings(paths)
	return paths, nil
}

// updateLastPulled records the new head in the metadata document. A
// workspace that was never set up through CloneOrOpen has no document;
// that is not an error, the repository itself stays authoritative.
func (e *Engine) updateLastPulled(localPath, oid string) {
	dir := stateDir(localPath)

	record, err := e.store.Load(dir)
	if err != nil {
		if !errors.Is(err, metadata.ErrNotExist) {
			e.log.Warn("failed to read workspace metadata", "path", localPath, "error", err)
		}
		return
	}

	record.LastPulledOid = oid
	if err := e.store.Save(dir, record); err != nil {
		e.log.Warn("failed to update workspace metadata", "path", localPath, "error", err)
	}
}
