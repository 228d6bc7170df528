// Commit-and-push: stage workspace edits, commit them against the explicit
// branch ref, and push when a remote is configured.
package worksync

import (
	"context"
	"errors"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// CommitOptions controls one CommitAndPush call. Every field defaults:
// blank message → DefaultCommitMessage, missing identity → the engine's
// fixed author, empty Paths → stage everything changed.
type CommitOptions struct {
	Message     string
	AuthorName  string
	AuthorEmail string

	// Paths restricts staging to the listed files. Empty stages every
	// working-directory change, including deletions.
	Paths []string
}

// CommitPushResult reports the outcome of one CommitAndPush call.
type CommitPushResult struct {
	// CommitOid is the object id of the commit that was created. Always
	// populated once the local commit step succeeds.
	CommitOid string

	// Pushed reports whether the commit reached the remote. False on any
	// push failure; the local commit is durable regardless.
	Pushed bool
}

// CommitAndPush stages the requested changes, commits them, and pushes the
// branch to origin. The commit is created against the explicit branch ref,
// so a freshly initialized repository without a resolvable HEAD commits
// correctly. A push failure does not fail the operation: the result carries
// Pushed=false and the commit stays local.
func (e *Engine) CommitAndPush(ctx context.Context, localPath, token string, opts CommitOptions) (*CommitPushResult, error) {
	if localPath == "" {
		return nil, WrapError(ErrInvalidRef, "local path is required")
	}

	var result *CommitPushResult
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

		applyCommitDefaults(&opts)

		if e.opts.EnforceConventionalCommits {
			if err := validateConventionalMessage(opts.Message); err != nil {
				return err
			}
		}

		if err := stageChanges(wt, opts.Paths); err != nil {
			return err
		}

		// Commit against refs/heads/<branch> explicitly rather than bare
		// HEAD; an unborn HEAD then still produces a correct first commit.
		branchRef := plumbing.NewBranchReferenceName(branch)
		head := plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)
		if err := repo.Storer.SetReference(head); err != nil {
			return WrapError(err, "failed to point HEAD at branch ref")
		}

		who := object.Signature{
			Name:  opts.AuthorName,
			Email: opts.AuthorEmail,
			When:  time.Now(),
		}

		hash, err := wt.Commit(opts.Message, &gogit.CommitOptions{
			Author:    &who,
			Committer: &who,
		})
		if err != nil {
			if errors.Is(err, gogit.ErrEmptyCommit) {
				return WrapError(ErrNoChanges, "staging produced an empty index")
			}
			return WrapError(err, "failed to create commit")
		}

		result = &CommitPushResult{CommitOid: hash.String()}

		if hasRemote {
			result.Pushed = e.pushBranch(ctx, repo, branch, remoteURL, token)
		}

		e.updateLastPulled(localPath, result.CommitOid)

		e.log.Info("committed workspace changes",
			"path", localPath,
			"branch", branch,
			"commit", result.CommitOid,
			"pushed", result.Pushed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// pushBranch sends the branch to origin. Failures are reported via the
// return value only; the caller's commit already succeeded and rolling it
// back would discard durable local work.
func (e *Engine) pushBranch(ctx context.Context, repo *gogit.Repository, branch, remoteURL, token string) bool {
	authMethod, err := e.auth.Method(remoteURL, token)
	if err != nil {
		e.log.Warn("push skipped, credential resolution failed", "error", err)
		return false
	}

	err = e.transport.Push(ctx, repo, PushSpec{Branch: branch, Auth: authMethod})
	if err != nil {
		e.log.Warn("push failed, commit stays local", "error", classifyTransportErr(err))
		return false
	}

	return true
}

func applyCommitDefaults(opts *CommitOptions) {
	if strings.TrimSpace(opts.Message) == "" {
		opts.Message = DefaultCommitMessage
	}
	if opts.AuthorName == "" {
		opts.AuthorName = DefaultAuthorName
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = DefaultAuthorEmail
	}
}

// validateConventionalMessage parses the message with the conventional
// commits grammar.
func validateConventionalMessage(msg string) error {
	machine := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))
	if _, err := machine.Parse([]byte(msg)); err != nil {
		return WrapError(ErrInvalidMessage, err.Error())
	}
	return nil
}

// stageChanges fills the index. With explicit paths each one is added
// directly; otherwise the status matrix drives staging, adding present
// files and removing deleted ones.
func stageChanges(wt *gogit.Worktree, paths []string) error {
	if len(paths) > 0 {
		for _, path := range paths {
			if path == "" {
				continue
			}
			if _, err := wt.Add(path); err != nil {
				return WrapErrorf(err, "failed to stage %q", path)
			}
		}
		return nil
	}

	wtStatus, err := wt.Status()
	if err != nil {
		return WrapError(err, "failed to compute worktree status")
	}

	for _, row := range statusMatrix(wtStatus) {
		switch row.workdir {
		case entryAbsent:
			if _, err := wt.Remove(row.path); err != nil && !isMissingEntryErr(err) {
				return WrapErrorf(err, "failed to stage deletion of %q", row.path)
			}
		case entryDiffers:
			if _, err := wt.Add(row.path); err != nil {
				return WrapErrorf(err, "failed to stage %q", row.path)
			}
		}
	}

	return nil
}

// isMissingEntryErr matches go-git's errors for paths that are already gone
// from both index and worktree; staging their deletion is a no-op.
func isMissingEntryErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "entry not found") || strings.Contains(msg, "does not exist")
}
