// Clone-or-open: workspace bootstrap against the tracked remote.
package worksync

import (
	"context"
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"

	"github.com/gherkinlab/worksync/internal/metadata"
)

// WorkspaceMetadata is the persisted sync state for one workspace, as
// returned by CloneOrOpen.
type WorkspaceMetadata struct {
	Owner         string
	Repo          string
	Branch        string
	RemoteURL     string
	LastPulledOid string
}

// CloneParams identifies the remote repository and the local workspace.
type CloneParams struct {
	Owner   string
	Repo    string
	Branch  string
	RepoURL string

	// Token authenticates network calls; empty means anonymous access.
	Token string

	// LocalPath is the workspace directory. Empty defaults to
	// DefaultWorkspacePath(Owner, Repo).
	LocalPath string
}

func (p *CloneParams) validate() error {
	switch {
	case p.Owner == "":
		return WrapError(ErrInvalidRef, "owner is required")
	case p.Repo == "":
		return WrapError(ErrInvalidRef, "repo is required")
	case p.Branch == "":
		return WrapError(ErrInvalidRef, "branch is required")
	case p.RepoURL == "":
		return WrapError(ErrInvalidRef, "repo URL is required")
	default:
		return nil
	}
}

// CloneOrOpen prepares the workspace at params.LocalPath. An existing
// repository is opened in place: the origin remote is re-pointed if its URL
// changed and the requested branch is checked out, with no network clone.
// Otherwise the remote is cloned with bounded history depth and a single
// tracked branch. The operation is idempotent.
//
// HTTP 401/403 from the remote classify as ErrAuthFailed, 404 as
// ErrNotFound; other transport failures propagate unclassified.
func (e *Engine) CloneOrOpen(ctx context.Context, params CloneParams) (*WorkspaceMetadata, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	localPath := params.LocalPath
	if localPath == "" {
		localPath = DefaultWorkspacePath(params.Owner, params.Repo)
	}

	var result *WorkspaceMetadata
	err := e.withLock(localPath, func() error {
		exists, err := e.repoExists(localPath)
		if err != nil {
			return err
		}

		var repo *gogit.Repository
		if exists {
			repo, err = e.openWorkspace(localPath, params)
		} else {
			repo, err = e.cloneWorkspace(ctx, localPath, params)
		}
		if err != nil {
			return err
		}

		oid, ok, err := branchOid(repo, params.Branch)
		if err != nil {
			return err
		}
		if !ok {
			return WrapErrorf(ErrResolveFailed, "branch %q has no head after clone", params.Branch)
		}

		record := &metadata.Workspace{
			Owner:         params.Owner,
			Repo:          params.Repo,
			Branch:        params.Branch,
			RemoteURL:     params.RepoURL,
			LastPulledOid: oid.String(),
		}

		// Idempotence: a repeat call with unchanged inputs leaves the
		// metadata document untouched.
		existing, loadErr := e.store.Load(stateDir(localPath))
		if loadErr == nil && existing.Equal(record) {
			result = metadataFromRecord(existing)
			return nil
		}

		if err := e.store.Save(stateDir(localPath), record); err != nil {
			return err
		}

		e.log.Info("workspace ready",
			"path", localPath,
			"branch", params.Branch,
			"head", record.LastPulledOid,
			"cloned", !exists)

		result = metadataFromRecord(record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// openWorkspace treats localPath as an existing repository: it re-points
// origin when the URL changed and checks out the requested branch.
func (e *Engine) openWorkspace(localPath string, params CloneParams) (*gogit.Repository, error) {
	repo, wt, err := e.openRepo(localPath)
	if err != nil {
		return nil, err
	}

	if err := e.syncOriginRemote(repo, params.RepoURL); err != nil {
		return nil, err
	}

	if err := checkoutBranch(repo, wt, params.Branch, false); err != nil {
		return nil, err
	}

	return repo, nil
}

// cloneWorkspace creates the workspace from scratch: init, configure
// origin, single-branch fetch at bounded depth, checkout.
func (e *Engine) cloneWorkspace(ctx context.Context, localPath string, params CloneParams) (*gogit.Repository, error) {
	repo, wt, err := e.initRepo(localPath, params.Branch)
	if err != nil {
		return nil, err
	}

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: DefaultRemoteName,
		URLs: []string{params.RepoURL},
	})
	if err != nil {
		return nil, WrapError(err, "failed to configure origin remote")
	}

	authMethod, err := e.auth.Method(params.RepoURL, params.Token)
	if err != nil {
		return nil, WrapError(err, "failed to resolve credentials")
	}

	err = e.transport.Fetch(ctx, repo, FetchSpec{
		Branch: params.Branch,
		Depth:  e.opts.CloneDepth,
		Auth:   authMethod,
	})
	if err != nil {
		return nil, classifyTransportErr(err)
	}

	if err := checkoutBranch(repo, wt, params.Branch, true); err != nil {
		return nil, err
	}

	return repo, nil
}

// syncOriginRemote makes origin point at repoURL, replacing a stale remote
// configured for a different URL.
func (e *Engine) syncOriginRemote(repo *gogit.Repository, repoURL string) error {
	url, ok, err := originURL(repo)
	if err != nil {
		return err
	}

	if ok && url == repoURL {
		return nil
	}

	if ok {
		if err := repo.DeleteRemote(DefaultRemoteName); err != nil &&
			!errors.Is(err, gogit.ErrRemoteNotFound) {
			return WrapError(err, "failed to remove stale origin remote")
		}
		e.log.Debug("origin URL changed, re-pointing remote", "url", repoURL)
	}

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: DefaultRemoteName,
		URLs: []string{repoURL},
	})
	if err != nil {
		return WrapError(err, "failed to configure origin remote")
	}

	return nil
}

func metadataFromRecord(rec *metadata.Workspace) *WorkspaceMetadata {
	return &WorkspaceMetadata{
		Owner:         rec.Owner,
		Repo:          rec.Repo,
		Branch:        rec.Branch,
		RemoteURL:     rec.RemoteURL,
		LastPulledOid: rec.LastPulledOid,
	}
}
