// Package worksync keeps a local working directory of test assets
// synchronized with a remote git repository through go-git plumbing.
package worksync

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/gherkinlab/worksync/internal/auth"
	"github.com/gherkinlab/worksync/internal/lock"
	"github.com/gherkinlab/worksync/internal/metadata"
)

const (
	// DefaultCloneDepth bounds the history fetched on first clone.
	DefaultCloneDepth = 50

	// DefaultRemoteName is the single remote the engine tracks.
	DefaultRemoteName = "origin"

	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// StateDirName is the hidden directory beside the working tree that
	// holds workspace.json and the transient lock file.
	StateDirName = ".worksync"

	// LockFileName is the transient lock record inside the state dir.
	LockFileName = "lock"

	// DefaultCommitMessage is used when CommitAndPush receives a blank
	// message.
	DefaultCommitMessage = "chore: update test assets"

	// DefaultAuthorName and DefaultAuthorEmail are used when CommitAndPush
	// receives no author identity.
	DefaultAuthorName  = "worksync"
	DefaultAuthorEmail = "worksync@localhost"
)

// AuthProvider resolves transport credentials for network operations.
// The provider is supplied once at construction; the token varies per call.
type AuthProvider interface {
	// Method returns the transport.AuthMethod for the given remote URL and
	// token. A nil method with a nil error means anonymous access.
	Method(remoteURL, token string) (transport.AuthMethod, error)
}

// Options configures an Engine.
type Options struct {
	// FS is the REQUIRED filesystem root. Every workspace the engine
	// touches (objects, worktree, metadata, lock) lives within it.
	FS fs.Filesystem

	// Auth resolves credentials for HTTPS remotes.
	// Defaults to the token-as-password provider.
	Auth AuthProvider

	// Transport performs fetch and push. Defaults to go-git's network
	// transport; tests inject an in-memory implementation.
	Transport Transport

	// CloneDepth bounds the history fetched when a workspace is first
	// cloned. Defaults to DefaultCloneDepth.
	CloneDepth int

	// StorerCacheSize sets the LRU object cache entries for repository
	// storage. Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// LockStaleAfter is the age past which an unrenewed workspace lock is
	// reclaimed. Defaults to lock.DefaultStaleAfter (30s).
	LockStaleAfter time.Duration

	// AssetPatterns selects which paths count as test assets for filtered
	// status reporting. Defaults to DefaultAssetPatterns.
	AssetPatterns []string

	// EnforceConventionalCommits rejects CommitAndPush messages that do
	// not parse as conventional commits.
	EnforceConventionalCommits bool

	// Logger receives structured operation logs. Defaults to a discard
	// logger; the engine owns no sink.
	Logger *slog.Logger
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}

	if o.CloneDepth < 0 {
		return WrapError(ErrInvalidRef, "CloneDepth cannot be negative")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields.
func (o *Options) applyDefaults() {
	if o.Auth == nil {
		o.Auth = auth.NewTokenAuth()
	}

	if o.Transport == nil {
		o.Transport = netTransport{}
	}

	if o.CloneDepth == 0 {
		o.CloneDepth = DefaultCloneDepth
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}

	if len(o.AssetPatterns) == 0 {
		o.AssetPatterns = DefaultAssetPatterns
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Engine orchestrates workspace synchronization. All public methods wrap
// their body in a workspace lock keyed by the local path; a second call
// against the same path while one is in flight fails fast with
// ErrWorkspaceLocked.
type Engine struct {
	fs        fs.Filesystem
	auth      AuthProvider
	transport Transport
	store     *metadata.Store
	locks     *lock.Manager
	log       *slog.Logger
	opts      Options
}

// New constructs an Engine. The Engine holds no ambient global state; every
// dependency is injected here.
func New(opts *Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	return &Engine{
		fs:        opts.FS,
		auth:      opts.Auth,
		transport: opts.Transport,
		store:     metadata.NewStore(opts.FS),
		locks:     lock.NewManager(opts.FS, opts.LockStaleAfter),
		log:       opts.Logger,
		opts:      *opts,
	}, nil
}

// DefaultWorkspacePath returns the conventional on-disk location for a
// workspace when the caller does not supply one: a per-repository directory
// under the user's XDG data home.
func DefaultWorkspacePath(owner, repo string) string {
	return filepath.Join(xdg.DataHome, "worksync", owner, repo)
}

// stateDir returns the hidden state directory for a workspace.
func stateDir(localPath string) string {
	return filepath.Join(localPath, StateDirName)
}

// withLock runs fn while holding the workspace lock for localPath.
// Release happens on every exit path, including panics inside fn.
func (e *Engine) withLock(localPath string, fn func() error) error {
	dir := stateDir(localPath)
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return WrapError(err, "failed to create workspace state dir")
	}

	handle, err := e.locks.Acquire(filepath.Join(dir, LockFileName))
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return WrapError(ErrWorkspaceLocked, localPath)
		}
		return WrapError(err, "failed to acquire workspace lock")
	}
	defer handle.Release()

	return fn()
}
