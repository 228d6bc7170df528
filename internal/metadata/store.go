// Package metadata persists per-workspace sync state beside the working
// tree. The record is a single pretty-printed JSON document; it is written
// only after a mutating engine operation has fully succeeded, so it never
// points at a commit that failed to materialize.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// FileName is the metadata document's name inside the workspace state dir.
const FileName = "workspace.json"

// ErrNotExist is returned by Load when no metadata has been written yet.
var ErrNotExist = errors.New("workspace metadata does not exist")

// Workspace is the persisted sync state for one local working directory.
type Workspace struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch"`
	RemoteURL string `json:"remoteUrl"`

	// LastPulledOid is the local branch HEAD at the moment of the last
	// successful mutating operation. Empty until the first sync completes.
	LastPulledOid string `json:"lastPulledOid,omitempty"`
}

// Equal reports whether two records carry identical state.
func (w *Workspace) Equal(other *Workspace) bool {
	if w == nil || other == nil {
		return w == other
	}
	return *w == *other
}

// Store reads and writes workspace metadata on a shared filesystem.
type Store struct {
	fs fs.Filesystem
}

// NewStore creates a metadata store backed by fsys.
func NewStore(fsys fs.Filesystem) *Store {
	return &Store{fs: fsys}
}

// Load reads the metadata record from stateDir. Returns ErrNotExist when
// the document has never been written.
func (s *Store) Load(stateDir string) (*Workspace, error) {
	path := filepath.Join(stateDir, FileName)

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("read workspace metadata: %w", err)
	}

	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("decode workspace metadata: %w", err)
	}

	return &ws, nil
}

// Save writes the metadata record to stateDir, creating the directory if
// needed. The document is pretty-printed so it stays reviewable in the
// workspace checkout.
func (s *Store) Save(stateDir string, ws *Workspace) error {
	if err := s.fs.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workspace metadata: %w", err)
	}

	path := filepath.Join(stateDir, FileName)
	if err := s.fs.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write workspace metadata: %w", err)
	}

	return nil
}
