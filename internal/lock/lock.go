// Package lock provides a file-based mutual-exclusion primitive for
// workspace directories. A lock is a small JSON record written beside the
// working tree; it is held for the duration of one engine operation and
// guards against concurrent mutation from any process sharing the
// filesystem.
//
// Staleness is purely time-based: the holder renews the record's timestamp
// on a heartbeat, and a record whose timestamp is older than the stale
// threshold is reclaimed by the next acquirer. No process liveness probing
// is performed.
package lock

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// DefaultStaleAfter is the age past which an unrenewed lock record is
// considered abandoned.
const DefaultStaleAfter = 30 * time.Second

// ErrHeld is returned when the lock file exists, is fresh, and therefore
// belongs to another in-flight operation. Acquisition never blocks.
var ErrHeld = errors.New("workspace lock held")

// Record is the JSON payload stored in the lock file. The PID is recorded
// for diagnostics only; staleness decisions use the timestamp alone.
type Record struct {
	PID       int       `json:"pid"`
	Timestamp time.Time `json:"timestamp"`
}

// Manager acquires locks on a shared filesystem.
type Manager struct {
	fs         fs.Filesystem
	staleAfter time.Duration
}

// NewManager creates a lock manager. A non-positive staleAfter falls back
// to DefaultStaleAfter.
func NewManager(fsys fs.Filesystem, staleAfter time.Duration) *Manager {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Manager{fs: fsys, staleAfter: staleAfter}
}

// Acquire takes the lock at path, reclaiming a stale record at most once.
// It fails fast with ErrHeld when the lock is fresh; callers retry by
// issuing a fresh operation, never by waiting here.
func (m *Manager) Acquire(path string) (*Handle, error) {
	return m.acquire(path, true)
}

func (m *Manager) acquire(path string, mayReclaim bool) (*Handle, error) {
	err := m.writeRecord(path, true)
	if err == nil {
		h := &Handle{
			mgr:     m,
			path:    path,
			done:    make(chan struct{}),
			stopped: make(chan struct{}),
		}
		go h.heartbeat(m.staleAfter / 3)
		return h, nil
	}

	if !errors.Is(err, os.ErrExist) {
		return nil, err
	}

	if mayReclaim && m.isStale(path) {
		// Best effort: someone else may reclaim concurrently. The single
		// retry below decides who won.
		_ = m.fs.Remove(path)
		return m.acquire(path, false)
	}

	return nil, ErrHeld
}

// isStale reports whether the record at path is old enough to reclaim.
// An unreadable or corrupt record is treated as stale: it can never be
// renewed by a live holder.
func (m *Manager) isStale(path string) bool {
	data, err := m.fs.ReadFile(path)
	if err != nil {
		return true
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return true
	}

	return time.Since(rec.Timestamp) > m.staleAfter
}

// writeRecord writes a fresh record. When exclusive is set the write fails
// with os.ErrExist if the file already exists.
func (m *Manager) writeRecord(path string, exclusive bool) error {
	rec := Record{PID: os.Getpid(), Timestamp: time.Now().UTC()}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if exclusive {
		flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := m.fs.OpenFile(path, flag, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Handle is a held lock. Release must be called on every exit path.
type Handle struct {
	mgr  *Manager
	path string

	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

// heartbeat renews the record timestamp until the lock is released, so a
// long-running operation is never reclaimed out from under its holder.
func (h *Handle) heartbeat(interval time.Duration) {
	defer close(h.stopped)

	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			_ = h.mgr.writeRecord(h.path, false)
		}
	}
}

// Release stops the heartbeat and removes the lock file. It waits for the
// heartbeat goroutine to exit first, so no renewal write can recreate the
// file after removal. Removal failures are swallowed: cleanup is best
// effort and must never mask the result of the operation that held the lock.
func (h *Handle) Release() {
	h.once.Do(func() {
		close(h.done)
		<-h.stopped
		_ = h.mgr.fs.Remove(h.path)
	})
}
