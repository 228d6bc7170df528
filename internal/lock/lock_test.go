package lock

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	fsb "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	mgr := NewManager(memFS, 0)

	handle, err := mgr.Acquire("workspace.lock")
	require.NoError(t, err)
	require.NotNil(t, handle)

	// The record carries this process's pid and a recent timestamp.
	data, err := memFS.ReadFile("workspace.lock")
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, os.Getpid(), rec.PID)
	assert.WithinDuration(t, time.Now().UTC(), rec.Timestamp, 5*time.Second)

	handle.Release()

	exists, err := memFS.Exists("workspace.lock")
	require.NoError(t, err)
	assert.False(t, exists, "release should remove the lock file")
}

func TestAcquireFailsFastWhenHeld(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	mgr := NewManager(memFS, 0)

	first, err := mgr.Acquire("workspace.lock")
	require.NoError(t, err)
	defer first.Release()

	second, err := mgr.Acquire("workspace.lock")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHeld)
	assert.Nil(t, second)
}

func TestAcquireReclaimsStaleRecord(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	mgr := NewManager(memFS, 50*time.Millisecond)

	stale := Record{PID: 12345, Timestamp: time.Now().UTC().Add(-time.Minute)}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, memFS.WriteFile("workspace.lock", data, 0o644))

	handle, err := mgr.Acquire("workspace.lock")
	require.NoError(t, err, "stale lock should be reclaimed")
	defer handle.Release()

	// The reclaimed record belongs to us now.
	fresh, err := memFS.ReadFile("workspace.lock")
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(fresh, &rec))
	assert.Equal(t, os.Getpid(), rec.PID)
}

func TestAcquireReclaimsCorruptRecord(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	mgr := NewManager(memFS, time.Minute)

	require.NoError(t, memFS.WriteFile("workspace.lock", []byte("not json"), 0o644))

	handle, err := mgr.Acquire("workspace.lock")
	require.NoError(t, err, "corrupt lock can never be renewed, so it is stale")
	handle.Release()
}

func TestHeartbeatRenewsTimestamp(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	// Very short threshold so the heartbeat interval is a few milliseconds.
	mgr := NewManager(memFS, 30*time.Millisecond)

	handle, err := mgr.Acquire("workspace.lock")
	require.NoError(t, err)
	defer handle.Release()

	before := readRecord(t, memFS)
	time.Sleep(60 * time.Millisecond)
	after := readRecord(t, memFS)

	assert.True(t, after.Timestamp.After(before.Timestamp), "heartbeat should have renewed the record")
}

func TestReleaseLeavesNoGhostLock(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	// Millisecond heartbeat so renewal writes race the release tightly.
	mgr := NewManager(memFS, 3*time.Millisecond)

	handle, err := mgr.Acquire("workspace.lock")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	handle.Release()
	time.Sleep(20 * time.Millisecond)

	exists, err := memFS.Exists("workspace.lock")
	require.NoError(t, err)
	assert.False(t, exists, "no renewal write may recreate the file after release")

	second, err := mgr.Acquire("workspace.lock")
	require.NoError(t, err, "workspace must be reacquirable immediately after release")
	second.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	mgr := NewManager(memFS, 0)

	handle, err := mgr.Acquire("workspace.lock")
	require.NoError(t, err)

	handle.Release()
	handle.Release() // must not panic on double release
}

func readRecord(t *testing.T, fsys *fsb.FS) Record {
	t.Helper()

	data, err := fsys.ReadFile("workspace.lock")
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	return rec
}
