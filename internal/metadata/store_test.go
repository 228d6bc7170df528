package metadata

import (
	"strings"
	"testing"

	fsb "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	store := NewStore(memFS)

	ws := &Workspace{
		Owner:         "a",
		Repo:          "b",
		Branch:        "main",
		RemoteURL:     "https://example/a/b.git",
		LastPulledOid: "0123456789abcdef0123456789abcdef01234567",
	}

	require.NoError(t, store.Save(".worksync", ws))

	loaded, err := store.Load(".worksync")
	require.NoError(t, err)
	assert.True(t, ws.Equal(loaded))
}

func TestStoreLoadMissing(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	store := NewStore(memFS)

	ws, err := store.Load(".worksync")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotExist)
	assert.Nil(t, ws)
}

func TestStoreSaveIsPrettyPrinted(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	store := NewStore(memFS)

	require.NoError(t, store.Save(".worksync", &Workspace{
		Owner:     "a",
		Repo:      "b",
		Branch:    "main",
		RemoteURL: "https://example/a/b.git",
	}))

	data, err := memFS.ReadFile(".worksync/workspace.json")
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.Contains(text, "\n  \"owner\": \"a\""), "expected indented JSON, got %q", text)
	assert.True(t, strings.HasSuffix(text, "\n"), "document should end with a newline")
	assert.NotContains(t, text, "lastPulledOid", "empty oid should be omitted")
}

func TestStoreLoadCorrupt(t *testing.T) {
	memFS := fsb.NewInMemoryFS()
	require.NoError(t, memFS.MkdirAll(".worksync", 0o755))
	require.NoError(t, memFS.WriteFile(".worksync/workspace.json", []byte("{broken"), 0o644))

	store := NewStore(memFS)
	ws, err := store.Load(".worksync")
	require.Error(t, err)
	assert.Nil(t, ws)
	assert.NotErrorIs(t, err, ErrNotExist)
}

func TestWorkspaceEqual(t *testing.T) {
	a := &Workspace{Owner: "a", Repo: "b", Branch: "main", RemoteURL: "u"}
	b := &Workspace{Owner: "a", Repo: "b", Branch: "main", RemoteURL: "u"}
	c := &Workspace{Owner: "a", Repo: "b", Branch: "dev", RemoteURL: "u"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.True(t, (*Workspace)(nil).Equal(nil))
}
