package fsbridge

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	fsb "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBillyFilesystem(t *testing.T) {
	t.Run("unwraps billy.FS", func(t *testing.T) {
		memFS := memfs.New()
		wrapped := fsb.NewFS(memFS)

		raw, err := ToBillyFilesystem(wrapped)
		require.NoError(t, err)
		assert.Equal(t, memFS, raw)
	})

	t.Run("rejects nil filesystem", func(t *testing.T) {
		raw, err := ToBillyFilesystem(nil)
		require.Error(t, err)
		assert.Nil(t, raw)
		assert.Contains(t, err.Error(), "billy.FS")
	})
}

func TestNewStorage(t *testing.T) {
	tests := []struct {
		name      string
		cacheSize int
	}{
		{name: "explicit cache size", cacheSize: 500},
		{name: "zero falls back to minimum", cacheSize: 0},
		{name: "negative falls back to minimum", cacheSize: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memFS := memfs.New()
			storage := NewStorage(memFS, tt.cacheSize)
			require.NotNil(t, storage)
			assert.Equal(t, memFS, storage.Filesystem())
		})
	}
}
