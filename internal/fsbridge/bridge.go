// Package fsbridge adapts the native fs.Filesystem abstraction to the
// go-billy filesystems that go-git storage requires. It keeps the sync
// engine storage-agnostic: workspaces can live on disk or fully in memory.
package fsbridge

import (
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	fsb "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
)

// minCacheSize is the floor applied when an invalid cache size is requested.
const minCacheSize = 100

// ToBillyFilesystem unwraps an fs.Filesystem into the go-billy filesystem
// underneath it. The filesystem must be a billy.FS wrapper from the fs/billy
// package; any other implementation cannot back go-git storage.
//
//nolint:ireturn // billy.Filesystem is the type go-git storage consumes
func ToBillyFilesystem(fsys fs.Filesystem) (billy.Filesystem, error) {
	wrapper, ok := fsys.(*fsb.FS)
	if !ok {
		return nil, fmt.Errorf("filesystem must be a billy.FS from fs/billy, got %T", fsys)
	}
	return wrapper.Raw(), nil
}

// NewStorage creates go-git filesystem storage rooted at billyFS with an LRU
// object cache. The cache keeps recently read commit/tree/blob objects in
// memory, which matters for the tree walks the engine performs on every pull.
func NewStorage(billyFS billy.Filesystem, cacheSize int) *filesystem.Storage {
	if cacheSize <= 0 {
		cacheSize = minCacheSize
	}

	objCache := cache.NewObjectLRU(cache.FileSize(cacheSize))
	return filesystem.NewStorage(billyFS, objCache)
}
