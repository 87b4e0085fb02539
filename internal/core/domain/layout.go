package domain

import (
	"path/filepath"
	"strings"
)

const (
	// BurrowDirName is the name of the internal metadata directory.
	BurrowDirName = ".burrow"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// PrefetchDBName is the filename of the prefetch hash cache database.
	PrefetchDBName = "prefetch.db"

	// StoreDirName is the content store directory holding unpacked packages.
	StoreDirName = "store"

	// ConfigFileName is the name of the optional project configuration file.
	ConfigFileName = "burrow.yaml"

	// LockfileName is the default bun lockfile name.
	LockfileName = "bun.lock"

	// ManifestFileName is the default name of the emitted Nix expression.
	ManifestFileName = "burrow.nix"

	// ModulesDirName is the dependency tree directory expected by bun.
	ModulesDirName = "node_modules"

	// BinDirName is the executable symlink directory inside node_modules.
	BinDirName = ".bin"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// ExecPerm is the permission for compiled artifacts (rwxr-xr-x).
	ExecPerm = 0o755
)

// DefaultPrefetchCachePath returns the default path for the prefetch cache
// database under the given root. It joins .burrow, cache, and prefetch.db.
func DefaultPrefetchCachePath(root string) string {
	return filepath.Join(root, BurrowDirName, CacheDirName, PrefetchDBName)
}

// DefaultStoreDir returns the default content store directory under the
// given root.
func DefaultStoreDir(root string) string {
	return filepath.Join(root, BurrowDirName, CacheDirName, StoreDirName)
}

// StorePath returns the store directory holding an entry's unpacked
// content. Entry IDs contain slashes in scoped names, which are flattened:
// "@scope/name@1.0.0" stores at "@scope+name@1.0.0".
func StorePath(storeDir, id string) string {
	return filepath.Join(storeDir, strings.ReplaceAll(id, "/", "+"))
}
