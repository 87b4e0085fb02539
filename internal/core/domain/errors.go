package domain

import "go.trai.ch/zerr"

var (
	// ErrMalformedLockfile is returned when the lockfile cannot be parsed as JSONC.
	ErrMalformedLockfile = zerr.New("malformed lockfile")

	// ErrEmptyLockfile is returned when the lockfile contains no parseable value.
	ErrEmptyLockfile = zerr.New("empty lockfile")

	// ErrUnsupportedLockfileVersion is returned when the lockfile version is outside the supported range.
	ErrUnsupportedLockfileVersion = zerr.New("unsupported lockfile version")

	// ErrInvalidPackageEntry is returned when a package entry tuple has an unexpected shape.
	ErrInvalidPackageEntry = zerr.New("invalid package entry")

	// ErrDuplicatePackage is returned when two packages claim the same install key.
	ErrDuplicatePackage = zerr.New("duplicate package")

	// ErrUnresolvedReference is returned when a non-optional edge points to a package absent from the lockfile.
	ErrUnresolvedReference = zerr.New("unresolved dependency reference")

	// ErrNoAtInIdentifier is returned when a package identifier is missing its name@version separator.
	ErrNoAtInIdentifier = zerr.New("missing @ in package identifier")

	// ErrMalformedGitIdentifier is returned when a git identifier has no pinned revision or repository.
	ErrMalformedGitIdentifier = zerr.New("malformed git identifier")

	// ErrMissingIntegrity is returned when a registry or git descriptor lacks a verifiable hash.
	ErrMissingIntegrity = zerr.New("descriptor is missing an integrity hash")

	// ErrMissingDescriptor is returned when a non-optional package has no resolvable fetch descriptor.
	ErrMissingDescriptor = zerr.New("package has no fetch descriptor")

	// ErrEmissionFailed is returned when the manifest cannot be serialized.
	ErrEmissionFailed = zerr.New("failed to emit manifest expression")

	// ErrManifestWriteFailed is returned when the emitted manifest cannot be written to disk.
	ErrManifestWriteFailed = zerr.New("failed to write manifest")

	// ErrMissingFetchedContent is returned when a descriptor's content is absent from the local store.
	ErrMissingFetchedContent = zerr.New("fetched content missing from store")

	// ErrSymlinkConflict is returned when two packages declare the same binary name.
	ErrSymlinkConflict = zerr.New("binary symlink conflict")

	// ErrMaterializationFailed is returned when the dependency tree cannot be reconstructed.
	ErrMaterializationFailed = zerr.New("failed to materialize dependency tree")

	// ErrTreeNotReady is returned when a build is attempted against a tree that is not Ready.
	ErrTreeNotReady = zerr.New("dependency tree is not ready")

	// ErrToolchainFailed is returned when the bun toolchain exits non-zero.
	ErrToolchainFailed = zerr.New("toolchain invocation failed")

	// ErrPrefetchFailed is returned when fetching a package for hashing fails.
	ErrPrefetchFailed = zerr.New("failed to prefetch package")

	// ErrIntegrityMismatch is returned when downloaded content does not match
	// the integrity recorded in the lockfile.
	ErrIntegrityMismatch = zerr.New("integrity mismatch")

	// ErrCacheOpenFailed is returned when the prefetch cache database cannot be opened.
	ErrCacheOpenFailed = zerr.New("failed to open prefetch cache")

	// ErrCacheReadFailed is returned when reading from the prefetch cache fails.
	ErrCacheReadFailed = zerr.New("failed to read from prefetch cache")

	// ErrCacheWriteFailed is returned when writing to the prefetch cache fails.
	ErrCacheWriteFailed = zerr.New("failed to write to prefetch cache")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrTemplateScanFailed is returned when the templates directory cannot be scanned.
	ErrTemplateScanFailed = zerr.New("failed to scan templates directory")

	// ErrTemplateVersionMismatch is returned when a template pins a stale burrow release.
	ErrTemplateVersionMismatch = zerr.New("template version mismatch")

	// ErrWatchFailed is returned when the lockfile watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to watch lockfile")

	// ErrLockfileReadFailed is returned when the lockfile cannot be read from disk.
	ErrLockfileReadFailed = zerr.New("failed to read lockfile")
)
