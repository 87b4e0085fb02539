package domain

import "strings"

// EdgeKind qualifies a dependency edge.
type EdgeKind uint8

const (
	// EdgeProd is a regular runtime dependency.
	EdgeProd EdgeKind = iota
	// EdgeDev is a development-only dependency.
	EdgeDev
	// EdgePeer is a peer dependency expected to be provided by a consumer.
	EdgePeer
	// EdgeOptional is an optional dependency that may legitimately be absent.
	EdgeOptional
	// EdgeOptionalPeer is a peer dependency marked optional.
	EdgeOptionalPeer
)

// String returns the lowercase name of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeProd:
		return "prod"
	case EdgeDev:
		return "dev"
	case EdgePeer:
		return "peer"
	case EdgeOptional:
		return "optional"
	case EdgeOptionalPeer:
		return "optional-peer"
	default:
		return "unknown"
	}
}

// MayDangle reports whether an edge of this kind is allowed to point at a
// package absent from the lockfile. Optional and peer edges may dangle; a
// dangling prod or dev edge is a graph integrity error.
func (k EdgeKind) MayDangle() bool {
	return k == EdgePeer || k == EdgeOptional || k == EdgeOptionalPeer
}

// Edge is a single outgoing dependency reference.
type Edge struct {
	// Name is the dependency's package name as requested.
	Name string
	// Spec is the version range or source spec from the lockfile.
	Spec string
	// Kind qualifies the edge.
	Kind EdgeKind
}

// Package is a single node of the dependency graph as found in the lockfile.
type Package struct {
	// Name is the package's install key, as found under node_modules.
	// Nested resolutions use path-style keys, e.g. "chokidar/fsevents".
	Name string

	// Identifier is the package's source identity.
	Identifier Identifier

	// Integrity is the SRI content hash recorded in the lockfile. Registry
	// packages always carry one; git and tarball packages may not, in which
	// case prefetching supplies it. Workspace packages never carry one.
	Integrity string

	// Revision is the pinned git commit for git packages.
	Revision string

	// Binaries are the package's declared executables.
	Binaries Binaries

	// Dependencies is the explicit outgoing edge list.
	Dependencies []Edge

	// Dev marks packages reachable only through dev edges.
	Dev bool

	// Optional marks packages reachable only through optional edges.
	Optional bool
}

// InstallPathForKey converts a lockfile install key into a node_modules
// relative directory. Nested keys interleave node_modules, e.g.
// "chokidar/fsevents" installs at "chokidar/node_modules/fsevents". Scoped
// names consume two slash-separated parts.
func InstallPathForKey(key string) string {
	parts := splitInstallKey(key)
	out := parts[0]
	for _, p := range parts[1:] {
		out += "/" + ModulesDirName + "/" + p
	}
	return out
}

// splitInstallKey splits a lockfile install key into package names.
func splitInstallKey(key string) []string {
	raw := strings.Split(key, "/")
	names := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if strings.HasPrefix(raw[i], "@") && i+1 < len(raw) {
			names = append(names, raw[i]+"/"+raw[i+1])
			i++
			continue
		}
		names = append(names, raw[i])
	}
	return names
}

// Workspace is a root package sharing the lockfile, keyed by its path
// relative to the workspace root ("" for the root package itself).
type Workspace struct {
	Name         string
	Path         string
	Dependencies []Edge
}
