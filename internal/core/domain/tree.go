package domain

// TreeState tracks the materializer's state machine.
type TreeState uint8

const (
	// TreeUnpacked is the initial state: destination exists, nothing placed.
	TreeUnpacked TreeState = iota
	// TreeModulesLoaded means every manifest entry has been placed at its
	// install path, including workspace links.
	TreeModulesLoaded
	// TreeReady means binary symlinks are in place and the tree is usable
	// by the toolchain.
	TreeReady
)

// String returns the name of the tree state.
func (s TreeState) String() string {
	switch s {
	case TreeUnpacked:
		return "Unpacked"
	case TreeModulesLoaded:
		return "ModulesLoaded"
	case TreeReady:
		return "Ready"
	default:
		return "unknown"
	}
}

// MaterializedTree is the on-disk reconstruction of the dependency tree for
// a single build. It is owned by exactly one build invocation and discarded
// afterwards; only the compiled artifact survives.
type MaterializedTree struct {
	// Root is the build scratch directory.
	Root string
	// ModulesDir is the node_modules directory under Root.
	ModulesDir string
	// State is the current materialization state.
	State TreeState
}
