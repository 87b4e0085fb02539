package domain

import "sort"

// ManifestEntry binds one package identity to its fetch descriptor and its
// resolved dependency identities.
type ManifestEntry struct {
	// ID is the entry's stable identity, "name@version".
	ID string

	Name    string
	Version string

	Descriptor FetchDescriptor

	// Dependencies are the IDs of the entries this package depends on,
	// sorted lexicographically.
	Dependencies []string

	// InstallPaths are the node_modules-relative directories this entry is
	// installed at, sorted. An entry usually has one path; conflicting
	// version resolutions nest under their dependent, e.g.
	// "chokidar/node_modules/fsevents".
	InstallPaths []string

	// Binaries are the package's normalized executables.
	Binaries []Binary

	Dev      bool
	Optional bool
}

// SkipEntry records an optional or peer dependency that was unresolved in
// the lockfile. Skips are emitted explicitly so a manifest diff shows
// everything the converter saw.
type SkipEntry struct {
	// Name is the package name that could not be resolved.
	Name string
	// RequestedBy is the identity of the package (or workspace) that
	// declared the edge.
	RequestedBy string
	// Kind is the qualifier of the dangling edge.
	Kind EdgeKind
}

// Manifest is the deterministic installation plan derived from one lockfile
// snapshot. It is regenerated whole; entries are kept sorted by ID so that
// an unchanged lockfile always serializes to byte-identical output.
type Manifest struct {
	// Fingerprint is the xxhash of the raw lockfile bytes, formatted as
	// "xxh64:<16 hex digits>".
	Fingerprint string

	Entries []ManifestEntry
	Skipped []SkipEntry
}

// Sort orders entries by ID and skips by (name, requestedBy). Emission
// depends on this order being stable.
func (m *Manifest) Sort() {
	sort.Slice(m.Entries, func(i, j int) bool { return m.Entries[i].ID < m.Entries[j].ID })
	sort.Slice(m.Skipped, func(i, j int) bool {
		if m.Skipped[i].Name != m.Skipped[j].Name {
			return m.Skipped[i].Name < m.Skipped[j].Name
		}
		return m.Skipped[i].RequestedBy < m.Skipped[j].RequestedBy
	})
}

// Entry returns the entry with the given ID.
func (m *Manifest) Entry(id string) (*ManifestEntry, bool) {
	for i := range m.Entries {
		if m.Entries[i].ID == id {
			return &m.Entries[i], true
		}
	}
	return nil, false
}
