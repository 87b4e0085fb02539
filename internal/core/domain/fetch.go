package domain

import "go.trai.ch/zerr"

// FetchKind classifies how a package's content is obtained.
type FetchKind uint8

const (
	// FetchRegistry downloads a tarball from a package registry.
	FetchRegistry FetchKind = iota
	// FetchGit checks out a pinned revision from a git repository.
	FetchGit
	// FetchLocalPath links a directory inside the workspace; no fetch occurs.
	FetchLocalPath
)

// String returns the lowercase name of the fetch kind.
func (k FetchKind) String() string {
	switch k {
	case FetchRegistry:
		return "registry"
	case FetchGit:
		return "git"
	case FetchLocalPath:
		return "local"
	default:
		return "unknown"
	}
}

// FetchDescriptor is the minimal, verifiable instruction for obtaining one
// package's content.
type FetchDescriptor struct {
	Kind FetchKind

	// URL is the tarball URL for registry fetches or the normalized
	// repository URL for git fetches.
	URL string

	// Revision is the pinned commit for git fetches.
	Revision string

	// ArchiveURL is the HTTPS tarball of the pinned revision, set for git
	// fetches on hosts that serve revision archives. When present the
	// content is downloaded and hashed like a registry tarball.
	ArchiveURL string

	// Integrity is the SRI hash of the fetched content. It covers the
	// tarball for registry fetches and the checked-out tree for git
	// fetches. Local paths carry none; the workspace is the trust boundary.
	Integrity string

	// Path is the workspace-relative directory for local fetches.
	Path string
}

// Key returns the descriptor's dedup identity. Two packages whose
// descriptors share a key must collapse to a single fetch.
func (d FetchDescriptor) Key() string {
	return d.Kind.String() + "\x00" + d.URL + "\x00" + d.Revision + "\x00" + d.Integrity + "\x00" + d.Path
}

// FetchURL returns the URL content is downloaded from: the revision
// archive for git fetches that have one, the tarball URL otherwise.
func (d FetchDescriptor) FetchURL() string {
	if d.Kind == FetchGit && d.ArchiveURL != "" {
		return d.ArchiveURL
	}
	return d.URL
}

// Verify checks the descriptor invariants: registry descriptors always
// carry an integrity hash, local paths never require one. Git descriptors
// require one only when the host serves revision archives; elsewhere the
// emitted entry pins through an empty hash filled in on first build.
func (d FetchDescriptor) Verify() error {
	switch d.Kind {
	case FetchRegistry:
		if d.Integrity == "" {
			return zerr.With(ErrMissingIntegrity, "url", d.URL)
		}
	case FetchGit:
		if d.ArchiveURL != "" && d.Integrity == "" {
			return zerr.With(ErrMissingIntegrity, "url", d.ArchiveURL)
		}
	case FetchLocalPath:
		// Nothing to verify.
	}
	return nil
}
