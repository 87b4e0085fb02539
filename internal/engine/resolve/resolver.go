// Package resolve derives fetch descriptors for every node of a dependency
// graph and assembles them into a deterministic manifest. It performs no
// I/O; integrity hashes are taken verbatim from the lockfile, never
// recomputed here.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/zerr"
)

// Resolver maps graph nodes to reproducible fetch descriptors.
type Resolver struct {
	registry string
}

// NewResolver creates a Resolver addressing tarballs against the given
// registry base URL. An empty registry falls back to the default.
func NewResolver(registry string) *Resolver {
	if registry == "" {
		registry = domain.DefaultRegistry
	}
	return &Resolver{registry: strings.TrimSuffix(registry, "/")}
}

// Resolve turns a validated graph into a manifest. Nodes that share an
// identical (name, version, integrity) triple collapse to a single entry so
// the same content is never fetched twice.
func (r *Resolver) Resolve(g *domain.Graph) (*domain.Manifest, error) {
	if !g.Validated() {
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}

	entries := make(map[string]*domain.ManifestEntry)
	keyToID := make(map[string]string, g.Len())

	for _, pkg := range g.SortedPackages() {
		entry, err := r.resolvePackage(pkg)
		if err != nil {
			return nil, err
		}

		keyToID[pkg.Name] = entry.ID
		entry.InstallPaths = []string{domain.InstallPathForKey(pkg.Name)}

		existing, ok := entries[entry.ID]
		if !ok {
			entries[entry.ID] = entry
			continue
		}
		// Same identity reached through different install keys: must be
		// the same content, otherwise the lockfile is ambiguous.
		if existing.Descriptor.Key() != entry.Descriptor.Key() {
			err := zerr.With(domain.ErrDuplicatePackage, "id", entry.ID)
			err = zerr.With(err, "descriptor_a", existing.Descriptor.URL)
			return nil, zerr.With(err, "descriptor_b", entry.Descriptor.URL)
		}
		existing.Dev = existing.Dev && entry.Dev
		existing.Optional = existing.Optional && entry.Optional
		existing.InstallPaths = append(existing.InstallPaths, entry.InstallPaths...)
	}

	// Second pass: rewrite resolved install keys to entry IDs.
	for _, pkg := range g.SortedPackages() {
		id := keyToID[pkg.Name]
		entry := entries[id]
		for _, target := range g.ResolvedDeps(pkg.Name) {
			depID := keyToID[target]
			if depID == id {
				// Self edges come from peer cycles; they are represented
				// in the graph but never materialize as ownership.
				continue
			}
			entry.Dependencies = append(entry.Dependencies, depID)
		}
	}

	m := &domain.Manifest{
		Fingerprint: fmt.Sprintf("xxh64:%016x", g.Fingerprint()),
	}
	for _, entry := range entries {
		sort.Strings(entry.Dependencies)
		entry.Dependencies = dedupSorted(entry.Dependencies)
		sort.Strings(entry.InstallPaths)
		entry.InstallPaths = dedupSorted(entry.InstallPaths)
		m.Entries = append(m.Entries, *entry)
	}

	for _, ue := range g.Unresolved() {
		requestedBy := ue.From
		if id, ok := keyToID[ue.From]; ok {
			requestedBy = id
		}
		m.Skipped = append(m.Skipped, domain.SkipEntry{
			Name:        ue.Edge.Name,
			RequestedBy: requestedBy,
			Kind:        ue.Edge.Kind,
		})
	}

	m.Sort()
	return m, nil
}

// resolvePackage builds the manifest entry for a single graph node.
func (r *Resolver) resolvePackage(pkg *domain.Package) (*domain.ManifestEntry, error) {
	name, version, err := pkg.Identifier.SplitNameVersion()
	if err != nil {
		return nil, zerr.With(err, "package", pkg.Name)
	}

	desc, err := r.descriptor(pkg, name, version)
	if err != nil {
		return nil, err
	}

	return &domain.ManifestEntry{
		ID:         pkg.Identifier.Ref,
		Name:       name,
		Version:    version,
		Descriptor: desc,
		Binaries:   pkg.Binaries.Normalize(name),
		Dev:        pkg.Dev,
		Optional:   pkg.Optional,
	}, nil
}

func (r *Resolver) descriptor(pkg *domain.Package, name, version string) (domain.FetchDescriptor, error) {
	switch pkg.Identifier.Kind {
	case domain.KindRegistry:
		return domain.FetchDescriptor{
			Kind:      domain.FetchRegistry,
			URL:       RegistryTarballURL(r.registry, name, version),
			Integrity: pkg.Integrity,
		}, nil

	case domain.KindGit:
		repoURL, revision, err := normalizeGitSource(version)
		if err != nil {
			return domain.FetchDescriptor{}, zerr.With(err, "package", pkg.Name)
		}
		if revision == "" {
			revision = pkg.Revision
		}
		if revision == "" {
			return domain.FetchDescriptor{}, zerr.With(domain.ErrMalformedGitIdentifier, "package", pkg.Name)
		}
		return domain.FetchDescriptor{
			Kind:       domain.FetchGit,
			URL:        repoURL,
			Revision:   revision,
			ArchiveURL: gitArchiveURL(repoURL, revision),
			Integrity:  pkg.Integrity,
		}, nil

	case domain.KindTarball:
		return domain.FetchDescriptor{
			Kind:      domain.FetchRegistry,
			URL:       version,
			Integrity: pkg.Integrity,
		}, nil

	case domain.KindWorkspace:
		return domain.FetchDescriptor{
			Kind: domain.FetchLocalPath,
			Path: strings.TrimPrefix(version, "workspace:"),
		}, nil

	default:
		return domain.FetchDescriptor{}, zerr.With(domain.ErrMissingDescriptor, "package", pkg.Name)
	}
}

// RegistryTarballURL builds the canonical registry download URL for a
// package, e.g. https://registry.npmjs.org/@alloc/quick-lru/-/quick-lru-5.2.0.tgz.
// Scoped names keep the scope as a path segment; the tarball base name
// never includes the scope.
func RegistryTarballURL(registry, name, version string) string {
	base := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		base = name[i+1:]
	}
	return registry + "/" + name + "/-/" + base + "-" + version + ".tgz"
}

// normalizeGitSource splits a pinned git source into a canonical https
// repository URL and its revision fragment. Supported forms:
//
//	github:owner/repo#rev
//	git+ssh://git@host/path.git#rev
//	git+https://host/path.git#rev
func normalizeGitSource(source string) (repoURL, revision string, err error) {
	src := source
	if i := strings.LastIndex(src, "#"); i >= 0 {
		revision = src[i+1:]
		src = src[:i]
	}

	switch {
	case strings.HasPrefix(src, "github:"):
		repoURL = "https://github.com/" + strings.TrimPrefix(src, "github:")
	case strings.HasPrefix(src, "git+ssh://"):
		rest := strings.TrimPrefix(src, "git+ssh://")
		// Drop the ssh user, e.g. git@gitlab.com/a/b.git.
		if i := strings.Index(rest, "@"); i >= 0 && i < strings.Index(rest, "/") {
			rest = rest[i+1:]
		}
		repoURL = "https://" + rest
	case strings.HasPrefix(src, "git+https://"):
		repoURL = strings.TrimPrefix(src, "git+")
	case strings.HasPrefix(src, "git+http://"):
		repoURL = strings.TrimPrefix(src, "git+")
	default:
		return "", "", zerr.With(domain.ErrMalformedGitIdentifier, "source", source)
	}

	return repoURL, revision, nil
}

// gitArchiveURL returns the HTTPS tarball of a pinned revision for hosts
// known to serve revision archives, or "" when no such endpoint exists.
func gitArchiveURL(repoURL, revision string) string {
	repo := strings.TrimSuffix(repoURL, ".git")
	if strings.HasPrefix(repo, "https://github.com/") {
		return repo + "/archive/" + revision + ".tar.gz"
	}
	return ""
}

func dedupSorted(s []string) []string {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
