// Package lockfile implements the bun lockfile parser.
//
// Bun lockfiles are JSONC documents whose package entries are positional
// tuples; the tuple arity encodes where the package comes from:
//
//	1 value  -> workspace package  ["app@workspace:packages/app"]
//	2 values -> tarball package    ["x@https://example.com/x.tgz", {meta}]
//	3 values -> git package        ["x@github:o/r#rev", {meta}, "rev"]
//	4 values -> registry package   ["x@1.0.0", "", {meta}, "sha512-..."]
package lockfile

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tailscale/hujson"
	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
	"go.trai.ch/zerr"
)

// Parser implements ports.LockfileParser for bun lockfiles.
type Parser struct {
	logger ports.Logger
}

// NewParser creates a new Parser with the given logger.
func NewParser(logger ports.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse decodes the lockfile bytes into a validated dependency graph.
func (p *Parser) Parse(data []byte) (*domain.Graph, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyLockfile
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrMalformedLockfile.Error())
	}

	var dto lockfileDTO
	if err := json.Unmarshal(standardized, &dto); err != nil {
		return nil, zerr.Wrap(err, domain.ErrMalformedLockfile.Error())
	}

	if dto.LockfileVersion == nil {
		return nil, zerr.With(domain.ErrMalformedLockfile, "reason", "missing lockfileVersion field")
	}
	version := *dto.LockfileVersion
	if !slices.Contains(domain.SupportedLockfileVersions, version) {
		return nil, zerr.With(domain.ErrUnsupportedLockfileVersion, "version", version)
	}

	g := domain.NewGraph(version)
	g.SetFingerprint(xxhash.Sum64(data))

	for _, path := range sortedWorkspacePaths(dto.Workspaces) {
		ws := dto.Workspaces[path]
		if err := g.AddWorkspace(&domain.Workspace{
			Name:         ws.Name,
			Path:         path,
			Dependencies: ws.edges(),
		}); err != nil {
			return nil, err
		}
	}

	for _, key := range sortedPackageKeys(dto.Packages) {
		pkg, err := p.decodePackage(key, dto.Packages[key])
		if err != nil {
			return nil, err
		}
		if err := g.AddPackage(pkg); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}

// decodePackage turns one lockfile tuple into a package node. The tuple
// arity selects the decoder.
func (p *Parser) decodePackage(key string, values []json.RawMessage) (*domain.Package, error) {
	switch len(values) {
	case 1:
		return decodeWorkspacePackage(key, values)
	case 2:
		return decodeTarballPackage(key, values)
	case 3:
		return decodeGitPackage(key, values)
	case 4:
		return decodeRegistryPackage(key, values)
	default:
		err := zerr.With(domain.ErrInvalidPackageEntry, "package", key)
		return nil, zerr.With(err, "values", len(values))
	}
}

func decodeWorkspacePackage(key string, values []json.RawMessage) (*domain.Package, error) {
	ref, err := decodeString(key, values[0], "identifier")
	if err != nil {
		return nil, err
	}
	if !strings.Contains(ref, "workspace:") {
		err := zerr.With(domain.ErrInvalidPackageEntry, "package", key)
		return nil, zerr.With(err, "reason", "workspace identifier missing workspace: protocol")
	}

	return &domain.Package{
		Name:       key,
		Identifier: domain.Identifier{Kind: domain.KindWorkspace, Ref: ref},
	}, nil
}

func decodeTarballPackage(key string, values []json.RawMessage) (*domain.Package, error) {
	ref, err := decodeString(key, values[0], "identifier")
	if err != nil {
		return nil, err
	}
	meta, err := decodeMetadata(key, values[1])
	if err != nil {
		return nil, err
	}
	bins, err := meta.binaries()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPackageEntry.Error()), "package", key)
	}

	return &domain.Package{
		Name:         key,
		Identifier:   domain.Identifier{Kind: domain.KindTarball, Ref: ref},
		Binaries:     bins,
		Dependencies: meta.edges(),
	}, nil
}

func decodeGitPackage(key string, values []json.RawMessage) (*domain.Package, error) {
	ref, err := decodeString(key, values[0], "identifier")
	if err != nil {
		return nil, err
	}
	meta, err := decodeMetadata(key, values[1])
	if err != nil {
		return nil, err
	}
	rev, err := decodeString(key, values[2], "revision")
	if err != nil {
		return nil, err
	}
	bins, err := meta.binaries()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPackageEntry.Error()), "package", key)
	}

	return &domain.Package{
		Name:         key,
		Identifier:   domain.Identifier{Kind: domain.KindGit, Ref: ref},
		Revision:     rev,
		Binaries:     bins,
		Dependencies: meta.edges(),
	}, nil
}

func decodeRegistryPackage(key string, values []json.RawMessage) (*domain.Package, error) {
	ref, err := decodeString(key, values[0], "identifier")
	if err != nil {
		return nil, err
	}
	meta, err := decodeMetadata(key, values[2])
	if err != nil {
		return nil, err
	}
	integrity, err := decodeString(key, values[3], "integrity")
	if err != nil {
		return nil, err
	}
	// Registry hashes are recorded in SRI format; anything else means the
	// lockfile is damaged and must be regenerated.
	if !strings.HasPrefix(integrity, "sha") || !strings.Contains(integrity, "-") {
		err := zerr.With(domain.ErrInvalidPackageEntry, "package", key)
		return nil, zerr.With(err, "reason", "integrity hash is not in SRI format")
	}
	bins, err := meta.binaries()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPackageEntry.Error()), "package", key)
	}

	return &domain.Package{
		Name:         key,
		Identifier:   domain.Identifier{Kind: domain.KindRegistry, Ref: ref},
		Integrity:    integrity,
		Binaries:     bins,
		Dependencies: meta.edges(),
	}, nil
}

func decodeString(key string, raw json.RawMessage, field string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		err := zerr.With(domain.ErrInvalidPackageEntry, "package", key)
		return "", zerr.With(err, "field", field)
	}
	return s, nil
}

func decodeMetadata(key string, raw json.RawMessage) (metadataDTO, error) {
	var meta metadataDTO
	if err := json.Unmarshal(raw, &meta); err != nil {
		err := zerr.With(zerr.Wrap(err, domain.ErrInvalidPackageEntry.Error()), "package", key)
		return metadataDTO{}, zerr.With(err, "field", "metadata")
	}
	return meta, nil
}

func sortedWorkspacePaths(m map[string]workspaceDTO) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

func sortedPackageKeys(m map[string][]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
