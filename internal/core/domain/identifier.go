// Package domain contains the core domain models for the dependency graph
// and its conversion into a hermetic installation plan.
package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// IdentifierKind classifies where a package's content comes from.
type IdentifierKind uint8

const (
	// KindRegistry is a package fetched as a tarball from the npm registry.
	KindRegistry IdentifierKind = iota
	// KindGit is a package pinned to a git revision.
	KindGit
	// KindTarball is a package fetched from an arbitrary tarball URL.
	KindTarball
	// KindWorkspace is a package living inside the workspace source tree.
	KindWorkspace
)

// String returns the lowercase name of the kind.
func (k IdentifierKind) String() string {
	switch k {
	case KindRegistry:
		return "registry"
	case KindGit:
		return "git"
	case KindTarball:
		return "tarball"
	case KindWorkspace:
		return "workspace"
	default:
		return "unknown"
	}
}

// Identifier is a package's source identity as recorded in the lockfile,
// e.g. "@alloc/quick-lru@5.2.0" or "lodash@github:lodash/lodash#8a26eb4".
type Identifier struct {
	Kind IdentifierKind
	Ref  string
}

// SplitNameVersion splits the identifier ref into its name and version (or
// source reference) parts. The separator is the first "@" after the optional
// scope segment.
func (i Identifier) SplitNameVersion() (name, version string, err error) {
	ref := i.Ref

	if scope, rest, ok := strings.Cut(ref, "/"); ok && strings.HasPrefix(ref, "@") {
		n, v, found := strings.Cut(rest, "@")
		if !found {
			return "", "", zerr.With(ErrNoAtInIdentifier, "identifier", i.Ref)
		}
		return scope + "/" + n, v, nil
	}

	n, v, found := strings.Cut(ref, "@")
	if !found || n == "" {
		return "", "", zerr.With(ErrNoAtInIdentifier, "identifier", i.Ref)
	}
	return n, v, nil
}

// String returns the raw identifier ref.
func (i Identifier) String() string {
	return i.Ref
}
