package domain

import (
	"sort"
	"strings"
)

// Binaries holds a package's declared executable entry points, either a
// single unnamed path or a map of binary names to paths.
type Binaries struct {
	// Unnamed is set when the package declares a single binary as a string.
	// The binary takes the package's base name.
	Unnamed string
	// Named maps binary names to paths inside the package directory.
	Named map[string]string
}

// IsZero reports whether no binaries are declared.
func (b Binaries) IsZero() bool {
	return b.Unnamed == "" && len(b.Named) == 0
}

// Binary is a single normalized executable entry point. Path is always
// relative to the package's own installed directory.
type Binary struct {
	Name string
	Path string
}

// Normalize converts the declared binaries into a sorted list of Binary
// entries. Unnamed binaries take the package's base name (scope stripped).
func (b Binaries) Normalize(packageName string) []Binary {
	if b.IsZero() {
		return nil
	}

	if b.Unnamed != "" {
		return []Binary{{
			Name: baseName(packageName),
			Path: cleanBinPath(b.Unnamed),
		}}
	}

	bins := make([]Binary, 0, len(b.Named))
	for name, path := range b.Named {
		bins = append(bins, Binary{Name: name, Path: cleanBinPath(path)})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Name < bins[j].Name })
	return bins
}

// baseName strips the scope from a package name, e.g. "@babel/cli" -> "cli".
func baseName(packageName string) string {
	if i := strings.LastIndex(packageName, "/"); i >= 0 {
		return packageName[i+1:]
	}
	return packageName
}

// cleanBinPath strips a leading "./" so bin paths join cleanly.
func cleanBinPath(p string) string {
	return strings.TrimPrefix(p, "./")
}
