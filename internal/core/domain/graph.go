package domain

import (
	"sort"
	"strings"

	"go.trai.ch/zerr"
)

// SupportedLockfileVersions are the bun lockfile format versions this
// converter understands.
var SupportedLockfileVersions = []int{0, 1}

// UnresolvedEdge records an optional or peer edge whose target is absent
// from the lockfile. These are preserved so the emitter can record explicit
// skip entries instead of silently dropping them.
type UnresolvedEdge struct {
	// From is the install key of the package (or workspace path) that
	// requested the dependency.
	From string
	Edge Edge
}

// Graph is the normalized dependency graph decoded from a lockfile: a node
// table keyed by install key plus explicit edge lists. It is deliberately
// not a recursive structure; bun permits mutually recursive peer and
// optional edges, so all traversal is table-driven.
type Graph struct {
	version     int
	fingerprint uint64

	packages   map[string]*Package
	workspaces map[string]*Workspace

	// resolved maps an install key (or workspace path prefixed with
	// "workspace:") to the sorted install keys its edges resolve to.
	resolved   map[string][]string
	unresolved []UnresolvedEdge
	validated  bool
}

// NewGraph creates an empty graph for the given lockfile version.
func NewGraph(version int) *Graph {
	return &Graph{
		version:    version,
		packages:   make(map[string]*Package),
		workspaces: make(map[string]*Workspace),
	}
}

// Version returns the lockfile format version the graph was decoded from.
func (g *Graph) Version() int { return g.version }

// SetFingerprint records the content hash of the raw lockfile bytes.
func (g *Graph) SetFingerprint(fp uint64) { g.fingerprint = fp }

// Fingerprint returns the content hash of the raw lockfile bytes.
func (g *Graph) Fingerprint() uint64 { return g.fingerprint }

// AddPackage adds a package node to the graph.
// It returns ErrDuplicatePackage if the install key is already taken.
func (g *Graph) AddPackage(p *Package) error {
	if _, exists := g.packages[p.Name]; exists {
		return zerr.With(ErrDuplicatePackage, "package", p.Name)
	}
	g.packages[p.Name] = p
	g.validated = false
	return nil
}

// AddWorkspace adds a workspace root to the graph.
// It returns ErrDuplicatePackage if the workspace path is already taken.
func (g *Graph) AddWorkspace(w *Workspace) error {
	if _, exists := g.workspaces[w.Path]; exists {
		return zerr.With(ErrDuplicatePackage, "workspace", w.Path)
	}
	g.workspaces[w.Path] = w
	g.validated = false
	return nil
}

// Package returns the package stored under the given install key.
func (g *Graph) Package(key string) (*Package, bool) {
	p, ok := g.packages[key]
	return p, ok
}

// Len returns the number of package nodes.
func (g *Graph) Len() int { return len(g.packages) }

// SortedPackages returns all package nodes in stable lexicographic order by
// (name, identifier). Map iteration order must never leak into output.
func (g *Graph) SortedPackages() []*Package {
	pkgs := make([]*Package, 0, len(g.packages))
	for _, p := range g.packages {
		pkgs = append(pkgs, p)
	}
	sort.Slice(pkgs, func(i, j int) bool {
		if pkgs[i].Name != pkgs[j].Name {
			return pkgs[i].Name < pkgs[j].Name
		}
		return pkgs[i].Identifier.Ref < pkgs[j].Identifier.Ref
	})
	return pkgs
}

// SortedWorkspaces returns all workspace roots sorted by path.
func (g *Graph) SortedWorkspaces() []*Workspace {
	wss := make([]*Workspace, 0, len(g.workspaces))
	for _, w := range g.workspaces {
		wss = append(wss, w)
	}
	sort.Slice(wss, func(i, j int) bool { return wss[i].Path < wss[j].Path })
	return wss
}

// ResolvedDeps returns the install keys the given package's edges resolve
// to, sorted. Validate must have been called first.
func (g *Graph) ResolvedDeps(key string) []string {
	return g.resolved[key]
}

// Unresolved returns the optional and peer edges whose targets are absent
// from the lockfile, sorted by (from, name) for deterministic reporting.
func (g *Graph) Unresolved() []UnresolvedEdge {
	return g.unresolved
}

// Validate resolves every edge in the graph. A non-optional edge that
// points to a package absent from the lockfile fails with
// ErrUnresolvedReference; optional and peer edges that dangle are recorded
// in Unresolved. It also classifies packages as dev or optional based on
// how they are reached from the workspace roots.
func (g *Graph) Validate() error {
	g.resolved = make(map[string][]string, len(g.packages)+len(g.workspaces))
	g.unresolved = nil

	for _, p := range g.SortedPackages() {
		if err := g.resolveEdges(p.Name, p.Name, p.Dependencies); err != nil {
			return err
		}
	}
	for _, w := range g.SortedWorkspaces() {
		if err := g.resolveEdges("workspace:"+w.Path, "", w.Dependencies); err != nil {
			return err
		}
	}

	sort.Slice(g.unresolved, func(i, j int) bool {
		if g.unresolved[i].From != g.unresolved[j].From {
			return g.unresolved[i].From < g.unresolved[j].From
		}
		return g.unresolved[i].Edge.Name < g.unresolved[j].Edge.Name
	})

	g.classifyReachability()
	g.validated = true
	return nil
}

// Validated reports whether Validate has run since the last mutation.
func (g *Graph) Validated() bool { return g.validated }

func (g *Graph) resolveEdges(recordKey, fromKey string, edges []Edge) error {
	targets := make([]string, 0, len(edges))
	for _, e := range edges {
		target, ok := g.lookupEdge(fromKey, e.Name)
		if !ok {
			if e.Kind.MayDangle() {
				g.unresolved = append(g.unresolved, UnresolvedEdge{From: recordKey, Edge: e})
				continue
			}
			err := zerr.With(ErrUnresolvedReference, "from", recordKey)
			err = zerr.With(err, "dependency", e.Name)
			return zerr.With(err, "kind", e.Kind.String())
		}
		targets = append(targets, target)
	}
	sort.Strings(targets)
	g.resolved[recordKey] = targets
	return nil
}

// lookupEdge finds the install key a dependency name resolves to, honoring
// bun's nested resolution scheme: from key "a/b", the name "c" is looked up
// as "a/b/c", then "a/c", then "c".
func (g *Graph) lookupEdge(fromKey, dep string) (string, bool) {
	prefix := fromKey
	for prefix != "" {
		candidate := prefix + "/" + dep
		if _, ok := g.packages[candidate]; ok {
			return candidate, true
		}
		i := strings.LastIndex(prefix, "/")
		if i < 0 {
			break
		}
		prefix = prefix[:i]
	}
	if _, ok := g.packages[dep]; ok {
		return dep, true
	}
	return "", false
}

// reachClass orders reachability strength: prod beats dev beats optional.
type reachClass uint8

const (
	reachProd reachClass = iota
	reachDev
	reachOptional
	reachNone
)

func edgeClass(k EdgeKind) reachClass {
	switch k {
	case EdgeDev:
		return reachDev
	case EdgeOptional, EdgeOptionalPeer:
		return reachOptional
	default:
		return reachProd
	}
}

// classifyReachability walks the graph from the workspace roots and marks
// each package with the strongest class it is reachable under. Packages
// never reached keep their lockfile-declared flags.
func (g *Graph) classifyReachability() {
	class := make(map[string]reachClass, len(g.packages))
	for key := range g.packages {
		class[key] = reachNone
	}

	var visit func(key string, c reachClass)
	visit = func(key string, c reachClass) {
		if c >= class[key] {
			return
		}
		class[key] = c
		p := g.packages[key]
		for _, e := range p.Dependencies {
			target, ok := g.lookupEdge(key, e.Name)
			if !ok {
				continue
			}
			next := c
			if ec := edgeClass(e.Kind); ec > next {
				next = ec
			}
			visit(target, next)
		}
	}

	for _, w := range g.SortedWorkspaces() {
		for _, e := range w.Dependencies {
			if target, ok := g.lookupEdge("", e.Name); ok {
				visit(target, edgeClass(e.Kind))
			}
		}
	}

	for key, c := range class {
		p := g.packages[key]
		switch c {
		case reachProd:
			p.Dev = false
			p.Optional = false
		case reachDev:
			p.Dev = true
			p.Optional = false
		case reachOptional:
			p.Optional = true
		case reachNone:
			// Unreached nodes keep their declared flags.
		}
	}
}
