package lockfile

import (
	"encoding/json"
	"sort"

	"go.trai.ch/burrow/internal/core/domain"
)

// lockfileDTO mirrors the top-level structure of a bun lockfile after JSONC
// standardization.
type lockfileDTO struct {
	LockfileVersion *int                         `json:"lockfileVersion"`
	Workspaces      map[string]workspaceDTO      `json:"workspaces"`
	Packages        map[string][]json.RawMessage `json:"packages"`
}

// workspaceDTO is one workspace declaration, keyed by its path relative to
// the workspace root ("" for the root package).
type workspaceDTO struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// metadataDTO is the metadata object embedded in registry, git, and tarball
// package tuples.
type metadataDTO struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	OptionalPeers        []string          `json:"optionalPeers"`
	Bin                  json.RawMessage   `json:"bin"`
}

// binaries decodes the bin field, which is either a single path string or a
// map of binary names to paths.
func (m metadataDTO) binaries() (domain.Binaries, error) {
	if len(m.Bin) == 0 {
		return domain.Binaries{}, nil
	}

	var single string
	if err := json.Unmarshal(m.Bin, &single); err == nil {
		return domain.Binaries{Unnamed: single}, nil
	}

	var named map[string]string
	if err := json.Unmarshal(m.Bin, &named); err != nil {
		return domain.Binaries{}, err
	}
	return domain.Binaries{Named: named}, nil
}

// edges flattens the metadata dependency maps into a deterministic edge
// list. Names listed in optionalPeers override their peer qualifier.
func (m metadataDTO) edges() []domain.Edge {
	optionalPeers := make(map[string]bool, len(m.OptionalPeers))
	for _, name := range m.OptionalPeers {
		optionalPeers[name] = true
	}

	var out []domain.Edge
	out = appendEdges(out, m.Dependencies, domain.EdgeProd)
	out = appendEdges(out, m.DevDependencies, domain.EdgeDev)
	out = appendEdges(out, m.OptionalDependencies, domain.EdgeOptional)

	peerNames := sortedKeys(m.PeerDependencies)
	for _, name := range peerNames {
		kind := domain.EdgePeer
		if optionalPeers[name] {
			kind = domain.EdgeOptionalPeer
		}
		out = append(out, domain.Edge{Name: name, Spec: m.PeerDependencies[name], Kind: kind})
	}

	return out
}

// edges flattens a workspace's dependency maps into a deterministic edge list.
func (w workspaceDTO) edges() []domain.Edge {
	var out []domain.Edge
	out = appendEdges(out, w.Dependencies, domain.EdgeProd)
	out = appendEdges(out, w.DevDependencies, domain.EdgeDev)
	out = appendEdges(out, w.OptionalDependencies, domain.EdgeOptional)
	out = appendEdges(out, w.PeerDependencies, domain.EdgePeer)
	return out
}

func appendEdges(out []domain.Edge, deps map[string]string, kind domain.EdgeKind) []domain.Edge {
	for _, name := range sortedKeys(deps) {
		out = append(out, domain.Edge{Name: name, Spec: deps[name], Kind: kind})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
