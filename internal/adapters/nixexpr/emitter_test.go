package nixexpr_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/burrow/internal/adapters/lockfile"
	"go.trai.ch/burrow/internal/adapters/nixexpr"
	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/engine/resolve"
)

type noopLogger struct{}

func (noopLogger) Info(string) {}

func (noopLogger) Warn(string) {}

func (noopLogger) Error(error) {}

func fullManifest() *domain.Manifest {
	return &domain.Manifest{
		Fingerprint: "xxh64:00000000deadbeef",
		Entries: []domain.ManifestEntry{
			{
				ID:      "@alloc/quick-lru@5.2.0",
				Name:    "@alloc/quick-lru",
				Version: "5.2.0",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/@alloc/quick-lru/-/quick-lru-5.2.0.tgz",
					Integrity: "sha512-qqq",
				},
				InstallPaths: []string{"@alloc/quick-lru"},
			},
			{
				ID:      "b@github:o/b#abc123",
				Name:    "b",
				Version: "github:o/b#abc123",
				Descriptor: domain.FetchDescriptor{
					Kind:       domain.FetchGit,
					URL:        "https://github.com/o/b",
					Revision:   "abc123",
					ArchiveURL: "https://github.com/o/b/archive/abc123.tar.gz",
					Integrity:  "sha256-ggg",
				},
				InstallPaths: []string{"b"},
				Binaries:     []domain.Binary{{Name: "b", Path: "bin/b.js"}},
			},
			{
				ID:      "legacy@1.0.0",
				Name:    "legacy",
				Version: "1.0.0",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/legacy/-/legacy-1.0.0.tgz",
					Integrity: "sha512-leg",
				},
				Dependencies: []string{"lodash@4.17.21"},
				InstallPaths: []string{"legacy"},
			},
			{
				ID:      "lodash@4.17.21",
				Name:    "lodash",
				Version: "4.17.21",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz",
					Integrity: "sha512-lll",
				},
				InstallPaths: []string{"legacy/node_modules/lodash", "lodash"},
			},
			{
				ID:      "my-app@workspace:packages/app",
				Name:    "my-app",
				Version: "workspace:packages/app",
				Descriptor: domain.FetchDescriptor{
					Kind: domain.FetchLocalPath,
					Path: "packages/app",
				},
				InstallPaths: []string{"my-app"},
			},
		},
		Skipped: []domain.SkipEntry{
			{Name: "fsevents", RequestedBy: "chokidar@3.6.0", Kind: domain.EdgeOptional},
		},
	}
}

func TestEmitter_Emit_Golden(t *testing.T) {
	out, err := nixexpr.NewEmitter().Emit(fullManifest())
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "emitter_full", out)
}

func TestEmitter_Emit_ByteStable(t *testing.T) {
	e := nixexpr.NewEmitter()
	first, err := e.Emit(fullManifest())
	require.NoError(t, err)
	second, err := e.Emit(fullManifest())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmitter_Emit_MissingIntegrityFails(t *testing.T) {
	m := &domain.Manifest{
		Fingerprint: "xxh64:0000000000000000",
		Entries: []domain.ManifestEntry{
			{
				ID:      "x@1.0.0",
				Name:    "x",
				Version: "1.0.0",
				Descriptor: domain.FetchDescriptor{
					Kind: domain.FetchRegistry,
					URL:  "https://registry.npmjs.org/x/-/x-1.0.0.tgz",
				},
				InstallPaths: []string{"x"},
			},
		},
	}

	_, err := nixexpr.NewEmitter().Emit(m)
	require.ErrorContains(t, err, domain.ErrEmissionFailed.Error())
	require.ErrorContains(t, err, domain.ErrMissingIntegrity.Error())
}

func TestEmitter_Emit_GitWithoutArchiveHost(t *testing.T) {
	m := &domain.Manifest{
		Fingerprint: "xxh64:0000000000000000",
		Entries: []domain.ManifestEntry{{
			ID:      "lib@git+ssh://git@git.example.com/lib.git#0a1b2c",
			Name:    "lib",
			Version: "git+ssh://git@git.example.com/lib.git#0a1b2c",
			Descriptor: domain.FetchDescriptor{
				Kind:     domain.FetchGit,
				URL:      "https://git.example.com/lib.git",
				Revision: "0a1b2c",
			},
			InstallPaths: []string{"lib"},
		}},
	}

	out, err := nixexpr.NewEmitter().Emit(m)
	require.NoError(t, err)

	// No revision archive means no hash to compute up front; the entry is
	// emitted with an empty hash that the first build reports.
	assert.Contains(t, string(out), "src = fetchgit {")
	assert.Contains(t, string(out), `rev = "0a1b2c";`)
	assert.Contains(t, string(out), `hash = "";`)
	assert.Contains(t, string(out), "cp -r ${packages.")
}

const gitLockfile = `{
  // demo project with two git dependencies
  "lockfileVersion": 1,
  "workspaces": {
    "": {
      "name": "demo",
      "dependencies": {
        "b": "github:o/b",
        "lib": "git+ssh://git@git.example.com/lib.git",
      },
    },
  },
  "packages": {
    "b": ["b@github:o/b#abc123", {}, "abc123"],
    "lib": ["lib@git+ssh://git@git.example.com/lib.git#0a1b2c", {}, "0a1b2c"],
  },
}`

func TestEmitter_Emit_GitLockfile(t *testing.T) {
	g, err := lockfile.NewParser(noopLogger{}).Parse([]byte(gitLockfile))
	require.NoError(t, err)

	m, err := resolve.NewResolver("").Resolve(g)
	require.NoError(t, err)

	// Archive-backed entries are hashed at prefetch time; fill the hash the
	// way the prefetcher would.
	for i := range m.Entries {
		if m.Entries[i].Descriptor.ArchiveURL != "" {
			m.Entries[i].Descriptor.Integrity = "sha256-ggg"
		}
	}

	out, err := nixexpr.NewEmitter().Emit(m)
	require.NoError(t, err)

	assert.Contains(t, string(out), `url = "https://github.com/o/b/archive/abc123.tar.gz";`)
	assert.Contains(t, string(out), `url = "https://git.example.com/lib.git";`)
	assert.Contains(t, string(out), `hash = "";`)
}

func TestEmitter_Emit_EscapesNixStrings(t *testing.T) {
	m := &domain.Manifest{
		Fingerprint: "xxh64:0000000000000000",
		Entries: []domain.ManifestEntry{
			{
				ID:      `odd"name@1.0.0`,
				Name:    `odd"name`,
				Version: "1.0.0",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/x/-/x-${1}.tgz",
					Integrity: "sha512-xxx",
				},
				InstallPaths: []string{"odd"},
			},
		},
	}

	out, err := nixexpr.NewEmitter().Emit(m)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"odd\"name@1.0.0"`)
	assert.Contains(t, string(out), `x-\${1}.tgz`)
}
