package tree_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/burrow/internal/adapters/tree"
	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
)

type noopLogger struct{}

func (noopLogger) Info(string) {}
func (noopLogger) Warn(string) {}
func (noopLogger) Error(error) {}

// seedStore creates unpacked content for an entry ID with the given files.
func seedStore(t *testing.T, storeDir, id string, files map[string]string) {
	t.Helper()
	dir := domain.StorePath(storeDir, id)
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func workspaceManifest() *domain.Manifest {
	return &domain.Manifest{
		Fingerprint: "xxh64:0000000000000000",
		Entries: []domain.ManifestEntry{
			{
				ID:      "esbuild@0.20.0",
				Name:    "esbuild",
				Version: "0.20.0",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/esbuild/-/esbuild-0.20.0.tgz",
					Integrity: "sha512-eee",
				},
				InstallPaths: []string{"esbuild"},
				Binaries:     []domain.Binary{{Name: "esbuild", Path: "bin/esbuild"}},
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
	}
}

func TestMaterializer_Materialize(t *testing.T) {
	root := t.TempDir()
	storeDir := filepath.Join(root, "store")
	workspace := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "packages", "app"), 0o750))

	seedStore(t, storeDir, "esbuild@0.20.0", map[string]string{
		"package.json": `{"name":"esbuild"}`,
		"bin/esbuild":  "#!/usr/bin/env node\n",
	})
	seedStore(t, storeDir, "lodash@4.17.21", map[string]string{
		"package.json": `{"name":"lodash"}`,
	})

	destDir := filepath.Join(workspace, "node_modules")
	result, err := tree.NewMaterializer(noopLogger{}).Materialize(context.Background(), workspaceManifest(), ports.MaterializeOptions{
		StoreDir:      storeDir,
		DestDir:       destDir,
		WorkspaceRoot: workspace,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TreeReady, result.State)
	assert.Equal(t, destDir, result.ModulesDir)

	assert.FileExists(t, filepath.Join(destDir, "esbuild", "package.json"))
	assert.FileExists(t, filepath.Join(destDir, "lodash", "package.json"))
	assert.FileExists(t, filepath.Join(destDir, "legacy", "node_modules", "lodash", "package.json"))

	target, err := os.Readlink(filepath.Join(destDir, "my-app"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workspace, "packages", "app"), target)

	binTarget, err := os.Readlink(filepath.Join(destDir, ".bin", "esbuild"))
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("../esbuild/bin/esbuild"), binTarget)
}

func TestMaterializer_Materialize_ReplacesExistingTree(t *testing.T) {
	root := t.TempDir()
	storeDir := filepath.Join(root, "store")
	seedStore(t, storeDir, "lodash@4.17.21", map[string]string{"package.json": "{}"})

	destDir := filepath.Join(root, "node_modules")
	require.NoError(t, os.MkdirAll(destDir, 0o750))
	stale := filepath.Join(destDir, "stale-package")
	require.NoError(t, os.MkdirAll(stale, 0o750))

	manifest := &domain.Manifest{
		Entries: []domain.ManifestEntry{{
			ID:   "lodash@4.17.21",
			Name: "lodash",
			Descriptor: domain.FetchDescriptor{
				Kind:      domain.FetchRegistry,
				URL:       "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz",
				Integrity: "sha512-lll",
			},
			InstallPaths: []string{"lodash"},
		}},
	}

	_, err := tree.NewMaterializer(noopLogger{}).Materialize(context.Background(), manifest, ports.MaterializeOptions{
		StoreDir:      storeDir,
		DestDir:       destDir,
		WorkspaceRoot: root,
	})
	require.NoError(t, err)

	assert.NoDirExists(t, stale)
	assert.FileExists(t, filepath.Join(destDir, "lodash", "package.json"))
}

func TestMaterializer_Materialize_MissingStoreContent(t *testing.T) {
	root := t.TempDir()
	destDir := filepath.Join(root, "node_modules")

	// An existing tree must survive a failed run untouched.
	sentinel := filepath.Join(destDir, "keep", "package.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(sentinel), 0o750))
	require.NoError(t, os.WriteFile(sentinel, []byte("{}"), 0o644))

	manifest := &domain.Manifest{
		Entries: []domain.ManifestEntry{{
			ID:   "missing@1.0.0",
			Name: "missing",
			Descriptor: domain.FetchDescriptor{
				Kind:      domain.FetchRegistry,
				URL:       "https://registry.npmjs.org/missing/-/missing-1.0.0.tgz",
				Integrity: "sha512-mmm",
			},
			InstallPaths: []string{"missing"},
		}},
	}

	_, err := tree.NewMaterializer(noopLogger{}).Materialize(context.Background(), manifest, ports.MaterializeOptions{
		StoreDir:      filepath.Join(root, "store"),
		DestDir:       destDir,
		WorkspaceRoot: root,
	})
	require.ErrorContains(t, err, domain.ErrMissingFetchedContent.Error())

	assert.FileExists(t, sentinel)
}

func TestMaterializer_Materialize_BinaryConflict(t *testing.T) {
	root := t.TempDir()
	storeDir := filepath.Join(root, "store")
	seedStore(t, storeDir, "a@1.0.0", map[string]string{"bin/tool": "a"})
	seedStore(t, storeDir, "b@1.0.0", map[string]string{"bin/tool": "b"})

	manifest := &domain.Manifest{
		Entries: []domain.ManifestEntry{
			{
				ID:   "a@1.0.0",
				Name: "a",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/a/-/a-1.0.0.tgz",
					Integrity: "sha512-aaa",
				},
				InstallPaths: []string{"a"},
				Binaries:     []domain.Binary{{Name: "tool", Path: "bin/tool"}},
			},
			{
				ID:   "b@1.0.0",
				Name: "b",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/b/-/b-1.0.0.tgz",
					Integrity: "sha512-bbb",
				},
				InstallPaths: []string{"b"},
				Binaries:     []domain.Binary{{Name: "tool", Path: "bin/tool"}},
			},
		},
	}

	destDir := filepath.Join(root, "node_modules")
	_, err := tree.NewMaterializer(noopLogger{}).Materialize(context.Background(), manifest, ports.MaterializeOptions{
		StoreDir:      storeDir,
		DestDir:       destDir,
		WorkspaceRoot: root,
	})
	require.ErrorContains(t, err, domain.ErrSymlinkConflict.Error())

	// Failure leaves no destination tree behind.
	assert.NoDirExists(t, destDir)
}

func TestMaterializer_Materialize_NestedInstallKeepsBinsLocal(t *testing.T) {
	root := t.TempDir()
	storeDir := filepath.Join(root, "store")
	seedStore(t, storeDir, "a@1.0.0", map[string]string{"bin/tool": "new"})
	seedStore(t, storeDir, "a@0.9.0", map[string]string{"bin/tool": "old"})
	seedStore(t, storeDir, "legacy@1.0.0", map[string]string{"package.json": "{}"})

	manifest := &domain.Manifest{
		Entries: []domain.ManifestEntry{
			{
				ID:   "a@0.9.0",
				Name: "a",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/a/-/a-0.9.0.tgz",
					Integrity: "sha512-old",
				},
				InstallPaths: []string{"legacy/node_modules/a"},
				Binaries:     []domain.Binary{{Name: "tool", Path: "bin/tool"}},
			},
			{
				ID:   "a@1.0.0",
				Name: "a",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/a/-/a-1.0.0.tgz",
					Integrity: "sha512-new",
				},
				InstallPaths: []string{"a"},
				Binaries:     []domain.Binary{{Name: "tool", Path: "bin/tool"}},
			},
			{
				ID:   "legacy@1.0.0",
				Name: "legacy",
				Descriptor: domain.FetchDescriptor{
					Kind:      domain.FetchRegistry,
					URL:       "https://registry.npmjs.org/legacy/-/legacy-1.0.0.tgz",
					Integrity: "sha512-leg",
				},
				InstallPaths: []string{"legacy"},
			},
		},
	}

	destDir := filepath.Join(root, "node_modules")
	_, err := tree.NewMaterializer(noopLogger{}).Materialize(context.Background(), manifest, ports.MaterializeOptions{
		StoreDir:      storeDir,
		DestDir:       destDir,
		WorkspaceRoot: root,
	})
	require.NoError(t, err)

	// Only the top-level resolution claims the .bin name.
	target, err := os.Readlink(filepath.Join(destDir, ".bin", "tool"))
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("../a/bin/tool"), target)
}
