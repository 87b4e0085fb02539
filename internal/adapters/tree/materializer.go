// Package tree materializes a manifest into a node_modules directory on the
// local filesystem. It is the non-Nix twin of the emitted expression's
// nodeModules derivation: same layout, same link structure, produced
// directly from fetched store content.
package tree

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// placementConcurrency caps parallel package placements.
const placementConcurrency = 8

// Materializer implements ports.Materializer.
type Materializer struct {
	logger ports.Logger
}

// NewMaterializer creates a new Materializer.
func NewMaterializer(logger ports.Logger) *Materializer {
	return &Materializer{logger: logger}
}

// Materialize builds the node_modules tree for the manifest. The tree is
// assembled in a staging directory and moved into place only once complete,
// so a failed run never leaves a partial tree at the destination. The tree
// advances through unpacked, modules-loaded and ready states; bin links are
// created last, after every package is in place.
func (m *Materializer) Materialize(ctx context.Context, manifest *domain.Manifest, opts ports.MaterializeOptions) (*domain.MaterializedTree, error) {
	staging, err := os.MkdirTemp(filepath.Dir(opts.DestDir), ".burrow-stage-*")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrMaterializationFailed.Error())
	}
	defer os.RemoveAll(staging)

	modulesDir := filepath.Join(staging, domain.ModulesDirName)
	if err := os.MkdirAll(filepath.Join(modulesDir, domain.BinDirName), domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrMaterializationFailed.Error())
	}

	tree := &domain.MaterializedTree{
		Root:       staging,
		ModulesDir: modulesDir,
		State:      domain.TreeUnpacked,
	}

	if err := m.checkStore(manifest, opts.StoreDir); err != nil {
		return nil, err
	}

	if err := m.placePackages(ctx, manifest, tree, opts); err != nil {
		return nil, err
	}
	tree.State = domain.TreeModulesLoaded

	if err := m.linkBinaries(manifest, tree); err != nil {
		return nil, err
	}

	if err := swapIn(modulesDir, opts.DestDir, filepath.Join(staging, "previous")); err != nil {
		return nil, err
	}

	tree.Root = filepath.Dir(opts.DestDir)
	tree.ModulesDir = opts.DestDir
	tree.State = domain.TreeReady
	return tree, nil
}

// swapIn replaces dest with the staged tree. The previous tree is renamed
// aside first and restored when the final rename fails, so dest holds
// either the old tree or the new one, never neither. The backup path lives
// inside the staging directory and is removed with it.
func swapIn(staged, dest, backup string) error {
	hadPrevious := true
	if err := os.Rename(dest, backup); err != nil {
		if !os.IsNotExist(err) {
			return zerr.Wrap(err, domain.ErrMaterializationFailed.Error())
		}
		hadPrevious = false
	}

	if err := os.Rename(staged, dest); err != nil {
		wrapped := zerr.Wrap(err, domain.ErrMaterializationFailed.Error())
		if hadPrevious {
			if restoreErr := os.Rename(backup, dest); restoreErr != nil {
				wrapped = zerr.With(wrapped, "restore_error", restoreErr.Error())
			}
		}
		return wrapped
	}

	return nil
}

// checkStore verifies every fetched entry has content in the store before
// any filesystem mutation happens.
func (m *Materializer) checkStore(manifest *domain.Manifest, storeDir string) error {
	for i := range manifest.Entries {
		entry := &manifest.Entries[i]
		if entry.Descriptor.Kind == domain.FetchLocalPath {
			continue
		}
		dir := domain.StorePath(storeDir, entry.ID)
		if _, err := os.Stat(dir); err != nil {
			wrapped := zerr.With(domain.ErrMissingFetchedContent, "id", entry.ID)
			return zerr.With(wrapped, "store_path", dir)
		}
	}
	return nil
}

// placePackages copies or links every entry at each of its install paths.
// Placements are independent of each other, so they run concurrently.
func (m *Materializer) placePackages(ctx context.Context, manifest *domain.Manifest, tree *domain.MaterializedTree, opts ports.MaterializeOptions) error {
	// Parent directories are created up front to avoid racy MkdirAll calls
	// inside the group.
	for i := range manifest.Entries {
		for _, install := range manifest.Entries[i].InstallPaths {
			parent := filepath.Dir(filepath.Join(tree.ModulesDir, filepath.FromSlash(install)))
			if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
				return zerr.Wrap(err, domain.ErrMaterializationFailed.Error())
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(placementConcurrency)

	for i := range manifest.Entries {
		entry := &manifest.Entries[i]
		for _, install := range entry.InstallPaths {
			dest := filepath.Join(tree.ModulesDir, filepath.FromSlash(install))
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return m.placeOne(entry, dest, opts)
			})
		}
	}

	if err := g.Wait(); err != nil {
		return zerr.Wrap(err, domain.ErrMaterializationFailed.Error())
	}
	return nil
}

func (m *Materializer) placeOne(entry *domain.ManifestEntry, dest string, opts ports.MaterializeOptions) error {
	if entry.Descriptor.Kind == domain.FetchLocalPath {
		target := filepath.Join(opts.WorkspaceRoot, filepath.FromSlash(entry.Descriptor.Path))
		if err := os.Symlink(target, dest); err != nil {
			return zerr.With(zerr.Wrap(err, "workspace link failed"), "id", entry.ID)
		}
		return nil
	}

	src := domain.StorePath(opts.StoreDir, entry.ID)
	if err := copyDir(src, dest); err != nil {
		return zerr.With(err, "id", entry.ID)
	}
	return nil
}

// linkBinaries populates node_modules/.bin. Links are created in sorted
// order so that a name conflict always reports the same pair regardless of
// placement timing.
func (m *Materializer) linkBinaries(manifest *domain.Manifest, tree *domain.MaterializedTree) error {
	type claim struct {
		binName string
		relPath string
		owner   string
	}

	var claims []claim
	for i := range manifest.Entries {
		entry := &manifest.Entries[i]
		for _, install := range entry.InstallPaths {
			if strings.Contains(install, "/"+domain.ModulesDirName+"/") {
				// Nested resolutions keep their bins local to the nesting.
				continue
			}
			for _, bin := range entry.Binaries {
				claims = append(claims, claim{
					binName: bin.Name,
					relPath: "../" + install + "/" + bin.Path,
					owner:   entry.ID,
				})
			}
		}
	}

	sort.Slice(claims, func(i, j int) bool {
		if claims[i].binName != claims[j].binName {
			return claims[i].binName < claims[j].binName
		}
		return claims[i].owner < claims[j].owner
	})

	owners := make(map[string]string, len(claims))
	binDir := filepath.Join(tree.ModulesDir, domain.BinDirName)

	for _, c := range claims {
		if prev, taken := owners[c.binName]; taken {
			if prev == c.owner {
				continue
			}
			err := zerr.With(domain.ErrSymlinkConflict, "binary", c.binName)
			err = zerr.With(err, "claimed_by", prev)
			return zerr.With(err, "also_claimed_by", c.owner)
		}
		owners[c.binName] = c.owner

		link := filepath.Join(binDir, c.binName)
		if err := os.Symlink(filepath.FromSlash(c.relPath), link); err != nil {
			return zerr.Wrap(err, domain.ErrMaterializationFailed.Error())
		}
	}

	return nil
}
