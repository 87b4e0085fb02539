// Package app implements the application layer for burrow.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/burrow/internal/adapters/telemetry"
	"go.trai.ch/burrow/internal/build"
	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
	"go.trai.ch/burrow/internal/engine/resolve"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	parser       ports.LockfileParser
	emitter      ports.Emitter
	prefetcher   ports.Prefetcher
	materializer ports.Materializer
	toolchain    ports.Toolchain
	templates    ports.TemplateChecker
	watcher      ports.Watcher
	logger       ports.Logger
	tracer       trace.Tracer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	parser ports.LockfileParser,
	emitter ports.Emitter,
	prefetcher ports.Prefetcher,
	materializer ports.Materializer,
	toolchain ports.Toolchain,
	templates ports.TemplateChecker,
	watcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		parser:       parser,
		emitter:      emitter,
		prefetcher:   prefetcher,
		materializer: materializer,
		toolchain:    toolchain,
		templates:    templates,
		watcher:      watcher,
		logger:       log,
		tracer:       otel.Tracer(telemetry.InstrumentationName),
	}
}

// ConvertOptions configuration for the Convert method.
type ConvertOptions struct {
	// LockfilePath overrides the lockfile location; empty means
	// <root>/bun.lock.
	LockfilePath string
	// OutputPath overrides the expression location; empty means
	// <root>/burrow.nix, "-" writes to stdout.
	OutputPath string
	// NoPrefetch skips filling in missing integrity hashes.
	NoPrefetch bool
	// Watch keeps converting whenever the lockfile changes.
	Watch bool
}

// Convert turns the lockfile into a Nix expression. With Watch set it
// re-converts on every lockfile change until the context is cancelled;
// individual failed conversions are logged, not fatal, since a transient
// half-written lockfile should not kill the watch loop.
func (a *App) Convert(ctx context.Context, opts ConvertOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	lockfile := opts.LockfilePath
	if lockfile == "" {
		lockfile = filepath.Join(cfg.Root, domain.LockfileName)
	}

	if err := a.convertOnce(ctx, cfg, lockfile, opts); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	if err := a.watcher.Start(ctx, lockfile); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	a.logger.Info("watching " + lockfile)
	for event := range a.watcher.Events() {
		a.logger.Info("lockfile changed: " + event.Path)
		if err := a.convertOnce(ctx, cfg, lockfile, opts); err != nil {
			a.logger.Error(err)
		}
	}

	return ctx.Err()
}

func (a *App) convertOnce(ctx context.Context, cfg *domain.Config, lockfile string, opts ConvertOptions) error {
	manifest, err := a.deriveManifest(ctx, cfg, lockfile, !opts.NoPrefetch)
	if err != nil {
		return err
	}

	var rendered []byte
	err = a.phase(ctx, "emit", func(context.Context) error {
		var emitErr error
		rendered, emitErr = a.emitter.Emit(manifest)
		return emitErr
	})
	if err != nil {
		return err
	}

	if opts.OutputPath == "-" {
		_, err := os.Stdout.Write(rendered)
		return err
	}

	output := opts.OutputPath
	if output == "" {
		output = filepath.Join(cfg.Root, domain.ManifestFileName)
	}
	if err := writeAtomic(output, rendered); err != nil {
		return err
	}

	a.logger.Info(fmt.Sprintf("wrote %s (%d packages, %d skipped)", output, len(manifest.Entries), len(manifest.Skipped)))
	return nil
}

// InstallOptions configuration for the Install method.
type InstallOptions struct {
	// LockfilePath overrides the lockfile location.
	LockfilePath string
	// DestDir overrides the tree destination; empty means
	// <root>/node_modules.
	DestDir string
}

// Install materializes the dependency tree described by the lockfile.
func (a *App) Install(ctx context.Context, opts InstallOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	lockfile := opts.LockfilePath
	if lockfile == "" {
		lockfile = filepath.Join(cfg.Root, domain.LockfileName)
	}

	manifest, err := a.deriveManifest(ctx, cfg, lockfile, true)
	if err != nil {
		return err
	}

	tree, err := a.materialize(ctx, cfg, manifest, opts.DestDir)
	if err != nil {
		return err
	}

	a.logger.Info(fmt.Sprintf("installed %d packages at %s", len(manifest.Entries), tree.ModulesDir))
	return nil
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// LockfilePath overrides the lockfile location.
	LockfilePath string
	// EntryPoint is the file the bundle is built from.
	EntryPoint string
	// OutputPath is where the artifact is placed.
	OutputPath string

	Minify    bool
	Sourcemap bool
	Bytecode  bool
	Compile   bool
}

// Build materializes the tree and bundles the entry point against it.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	lockfile := opts.LockfilePath
	if lockfile == "" {
		lockfile = filepath.Join(cfg.Root, domain.LockfileName)
	}

	manifest, err := a.deriveManifest(ctx, cfg, lockfile, true)
	if err != nil {
		return err
	}

	tree, err := a.materialize(ctx, cfg, manifest, "")
	if err != nil {
		return err
	}

	return a.phase(ctx, "build", func(ctx context.Context) error {
		return a.toolchain.Build(ctx, tree, ports.BuildOptions{
			EntryPoint: opts.EntryPoint,
			OutputPath: opts.OutputPath,
			Minify:     opts.Minify,
			Sourcemap:  opts.Sourcemap,
			Bytecode:   opts.Bytecode,
			Compile:    opts.Compile,
		})
	})
}

// CheckTemplates verifies every shipped template pins the running version.
// Every mismatch is logged before the check fails.
func (a *App) CheckTemplates(_ context.Context) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	templatesDir := cfg.TemplatesDir
	if !filepath.IsAbs(templatesDir) {
		templatesDir = filepath.Join(cfg.Root, templatesDir)
	}

	mismatches, err := a.templates.Check(templatesDir, build.Version)
	if err != nil {
		return err
	}
	if len(mismatches) == 0 {
		a.logger.Info("all templates pin v" + build.Version)
		return nil
	}

	for _, mm := range mismatches {
		a.logger.Warn(fmt.Sprintf("template %s pins v%s, expected v%s", mm.Template, mm.Declared, mm.Expected))
	}
	return zerr.With(domain.ErrTemplateVersionMismatch, "mismatches", len(mismatches))
}

// deriveManifest runs the parse, resolve and prefetch phases. Install and
// build re-derive the manifest from the lockfile rather than parsing the
// emitted expression back; the derivation is pure, so both paths agree.
func (a *App) deriveManifest(ctx context.Context, cfg *domain.Config, lockfile string, prefetch bool) (*domain.Manifest, error) {
	// #nosec G304 -- lockfile path comes from config/flags
	data, err := os.ReadFile(lockfile)
	if err != nil {
		err = zerr.Wrap(err, domain.ErrLockfileReadFailed.Error())
		return nil, zerr.With(err, "path", lockfile)
	}

	var graph *domain.Graph
	err = a.phase(ctx, "parse", func(context.Context) error {
		var parseErr error
		graph, parseErr = a.parser.Parse(data)
		return parseErr
	})
	if err != nil {
		return nil, err
	}

	var manifest *domain.Manifest
	err = a.phase(ctx, "resolve", func(context.Context) error {
		var resolveErr error
		manifest, resolveErr = resolve.NewResolver(cfg.Registry).Resolve(graph)
		return resolveErr
	})
	if err != nil {
		return nil, err
	}

	if prefetch {
		err = a.phase(ctx, "prefetch", func(ctx context.Context) error {
			return a.prefetcher.Prefetch(ctx, manifest)
		})
		if err != nil {
			return nil, err
		}
	}

	return manifest, nil
}

func (a *App) materialize(ctx context.Context, cfg *domain.Config, manifest *domain.Manifest, destDir string) (*domain.MaterializedTree, error) {
	if destDir == "" {
		destDir = filepath.Join(cfg.Root, domain.ModulesDirName)
	}

	var tree *domain.MaterializedTree
	err := a.phase(ctx, "materialize", func(ctx context.Context) error {
		var matErr error
		tree, matErr = a.materializer.Materialize(ctx, manifest, ports.MaterializeOptions{
			StoreDir:      cfg.StoreDir,
			DestDir:       destDir,
			WorkspaceRoot: cfg.Root,
		})
		return matErr
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (a *App) loadConfig() (*domain.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return a.configLoader.Load(cwd)
}

// phase runs fn inside a named span, recording failure on it.
func (a *App) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := a.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// writeAtomic writes data to path via a temp file and rename so readers
// never observe a partially written expression.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}

	tmp, err := os.CreateTemp(dir, ".burrow-out-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	if err := os.Chmod(tmpPath, domain.FilePerm); err != nil {
		os.Remove(tmpPath)
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	return nil
}
