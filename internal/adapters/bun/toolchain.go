// Package bun drives the bun bundler against a materialized tree.
package bun

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
	"go.trai.ch/zerr"
)

// Toolchain implements ports.Toolchain by shelling out to the bun binary.
type Toolchain struct {
	logger ports.Logger

	// binary is the bun executable name, overridable for tests.
	binary string
}

// NewToolchain creates a new Toolchain.
func NewToolchain(logger ports.Logger) *Toolchain {
	return &Toolchain{logger: logger, binary: "bun"}
}

// Build bundles the entry point against the tree's node_modules. The output
// is written to a temporary file first and renamed into place, so a failed
// or interrupted build never clobbers a previous artifact.
func (t *Toolchain) Build(ctx context.Context, tree *domain.MaterializedTree, opts ports.BuildOptions) error {
	if tree.State != domain.TreeReady {
		err := zerr.With(domain.ErrTreeNotReady, "state", tree.State.String())
		return zerr.With(err, "root", tree.Root)
	}

	tmp, err := os.CreateTemp(filepath.Dir(opts.OutputPath), ".burrow-build-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrToolchainFailed.Error())
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	args := buildArgs(opts, tmpPath)

	t.logger.Info(fmt.Sprintf("running %s %s", t.binary, strings.Join(args, " ")))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary, args...)
	cmd.Dir = tree.Root
	cmd.Stderr = &stderr

	if runErr := cmd.Run(); runErr != nil {
		err := zerr.Wrap(runErr, domain.ErrToolchainFailed.Error())
		err = zerr.With(err, "entry_point", opts.EntryPoint)
		return zerr.With(err, "stderr", strings.TrimSpace(stderr.String()))
	}

	if opts.Compile {
		if chmodErr := os.Chmod(tmpPath, domain.ExecPerm); chmodErr != nil {
			return zerr.Wrap(chmodErr, domain.ErrToolchainFailed.Error())
		}
	}

	if renameErr := os.Rename(tmpPath, opts.OutputPath); renameErr != nil {
		return zerr.Wrap(renameErr, domain.ErrToolchainFailed.Error())
	}

	return nil
}

// buildArgs assembles the bun build argument list.
func buildArgs(opts ports.BuildOptions, outfile string) []string {
	args := []string{"build", opts.EntryPoint, "--outfile", outfile}
	if opts.Minify {
		args = append(args, "--minify")
	}
	if opts.Sourcemap {
		args = append(args, "--sourcemap")
	}
	if opts.Bytecode {
		args = append(args, "--bytecode")
	}
	if opts.Compile {
		args = append(args, "--compile")
	}
	return args
}
