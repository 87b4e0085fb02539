package ports

import (
	"context"

	"go.trai.ch/burrow/internal/core/domain"
)

// BuildOptions configures a toolchain invocation. Each option is an
// independently toggleable named flag.
type BuildOptions struct {
	// EntryPoint is the file the bundle is built from.
	EntryPoint string
	// OutputPath is where the final artifact is placed.
	OutputPath string
	// Minify strips identifiers and whitespace from the output.
	Minify bool
	// Sourcemap embeds a debug mapping in the output.
	Sourcemap bool
	// Bytecode precompiles the output to bytecode.
	Bytecode bool
	// Compile produces a standalone self-contained binary.
	Compile bool
}

// Toolchain invokes the target compiler/bundler against a materialized tree.
//
//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// Build produces one artifact at opts.OutputPath. The artifact appears
	// atomically: either it exists complete or not at all. A non-zero exit
	// from the underlying toolchain is surfaced verbatim.
	Build(ctx context.Context, tree *domain.MaterializedTree, opts BuildOptions) error
}
