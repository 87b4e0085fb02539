package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/burrow/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <entrypoint>",
		Short: "Materialize the tree and bundle an entry point with bun",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lockfile, _ := cmd.Flags().GetString("lockfile")
			output, _ := cmd.Flags().GetString("outfile")
			minify, _ := cmd.Flags().GetBool("minify")
			sourcemap, _ := cmd.Flags().GetBool("sourcemap")
			bytecode, _ := cmd.Flags().GetBool("bytecode")
			compile, _ := cmd.Flags().GetBool("compile")

			return c.app.Build(cmd.Context(), app.BuildOptions{
				LockfilePath: lockfile,
				EntryPoint:   args[0],
				OutputPath:   output,
				Minify:       minify,
				Sourcemap:    sourcemap,
				Bytecode:     bytecode,
				Compile:      compile,
			})
		},
	}
	cmd.Flags().StringP("lockfile", "l", "", "Path to the bun lockfile (default: <root>/bun.lock)")
	cmd.Flags().StringP("outfile", "o", "dist/app", "Artifact output path")
	cmd.Flags().Bool("minify", false, "Minify the output")
	cmd.Flags().Bool("sourcemap", false, "Embed a sourcemap")
	cmd.Flags().Bool("bytecode", false, "Precompile to bytecode")
	cmd.Flags().Bool("compile", false, "Produce a standalone executable")
	return cmd
}
