package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/burrow/internal/app"
)

func (c *CLI) newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the bun lockfile into a Nix expression",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lockfile, _ := cmd.Flags().GetString("lockfile")
			output, _ := cmd.Flags().GetString("output")
			noPrefetch, _ := cmd.Flags().GetBool("no-prefetch")
			watch, _ := cmd.Flags().GetBool("watch")

			return c.app.Convert(cmd.Context(), app.ConvertOptions{
				LockfilePath: lockfile,
				OutputPath:   output,
				NoPrefetch:   noPrefetch,
				Watch:        watch,
			})
		},
	}
	cmd.Flags().StringP("lockfile", "l", "", "Path to the bun lockfile (default: <root>/bun.lock)")
	cmd.Flags().StringP("output", "o", "", "Path of the emitted expression; - writes to stdout (default: <root>/burrow.nix)")
	cmd.Flags().Bool("no-prefetch", false, "Skip downloading content to fill in missing hashes")
	cmd.Flags().BoolP("watch", "w", false, "Re-convert whenever the lockfile changes")
	return cmd
}
