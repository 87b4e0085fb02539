package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/burrow/internal/app"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Materialize node_modules from the lockfile and content store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lockfile, _ := cmd.Flags().GetString("lockfile")
			dest, _ := cmd.Flags().GetString("dest")

			return c.app.Install(cmd.Context(), app.InstallOptions{
				LockfilePath: lockfile,
				DestDir:      dest,
			})
		},
	}
	cmd.Flags().StringP("lockfile", "l", "", "Path to the bun lockfile (default: <root>/bun.lock)")
	cmd.Flags().StringP("dest", "d", "", "Tree destination (default: <root>/node_modules)")
	return cmd
}
