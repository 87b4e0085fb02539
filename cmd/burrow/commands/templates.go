package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage project templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify templates pin the running burrow version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.CheckTemplates(cmd.Context())
		},
	})

	return cmd
}
