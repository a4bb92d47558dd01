package commands

import (
	"github.com/spf13/cobra"
)

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the Uniweb CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.renderProperties(cmd, []Property{
				{"Version", a.build.Version},
				{"Commit", a.build.Commit},
				{"Built", a.build.Built},
			})
		},
	}
}
