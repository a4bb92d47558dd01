package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/uniweb/internal/constants"
	"github.com/fivetwenty-io/uniweb/pkg/uniwebclient"
)

const tokenPreviewLength = 8

func (a *App) newTokenCommand() *cobra.Command {
	var (
		show bool
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Acquire an access token",
		Long:  "Authenticate with the configured credentials and display the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.apiClient(cmd)
			if err != nil {
				return err
			}

			token, err := uniwebclient.Authenticate(cmd.Context(), c)
			if err != nil {
				return err
			}

			if raw {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)

				return err
			}

			display := token
			if !show {
				display = maskToken(token)
			}

			return a.renderProperties(cmd, []Property{
				{"instanceURL", c.InstanceURL()},
				{"accessToken", display},
			})
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "show the whole token")
	cmd.Flags().BoolVar(&raw, "raw", false, "print only the token")

	return cmd
}

func maskToken(token string) string {
	if len(token) <= tokenPreviewLength {
		return constants.Masked
	}

	return token[:tokenPreviewLength] + constants.Masked
}
