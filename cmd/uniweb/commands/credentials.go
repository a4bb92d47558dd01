package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/uniweb/internal/constants"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// ErrCredentialsExist is returned by credentials init when the target file
// exists and --force is not set.
var ErrCredentialsExist = errors.New("credentials file already exists (use --force to overwrite)")

// resolveCredentials merges the credentials file with flags and environment
// variables, prompting for the secret when it is still missing and stdin is
// a terminal.
func (a *App) resolveCredentials(cmd *cobra.Command) (*uniweb.Credentials, error) {
	credentials := &uniweb.Credentials{}

	path := a.viper.GetString(KeyCredentials)
	overrides := uniweb.Credentials{
		Homepage:     a.viper.GetString(KeyHomepage),
		ClientName:   a.viper.GetString(KeyClientName),
		ClientSecret: a.viper.GetString(KeyClientSecret),
	}

	complete := overrides.Homepage != "" && overrides.ClientName != "" && overrides.ClientSecret != ""
	if path != "" || !complete {
		loaded, err := uniweb.LoadCredentials(path)

		switch {
		case err == nil:
			credentials = loaded
		case path != "" || !errors.Is(err, uniweb.ErrCredentialsMissing):
			return nil, err
		}
	}

	if overrides.Homepage != "" {
		credentials.Homepage = overrides.Homepage
	}

	if overrides.ClientName != "" {
		credentials.ClientName = overrides.ClientName
	}

	if overrides.ClientSecret != "" {
		credentials.ClientSecret = overrides.ClientSecret
	}

	if credentials.ClientSecret == "" && a.stdin != nil && term.IsTerminal(int(a.stdin.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Client secret: ")

		secret, err := term.ReadPassword(int(a.stdin.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return nil, fmt.Errorf("failed to read client secret: %w", err)
		}

		credentials.ClientSecret = strings.TrimSpace(string(secret))
	}

	err := credentials.Validate()
	if err != nil {
		return nil, err
	}

	return credentials, nil
}

func (a *App) newCredentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "credentials",
		Aliases: []string{"creds"},
		Short:   "Manage API client credentials",
		Long:    "Create and inspect the credentials file used to authenticate with a Uniweb instance",
	}

	cmd.AddCommand(a.newCredentialsInitCommand())
	cmd.AddCommand(a.newCredentialsShowCommand())

	return cmd
}

func (a *App) newCredentialsInitCommand() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a credentials file",
		Long:  "Write the homepage, client name and client secret given by flags or environment to a credentials file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			credentials := uniweb.Credentials{
				Homepage:     a.viper.GetString(KeyHomepage),
				ClientName:   a.viper.GetString(KeyClientName),
				ClientSecret: a.viper.GetString(KeyClientSecret),
			}

			err := validation.ValidateStruct(&credentials,
				validation.Field(&credentials.Homepage, validation.Required),
				validation.Field(&credentials.ClientName, validation.Required),
				validation.Field(&credentials.ClientSecret, validation.Required),
			)
			if err != nil {
				return fmt.Errorf("%w: %w", uniweb.ErrConfig, err)
			}

			err = credentials.Validate()
			if err != nil {
				return err
			}

			_, err = os.Stat(path)
			if err == nil && !force {
				return fmt.Errorf("%w: %s", ErrCredentialsExist, path)
			}

			data, err := json.MarshalIndent(credentials, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode credentials: %w", err)
			}

			err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
			if err != nil {
				return fmt.Errorf("failed to create credentials directory: %w", err)
			}

			err = os.WriteFile(path, append(data, '\n'), constants.ConfigFilePerm)
			if err != nil {
				return fmt.Errorf("failed to write credentials file: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Credentials written to %s\n", path)

			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", uniweb.CredentialsPath, "file to write")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func (a *App) newCredentialsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved credentials",
		Long:  "Show the credentials this CLI would use, with the client secret masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			credentials, err := a.resolveCredentials(cmd)
			if err != nil {
				return err
			}

			instanceURL, err := credentials.InstanceURL()
			if err != nil {
				return err
			}

			return a.renderProperties(cmd, []Property{
				{"homepage", credentials.Homepage},
				{"instanceURL", instanceURL},
				{"clientName", credentials.ClientName},
				{"clientSecret", constants.Masked},
			})
		},
	}
}
