package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/uniweb/internal/logger"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
	"github.com/fivetwenty-io/uniweb/pkg/uniwebclient"
)

// Configuration keys, shared by flags, environment variables and viper.
const (
	KeyCredentials      = "credentials"
	KeyHomepage         = "homepage"
	KeyClientName       = "client-name"
	KeyClientSecret     = "client-secret"
	KeyOutput           = "output"
	KeyVerbose          = "verbose"
	KeyRetries          = "retries"
	KeyTimeout          = "timeout"
	KeyTransportRetries = "transport-retries"

	EnvPrefix = "UNIWEB"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit"  yaml:"commit"`
	Built   string `json:"built"   yaml:"built"`
}

// App holds the state shared by the commands of one invocation.
type App struct {
	viper *viper.Viper
	build BuildInfo

	stdin *os.File

	// newClient builds the API client; replaced in tests.
	newClient func(config *uniweb.Config) (uniweb.Client, error)
	client    uniweb.Client
}

// NewRootCommand creates the uniweb command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	app := &App{
		viper:     viper.New(),
		build:     build,
		stdin:     os.Stdin,
		newClient: uniwebclient.New,
	}

	return app.rootCommand()
}

func (a *App) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uniweb",
		Short: "Uniweb API CLI",
		Long: `A command-line interface for the Uniweb content-management API.

Credentials are read from --credentials, from settings/credentials.json in the
working directory, or from the UNIWEB_HOMEPAGE, UNIWEB_CLIENT_NAME and
UNIWEB_CLIENT_SECRET environment variables. Flags override file values.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.validateGlobalFlags,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(KeyCredentials, "", "credentials file (default searches settings/credentials.json)")
	flags.String(KeyHomepage, "", "instance homepage, e.g. uniweb.example.org")
	flags.String(KeyClientName, "", "API client name")
	flags.String(KeyClientSecret, "", "API client secret")
	flags.StringP(KeyOutput, "o", OutputFormatTable, "output format (table, json, yaml)")
	flags.BoolP(KeyVerbose, "v", false, "log HTTP exchanges and token renewals to stderr")
	flags.Int(KeyRetries, uniweb.DefaultRetryBudget, "token renewals allowed per request (0 uses the default)")
	flags.Duration(KeyTimeout, 0, "timeout of each HTTP exchange (default 30s)")
	flags.Int(KeyTransportRetries, 0, "retries of connection errors and 5xx replies")

	for _, key := range []string{
		KeyCredentials, KeyHomepage, KeyClientName, KeyClientSecret,
		KeyOutput, KeyVerbose, KeyRetries, KeyTimeout, KeyTransportRetries,
	} {
		_ = a.viper.BindPFlag(key, flags.Lookup(key))
	}

	a.viper.SetEnvPrefix(EnvPrefix)
	a.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.viper.AutomaticEnv()

	rootCmd.AddCommand(a.newVersionCommand())
	rootCmd.AddCommand(a.newCredentialsCommand())
	rootCmd.AddCommand(a.newTokenCommand())
	rootCmd.AddCommand(a.newReadCommand())
	rootCmd.AddCommand(a.newAddCommand())
	rootCmd.AddCommand(a.newEditCommand())
	rootCmd.AddCommand(a.newClearCommand())
	rootCmd.AddCommand(a.newPictureCommand())
	rootCmd.AddCommand(a.newInfoCommand())
	rootCmd.AddCommand(a.newOptionsCommand())
	rootCmd.AddCommand(a.newFindOptionCommand())
	rootCmd.AddCommand(a.newQueryUnitsCommand())
	rootCmd.AddCommand(a.newUnitProfilesCommand())

	for _, cmd := range a.newDirectoryCommands() {
		rootCmd.AddCommand(cmd)
	}

	return rootCmd
}

func (a *App) validateGlobalFlags(_ *cobra.Command, _ []string) error {
	err := validation.Errors{
		KeyOutput: validation.Validate(a.output(),
			validation.In(OutputFormatTable, OutputFormatJSON, OutputFormatYAML).Error("must be table, json or yaml")),
		KeyRetries:          validation.Validate(a.viper.GetInt(KeyRetries), validation.Min(0)),
		KeyTransportRetries: validation.Validate(a.viper.GetInt(KeyTransportRetries), validation.Min(0)),
		KeyTimeout:          validation.Validate(a.viper.GetDuration(KeyTimeout), validation.Min(time.Duration(0))),
	}.Filter()
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	return nil
}

func (a *App) output() string {
	return strings.ToLower(a.viper.GetString(KeyOutput))
}

func (a *App) config(credentials *uniweb.Credentials, stderr io.Writer) *uniweb.Config {
	config := &uniweb.Config{
		Credentials:       *credentials,
		RetryBudget:       a.viper.GetInt(KeyRetries),
		HTTPTimeout:       a.viper.GetDuration(KeyTimeout),
		TransportRetryMax: a.viper.GetInt(KeyTransportRetries),
		UserAgent:         "uniweb-cli/" + a.build.Version,
	}

	if a.viper.GetBool(KeyVerbose) {
		config.Debug = true
		config.Logger = logger.New(logger.Options{Name: "uniweb", Level: "debug", Output: stderr})
	}

	return config
}

// apiClient returns the client of this invocation, creating it on first use.
func (a *App) apiClient(cmd *cobra.Command) (uniweb.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	credentials, err := a.resolveCredentials(cmd)
	if err != nil {
		return nil, err
	}

	c, err := a.newClient(a.config(credentials, cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}

	a.client = c

	return c, nil
}
