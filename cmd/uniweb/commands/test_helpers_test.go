package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/uniweb/cmd/uniweb/commands"
	"github.com/fivetwenty-io/uniweb/internal/client"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// execute runs the CLI with args and returns what it printed on stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := commands.NewRootCommand(commands.BuildInfo{Version: "test", Commit: "abc123", Built: "today"})

	var stdout, stderr bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), err
}

// executeAgainst runs the CLI with credentials of server.
func executeAgainst(t *testing.T, server *client.FakeServer, args ...string) (string, error) {
	t.Helper()

	credentials := server.Credentials()

	return execute(t, append([]string{
		"--homepage", credentials.Homepage,
		"--client-name", credentials.ClientName,
		"--client-secret", credentials.ClientSecret,
	}, args...)...)
}
