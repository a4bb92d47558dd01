//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
	"github.com/fivetwenty-io/uniweb/pkg/uniwebclient"
)

// TestWorkflow_Directory lists the institutional data through the CLI.
func TestWorkflow_Directory(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)

	for _, command := range []string{"titles", "units", "roles", "permissions", "roles-permissions"} {
		t.Run(command, func(t *testing.T) {
			stdout, stderr, err := runner.Run(command, "--output", "json")
			require.NoError(t, err, "Failed to run %s: %s", command, stderr)
			AssertJSONOutput(t, stdout)
		})
	}
}

// TestWorkflow_OutputFormats checks every output format of one command.
func TestWorkflow_OutputFormats(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)

	stdout, stderr, err := runner.Run("titles", "--output", "yaml")
	require.NoError(t, err, "Failed to run titles: %s", stderr)
	AssertYAMLOutput(t, stdout)

	stdout, stderr, err = runner.Run("titles")
	require.NoError(t, err, "Failed to run titles: %s", stderr)
	assert.NotEmpty(t, stdout)
}

// TestWorkflow_ReadMember reads the profile of the configured test member.
func TestWorkflow_ReadMember(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	if config.MemberID == "" {
		t.Skip("UNIWEB_TEST_MEMBER not set, skipping member tests")
	}

	runner := NewCommandRunner(config, t)

	var reply map[string]interface{}
	require.NoError(t, runner.RunJSON(&reply, "read", config.MemberID, "-r", "profile/affiliations"))
	assert.Contains(t, reply, "profile/affiliations")
}

// TestWorkflow_ErrorScenarios checks that failures are reported.
func TestWorkflow_ErrorScenarios(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)

	_, stderr, err := runner.Run("read", "someone", "-r", "profile/does_not_exist")
	require.Error(t, err)
	assert.NotEmpty(t, stderr)

	_, _, err = runner.Run("--client-secret", "definitely-wrong", "token")
	require.Error(t, err)
}

// TestWorkflow_DirectAPIAccess uses the library against the same instance.
func TestWorkflow_DirectAPIAccess(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	ctx := context.Background()

	client, err := uniwebclient.Connect(ctx, &uniweb.Config{
		Credentials: uniweb.Credentials{
			Homepage:     config.Homepage,
			ClientName:   config.ClientName,
			ClientSecret: config.ClientSecret,
		},
	})
	require.NoError(t, err)

	resp, err := client.GetTitles(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Raw)

	_, err = client.QueryUnits(ctx, &uniweb.UnitQuery{SortBy: "memberCount"})
	require.NoError(t, err)

	_, err = uniwebclient.Connect(ctx, &uniweb.Config{
		Credentials: uniweb.Credentials{
			Homepage:     config.Homepage,
			ClientName:   config.ClientName,
			ClientSecret: "definitely-wrong",
		},
	})
	require.ErrorIs(t, err, uniweb.ErrAuth)
}
