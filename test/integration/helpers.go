//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Homepage     string
	ClientName   string
	ClientSecret string
	MemberID     string
	UniwebPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Homepage:     os.Getenv("UNIWEB_HOMEPAGE"),
		ClientName:   os.Getenv("UNIWEB_CLIENT_NAME"),
		ClientSecret: os.Getenv("UNIWEB_CLIENT_SECRET"),
		MemberID:     os.Getenv("UNIWEB_TEST_MEMBER"),
		UniwebPath:   getUniwebPath(),
		Verbose:      os.Getenv("UNIWEB_VERBOSE") == "true",
	}
}

// getUniwebPath determines the path to the uniweb binary.
func getUniwebPath() string {
	if path := os.Getenv("UNIWEB_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../uniweb",
		"./uniweb",
		"../uniweb",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "uniweb"
}

// SkipIfMissingConfig skips test if required config is missing.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Homepage == "" || config.ClientName == "" || config.ClientSecret == "" {
		t.Skip("UNIWEB_HOMEPAGE, UNIWEB_CLIENT_NAME or UNIWEB_CLIENT_SECRET not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.UniwebPath); err != nil {
		t.Skipf("uniweb binary not found at %s, skipping integration test", config.UniwebPath)
	}
}

// CommandRunner provides utilities for running uniweb commands.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a uniweb command and returns its output. Credentials reach
// the binary through the UNIWEB_* environment variables.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.UniwebPath, args...) // #nosec G204
	cmd.Env = os.Environ()

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.UniwebPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes a uniweb command with JSON output and decodes it.
func (runner *CommandRunner) RunJSON(target interface{}, args ...string) error {
	stdout, _, err := runner.Run(append([]string{"--output", "json"}, args...)...)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(stdout), target)
}

// AssertJSONOutput verifies command output is valid JSON.
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	if !json.Valid([]byte(strings.TrimSpace(output))) {
		t.Errorf("Output is not valid JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output looks like YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return
	}

	t.Errorf("Output does not appear to be YAML: %s", output)
}
