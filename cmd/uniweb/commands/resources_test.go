package commands_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/uniweb/cmd/uniweb/commands"
	"github.com/fivetwenty-io/uniweb/internal/client"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

func TestReadCommand(t *testing.T) {
	t.Parallel()

	t.Run("reads the resources of a member", func(t *testing.T) {
		t.Parallel()

		server := client.NewFakeServer(t)
		server.Seed("42", "profile/affiliations", map[string]interface{}{"unit": "Engineering"})

		out, err := executeAgainst(t, server, "-o", "json", "read", "42", "-r", "profile/affiliations")
		require.NoError(t, err)

		var reply map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &reply))
		assert.Equal(t, "Engineering", reply["profile/affiliations"]["unit"])

		requests := server.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "read", requests[0].Description["action"])
		assert.Equal(t, "42", requests[0].Description["id"])
	})

	t.Run("sends the filter and content type", func(t *testing.T) {
		t.Parallel()

		server := client.NewFakeServer(t)
		server.Replies["read"] = `[{"id":"alpha"},{"id":"beta"}]`

		out, err := executeAgainst(t, server, "read", "--content-type", "members", "--filter", "unit=Engineering", "--language", "fr")
		require.NoError(t, err)
		assert.Contains(t, out, "alpha")
		assert.Contains(t, out, "beta")

		requests := server.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "members", requests[0].Description["contentType"])
		assert.Equal(t, map[string]interface{}{"unit": "Engineering"}, requests[0].Description["filter"])
		assert.Equal(t, "fr", requests[0].Description["language"])
	})

	t.Run("requires a resource or a content type", func(t *testing.T) {
		t.Parallel()

		server := client.NewFakeServer(t)

		_, err := executeAgainst(t, server, "read", "42")
		require.ErrorIs(t, err, commands.ErrResourcesRequired)
		assert.Zero(t, server.TokenCalls())
	})

	t.Run("reports remote errors", func(t *testing.T) {
		t.Parallel()

		server := client.NewFakeServer(t)
		server.Replies["read"] = `{"error":"Unknown section"}`

		_, err := executeAgainst(t, server, "read", "42", "-r", "profile/unknown")
		require.ErrorIs(t, err, uniweb.ErrRemote)
		assert.Contains(t, err.Error(), "Unknown section")
	})
}

func TestEditCommand(t *testing.T) {
	t.Parallel()

	t.Run("inline data", func(t *testing.T) {
		t.Parallel()

		server := client.NewFakeServer(t)
		server.Seed("42", "profile/research_description", map[string]interface{}{
			"keywords": map[string]interface{}{"english": "Robots", "french": "Robots"},
		})

		out, err := executeAgainst(t, server, "edit", "42",
			"--data", `{"profile/research_description": {"keywords": {"english": "Robotics"}}}`)
		require.NoError(t, err)
		assert.Contains(t, out, "ok")

		out, err = executeAgainst(t, server, "-o", "json", "read", "42", "-r", "profile/research_description")
		require.NoError(t, err)
		assert.JSONEq(t, `{"profile/research_description": {"keywords": {"english": "Robotics", "french": "Robots"}}}`, out)
	})

	t.Run("yaml file and attachment", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := filepath.Join(dir, "edit.yaml")
		attachment := filepath.Join(dir, "cv.pdf")

		require.NoError(t, os.WriteFile(input, []byte("cv/attachments:\n  file: cv\n"), 0o600))
		require.NoError(t, os.WriteFile(attachment, []byte("%PDF"), 0o600))

		server := client.NewFakeServer(t)

		_, err := executeAgainst(t, server, "edit", "42", "--file", input, "--attach", "cv="+attachment)
		require.NoError(t, err)

		requests := server.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, map[string]string{"cv": "application/pdf"}, requests[0].Files)
		assert.Equal(t, map[string]interface{}{"cv/attachments": map[string]interface{}{"file": "cv"}}, requests[0].Description["resources"])
	})

	t.Run("input errors make no call", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			args     []string
			expected error
		}{
			{"no input", []string{"edit", "42"}, commands.ErrNoInput},
			{"both inputs", []string{"edit", "42", "--data", "{}", "--file", "x.json"}, commands.ErrConflictingInput},
			{"empty resources", []string{"edit", "42", "--data", "{}"}, uniweb.ErrEmptyResources},
			{"bad attachment", []string{"edit", "42", "--data", `{"cv/attachments":{"file":"cv"}}`, "--attach", "cv"}, commands.ErrInvalidAttachment},
			{"dotted attachment", []string{"edit", "42", "--data", `{"cv/attachments":{"file":"my.cv"}}`, "--attach", "my.cv=/etc/hostname"}, uniweb.ErrDottedAttachment},
		}

		for _, testCase := range tests {
			testCase := testCase
			t.Run(testCase.name, func(t *testing.T) {
				t.Parallel()

				server := client.NewFakeServer(t)

				_, err := executeAgainst(t, server, testCase.args...)
				require.ErrorIs(t, err, testCase.expected)
				assert.Zero(t, server.ResourceCalls())
			})
		}
	})
}

func TestAddCommand(t *testing.T) {
	t.Parallel()

	server := client.NewFakeServer(t)

	out, err := executeAgainst(t, server, "-o", "json", "add", "42",
		"--data", `{"cv/education/degrees": [{"degree_name": "PhD", "degree_type": 3}]}`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "add", requests[0].Description["action"])
	assert.Equal(t, map[string]interface{}{
		"cv/education/degrees": []interface{}{
			map[string]interface{}{"degree_name": "PhD", "degree_type": float64(3)},
		},
	}, requests[0].Description["resources"])
}

func TestAddCommand_KeepsLargeNumbers(t *testing.T) {
	t.Parallel()

	server := client.NewFakeServer(t)

	_, err := executeAgainst(t, server, "add", "42",
		"--data", `{"cv/education/degrees": [{"degree_type": 12345678901234567}]}`)
	require.NoError(t, err)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Body, `"degree_type":12345678901234567`)
}

func TestClearCommand(t *testing.T) {
	t.Parallel()

	server := client.NewFakeServer(t)

	out, err := executeAgainst(t, server, "clear", "42", "cv/education/degrees", "cv/employment")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "clear", requests[0].Description["action"])
	assert.Equal(t, []interface{}{"cv/education/degrees", "cv/employment"}, requests[0].Description["resources"])

	_, err = executeAgainst(t, server, "clear", "42")
	require.Error(t, err)
}

func TestPictureCommand(t *testing.T) {
	t.Parallel()

	t.Run("uploads the image", func(t *testing.T) {
		t.Parallel()

		image := filepath.Join(t.TempDir(), "portrait.png")
		require.NoError(t, os.WriteFile(image, []byte("\x89PNG"), 0o600))

		server := client.NewFakeServer(t)

		_, err := executeAgainst(t, server, "picture", "42", image)
		require.NoError(t, err)

		requests := server.Requests()
		require.Len(t, requests, 1)
		assert.Equal(t, "updatePicture", requests[0].Description["action"])
		assert.Equal(t, map[string]string{"picture": "image/png"}, requests[0].Files)
	})

	t.Run("missing image makes no call", func(t *testing.T) {
		t.Parallel()

		server := client.NewFakeServer(t)

		_, err := executeAgainst(t, server, "picture", "42", filepath.Join(t.TempDir(), "missing.png"))
		require.ErrorIs(t, err, uniweb.ErrUnreadableFile)
		assert.Zero(t, server.TokenCalls())
	})
}
