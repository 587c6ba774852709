package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

const workspaceYAML = `workspace:
  id: acme
  name: Acme Corp
projects:
  - id: proj-1
    name: Billing revamp
    status: active
    tasks:
      - id: task-1
        title: Refund endpoint
        status: in_progress
        priority: high
    phases:
      - id: phase-1
        name: Rollout
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParseWorkspaceFile(t *testing.T) {
	data, err := parseWorkspaceFile(strings.NewReader(workspaceYAML))
	require.NoError(t, err)

	assert.Equal(t, "acme", data.Workspace.ID)
	require.Len(t, data.Projects, 1)
	p := data.Projects[0]
	assert.Equal(t, "proj-1", p.Project.ID)
	assert.Equal(t, "acme", p.WorkspaceID, "defaults to the file's workspace")
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, "high", p.Tasks[0].Priority)
}

func TestParseWorkspaceFile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing workspace id", "workspace:\n  name: Acme\n"},
		{"missing project id", "workspace:\n  id: acme\nprojects:\n  - name: Nameless\n"},
		{"unknown field", "workspace:\n  id: acme\nprojekts: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseWorkspaceFile(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestWorkspaceCmd_ImportThenContext(t *testing.T) {
	setupTestServices(t)
	path := writeTempFile(t, "workspace.yaml", workspaceYAML)

	out, _, err := runCLI(t, "workspace", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported workspace acme with 1 project(s)")

	out, _, err = runCLI(t, "workspace", "context", "proj-1", "-w", "acme")
	require.NoError(t, err)

	assert.Contains(t, out, "# Project Context")
	assert.Contains(t, out, "Name: Billing revamp")
	assert.Contains(t, out, "Refund endpoint")
	assert.NotContains(t, out, "## Unavailable Data")
}

func TestWorkspaceCmd_ContextJSON(t *testing.T) {
	setupTestServices(t)
	path := writeTempFile(t, "workspace.yaml", workspaceYAML)
	_, _, err := runCLI(t, "workspace", "import", path)
	require.NoError(t, err)

	out, _, err := runCLI(t, "workspace", "context", "proj-1", "--workspace", "acme", "--json")
	require.NoError(t, err)

	var snapshot domain.WorkspaceSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snapshot))
	assert.Equal(t, "proj-1", snapshot.ProjectID)
	require.NotNil(t, snapshot.Tasks)
	assert.Equal(t, 1, snapshot.Tasks.Total)
}

func TestWorkspaceCmd_ImportMissingFile(t *testing.T) {
	setupTestServices(t)

	_, _, err := runCLI(t, "workspace", "import", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWorkspaceCmd_ImportInvalid(t *testing.T) {
	setupTestServices(t)
	path := writeTempFile(t, "workspace.yaml", "projects: []\n")

	_, _, err := runCLI(t, "workspace", "import", path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
