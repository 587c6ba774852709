package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
)

var (
	workspaceID   string
	workspaceJSON bool
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Project workspace context",
	Long:  `Build prompt context from a project's workspace data, or import that data.`,
}

var workspaceContextCmd = &cobra.Command{
	Use:   "context [project-id]",
	Short: "Print a project snapshot",
	Long: `Summarises every data domain of a project: team, scope, phases, tasks,
specs, decisions, tech debt, metrics, discovery, strategy, roadmap,
stakeholders, uploads and dashboards.

Domains that fail or time out are listed as unavailable; the rest of the
snapshot is still printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceContext,
}

var workspaceImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import workspace data from YAML",
	Long: `Loads an organisation and its projects from a YAML file. Each listed project
replaces any stored data for the same project ID.

  workspace:
    id: acme
    name: Acme Corp
  projects:
    - id: proj-1
      name: Billing revamp
      status: active
      tasks:
        - id: task-1
          title: Refund endpoint
          status: in_progress`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkspaceImport,
}

func init() {
	workspaceContextCmd.Flags().StringVarP(&workspaceID, "workspace", "w", "", "organisation the project belongs to")
	workspaceContextCmd.Flags().BoolVar(&workspaceJSON, "json", false, "output the snapshot as JSON")

	workspaceCmd.AddCommand(workspaceContextCmd)
	workspaceCmd.AddCommand(workspaceImportCmd)
	rootCmd.AddCommand(workspaceCmd)
}

func runWorkspaceContext(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	snapshot, err := s.Workspace.Build(cmd.Context(), args[0], workspaceID)
	if err != nil {
		return fmt.Errorf("failed to build workspace context: %w", err)
	}

	if workspaceJSON {
		return outputJSON(cmd, snapshot)
	}

	fmt.Fprint(cmd.OutOrStdout(), s.Workspace.Format(snapshot))
	return nil
}

func runWorkspaceImport(cmd *cobra.Command, args []string) error {
	s, err := requireServices()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	data, err := parseWorkspaceFile(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	if err := importWorkspace(cmd.Context(), s.Stores.Writer, data); err != nil {
		return err
	}

	cmd.Printf("Imported workspace %s with %d project(s)\n", data.Workspace.ID, len(data.Projects))
	return nil
}

// workspaceFile is the YAML import format.
type workspaceFile struct {
	Workspace domain.WorkspaceInfo `yaml:"workspace"`
	Projects  []projectFile        `yaml:"projects"`
}

type projectFile struct {
	domain.Project     `yaml:",inline"`
	domain.ProjectData `yaml:",inline"`
}

func parseWorkspaceFile(r io.Reader) (*workspaceFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var data workspaceFile
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: %w", domain.ErrInvalidInput)
		}
		return nil, err
	}

	if data.Workspace.ID == "" {
		return nil, fmt.Errorf("workspace.id is required: %w", domain.ErrInvalidInput)
	}
	for i := range data.Projects {
		p := &data.Projects[i]
		if p.Project.ID == "" {
			return nil, fmt.Errorf("projects[%d].id is required: %w", i, domain.ErrInvalidInput)
		}
		if p.WorkspaceID == "" {
			p.WorkspaceID = data.Workspace.ID
		}
	}
	return &data, nil
}

func importWorkspace(ctx context.Context, writer driven.WorkspaceWriter, data *workspaceFile) error {
	if writer == nil {
		return errNotConfigured
	}
	if err := writer.SaveWorkspace(ctx, data.Workspace); err != nil {
		return fmt.Errorf("failed to save workspace %s: %w", data.Workspace.ID, err)
	}
	for _, p := range data.Projects {
		if err := writer.SaveProject(ctx, p.Project, p.ProjectData); err != nil {
			return fmt.Errorf("failed to save project %s: %w", p.Project.ID, err)
		}
	}
	return nil
}
