// Package cli provides the projctx command-line interface.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/projctx/internal/logger"
)

// annotationNoServices marks commands that run without opening the stores.
const annotationNoServices = "projctx/no-services"

var version = "dev"

var (
	verbose   bool
	dataDir   string
	configDir string
	noConfig  bool
)

// svc is the service container for the running command. Tests inject one
// with SetServices; otherwise it is opened before each command.
var (
	svc      *Services
	ownedSvc bool
)

var errNotConfigured = errors.New("services not configured")

var rootCmd = &cobra.Command{
	Use:   "projctx",
	Short: "Semantic retrieval and project context for AI assistants",
	Long: `projctx retrieves knowledge-base documents for a query and assembles them,
together with a project's workspace data, into prompt-ready context.

Retrieval falls back from vector similarity to full-text search to keyword
scoring, so answers keep coming when the embedding provider is down.`,
	SilenceUsage:       true,
	PersistentPreRunE:  openForCommand,
	PersistentPostRunE: closeForCommand,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "log retrieval and workspace steps to stderr")
	flags.StringVar(&dataDir, "data-dir", "", "database directory (default ~/.projctx/data)")
	flags.StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.projctx)")
	flags.BoolVar(&noConfig, "no-config", false, "ignore config.toml and use built-in defaults")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the service container, replacing any opened one.
// Injected services are never closed by the CLI.
func SetServices(s *Services) {
	svc = s
	ownedSvc = false
}

func openForCommand(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationNoServices] == "true" || svc != nil {
		return nil
	}

	opened, err := openServices(configDir, dataDir, noConfig)
	if err != nil {
		return err
	}
	svc = opened
	ownedSvc = true
	return nil
}

func closeForCommand(_ *cobra.Command, _ []string) error {
	if svc == nil || !ownedSvc {
		return nil
	}
	err := svc.Close()
	svc = nil
	ownedSvc = false
	return err
}

// requireServices returns the container or an error when none is available.
func requireServices() (*Services, error) {
	if svc == nil {
		return nil, errNotConfigured
	}
	return svc, nil
}
