package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/projctx/internal/adapters/driving/mcp"
	"github.com/custodia-labs/projctx/internal/core/services"
	"github.com/custodia-labs/projctx/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes the retrieve, rag_context, related and workspace_context
tools plus published documents and project snapshots as resources.

By default, the server communicates over stdio using JSON-RPC. Use --port
to start an HTTP server instead, for the MCP Inspector or remote access.

Changes to config.toml are picked up without a restart. While the server
runs, documents saved without an embedding are re-embedded in the
background (scheduler.reembed_interval, default 15m).

Examples:
  # Stdio mode (default)
  projctx mcp serve

  # HTTP mode
  projctx mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "projctx": {
        "command": "/path/to/projctx",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	s, err := requireServices()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(s.MCPPorts())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	scheduler := services.NewScheduler(s.Resolved.Scheduler, s.Documents)
	go func() {
		if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("scheduler stopped: %v", err)
		}
	}()
	defer scheduler.Stop() //nolint:errcheck

	reloader := &serviceReloader{base: s, current: s, server: server, scheduler: scheduler}
	defer reloader.close()

	go func() {
		if err := s.Config.Watch(ctx, reloader.reload); err != nil {
			logger.Warn("config watch stopped: %v", err)
		}
	}()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.Printf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}

// portSetter is the part of the MCP server the reloader swaps ports on.
type portSetter interface {
	SetPorts(ports *mcp.Ports) error
}

// serviceReloader rebuilds the services when the configuration changes.
// All generations share base's stores; only embedding clients are released
// when a generation is replaced.
type serviceReloader struct {
	mu        sync.Mutex
	base      *Services
	current   *Services
	server    portSetter
	scheduler *services.Scheduler
}

func (r *serviceReloader) reload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := r.current.Rebuild()
	if err != nil {
		logger.Warn("config reload ignored: %v", err)
		return
	}
	if err := r.server.SetPorts(next.MCPPorts()); err != nil {
		logger.Warn("config reload ignored: %v", err)
		_ = next.releaseEmbeddings()
		return
	}

	if r.scheduler != nil {
		r.scheduler.SetReembedder(next.Documents)
	}

	previous := r.current
	r.current = next
	if err := previous.releaseEmbeddings(); err != nil {
		logger.Warn("releasing embedding clients: %v", err)
	}
	logger.Info("services rebuilt from configuration")
}

// close releases the embedding clients of a rebuilt generation. The base
// generation is closed by the command lifecycle.
func (r *serviceReloader) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != r.base {
		_ = r.current.releaseEmbeddings()
	}
}
