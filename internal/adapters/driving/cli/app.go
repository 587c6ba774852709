package cli

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/projctx/internal/adapters/driven/ai"
	"github.com/custodia-labs/projctx/internal/adapters/driven/config/file"
	"github.com/custodia-labs/projctx/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/projctx/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/projctx/internal/adapters/driving/mcp"
	"github.com/custodia-labs/projctx/internal/core/domain"
	"github.com/custodia-labs/projctx/internal/core/ports/driven"
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
	"github.com/custodia-labs/projctx/internal/core/services"
	"github.com/custodia-labs/projctx/internal/logger"
)

// Stores groups the driven storage ports the services run on.
type Stores struct {
	Documents driven.DocumentStore
	Workspace driven.WorkspaceStore
	Relation  driven.RelationStore
	Writer    driven.WorkspaceWriter
}

// MemoryStores returns empty in-memory stores.
func MemoryStores() Stores {
	ws := memory.NewWorkspaceStore()
	return Stores{
		Documents: memory.NewDocumentStore(),
		Workspace: ws,
		Relation:  ws,
		Writer:    ws,
	}
}

// Services holds everything a command needs. Settings are resolved once
// when the services are built and passed to each service explicitly.
type Services struct {
	Config    driven.ConfigStore
	Settings  driving.SettingsService
	Validator driven.AIConfigValidator
	Resolved  domain.Settings

	Retrieval driving.RetrievalService
	Assembler driving.ContextAssembler
	Relation  driving.RelationService
	Workspace driving.WorkspaceContextService
	Documents driving.DocumentService

	Stores Stores

	closers []func() error
}

// BuildServices resolves settings from config and wires the core services
// over stores. Embedding providers that cannot be created are logged and
// left out; retrieval then falls back to the text tiers.
func BuildServices(config driven.ConfigStore, stores Stores) (*Services, error) {
	settingsService := services.NewSettingsService(config)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("resolving settings: %w", err)
	}

	embeddings := ai.CreateEmbeddingServices(&settings.Embedding)
	for _, warning := range embeddings.Warnings {
		logger.Warn("%s", warning)
	}

	var embedder driven.EmbeddingService
	if embeddings.Primary != nil || embeddings.Remote != nil {
		embedder = services.NewEmbedder(embeddings.Primary, embeddings.Remote, settings.Embedding)
	} else {
		logger.Info("No embedding provider configured, vector retrieval disabled")
	}

	return &Services{
		Config:    config,
		Settings:  settingsService,
		Validator: ai.NewConfigValidator(),
		Resolved:  *settings,
		Retrieval: services.NewRetrievalService(stores.Documents, embedder, settings.Retrieval),
		Assembler: services.NewContextAssembler(settings.Retrieval.ContextMaxChars),
		Relation:  services.NewRelationService(stores.Documents, stores.Relation, settings.Retrieval),
		Workspace: services.NewWorkspaceContextService(stores.Workspace, settings.Workspace),
		Documents: services.NewDocumentService(stores.Documents, embedder),
		Stores:    stores,
		closers:   []func() error{embeddings.Close},
	}, nil
}

// openServices opens the configuration and the SQLite database.
func openServices(configDir, dataDir string, noConfig bool) (*Services, error) {
	var config driven.ConfigStore
	if noConfig {
		config = memory.NewConfigStore()
	} else {
		fileConfig, err := file.NewConfigStore(configDir)
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		logger.Debug("Config: %s", fileConfig.Path())
		config = fileConfig
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("Database: %s", store.Path())

	svc, err := BuildServices(config, Stores{
		Documents: store.DocumentStore(),
		Workspace: store.WorkspaceStore(),
		Relation:  store.RelationStore(),
		Writer:    store.WorkspaceWriter(),
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	svc.closers = append(svc.closers, store.Close)
	return svc, nil
}

// Rebuild re-resolves settings over the same stores. The caller owns both
// values; only the embedding clients of the old value may be released.
func (s *Services) Rebuild() (*Services, error) {
	return BuildServices(s.Config, s.Stores)
}

// MCPPorts returns the driving ports the MCP server needs.
func (s *Services) MCPPorts() *mcp.Ports {
	return &mcp.Ports{
		Retrieval: s.Retrieval,
		Assembler: s.Assembler,
		Relation:  s.Relation,
		Workspace: s.Workspace,
		Document:  s.Documents,
	}
}

// Close releases embedding clients and the database.
func (s *Services) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// releaseEmbeddings closes only the embedding clients, keeping the stores open.
func (s *Services) releaseEmbeddings() error {
	if len(s.closers) == 0 {
		return nil
	}
	return s.closers[0]()
}
