package mcp

import (
	"github.com/custodia-labs/projctx/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers free-text queries.
	Retrieval driving.RetrievalService

	// Assembler packs retrieval candidates into prompt context.
	Assembler driving.ContextAssembler

	// Relation finds related documents and project items. Optional.
	Relation driving.RelationService

	// Workspace builds project snapshots. Optional.
	Workspace driving.WorkspaceContextService

	// Document reads single documents for resources. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	if p.Assembler == nil {
		return ErrMissingAssembler
	}
	return nil
}
