// Package mcp provides an MCP (Model Context Protocol) server adapter for projctx.
// It exposes retrieval, prompt-context assembly, relation discovery and
// workspace snapshots as tools for AI assistants.
package mcp

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrMissingAssembler is returned when the context assembler is not provided.
	ErrMissingAssembler = errors.New("mcp: context assembler is required")
)
