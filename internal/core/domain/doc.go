// Package domain defines the core business entities for projctx.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A knowledge-base article with an optional embedding
//   - Scope: The tenant-isolation rule applied to every read
//   - RetrievalCandidate: A ranked, transient retrieval hit
//   - RAGContext: The size-bounded prompt context built from candidates
//   - WorkspaceSnapshot: The per-request aggregate of project data domains
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
