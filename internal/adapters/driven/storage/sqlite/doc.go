// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements several store interfaces
// through a single database connection:
//
//   - DocumentStore: knowledge-base documents, their vectors and the FTS5 index
//     behind the full-text retrieval tier
//   - WorkspaceStore: the project domains aggregated into workspace snapshots
//   - RelationStore: tasks, phases and dashboards a document can be related to
//   - WorkspaceWriter: bulk loading of workspace data
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Vector Encoding
//
// The documents.embedding column is untyped. Every write stores the bracketed
// text form ("[0.1,0.2]"); reads hand the raw value to the caller so rows
// written as little-endian float32 blobs keep working.
//
// # Data Location
//
// By default, the database is stored at ~/.projctx/data/projctx.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
