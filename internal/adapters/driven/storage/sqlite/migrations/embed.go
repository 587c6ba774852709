// Package migrations holds the schema of the projctx database. Files are
// named NNN_name.up.sql and applied in version order; the matching
// .down.sql files are for manual rollback.
package migrations

import "embed"

// FS holds every migration file.
//
//go:embed *.up.sql *.down.sql
var FS embed.FS
