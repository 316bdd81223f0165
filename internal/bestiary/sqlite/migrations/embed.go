package migrations

import "embed"

// FS contains embedded SQLite migrations for bestiary storage.
//
//go:embed *.sql
var FS embed.FS
