// Package migrations embeds the SQL migration files applied at store
// startup.
package migrations

import "embed"

// FS holds all migration files.
//
//go:embed *.sql
var FS embed.FS
