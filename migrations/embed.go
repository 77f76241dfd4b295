// Package migrations embeds the settings store schema into the binary.
package migrations

import "embed"

// FS holds the *.sql migration files at its root. Pass it to
// database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
