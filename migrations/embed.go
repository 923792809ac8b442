// Package migrations embeds the schema migrations for the hospital database.
package migrations

import "embed"

// FS holds the numbered up/down SQL files consumed by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
