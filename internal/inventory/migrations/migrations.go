// Package migrations embeds the inventory schema.
package migrations

import "embed"

// FS holds the versioned SQL files applied by database.Migrate
//
//go:embed *.sql
var FS embed.FS

// Dir is the root of FS that contains the migrations
const Dir = "."
