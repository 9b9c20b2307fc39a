// Package migrations embeds the goose SQL migrations of the profile store.
package migrations

import "embed"

// FS holds the *.sql migrations.
//
//go:embed *.sql
var FS embed.FS
