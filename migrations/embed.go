// Package migrations holds the versioned PostgreSQL schema.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql pair in this directory.
//
//go:embed *.sql
var FS embed.FS
