// Package migrations embeds the SQL schema migrations applied by cmd/migrate
// and the storage integration tests.
package migrations

import "embed"

// FS holds every *.sql migration file.
//
//go:embed *.sql
var FS embed.FS
