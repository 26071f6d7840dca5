// Package migrations embeds the SQL schema migrations into the binary.
//
// Pass FS to database.DB.Migrate; the files sit at its root.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
