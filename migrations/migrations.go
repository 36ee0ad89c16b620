// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
