// Package migrations embeds the schema shared by the postgres and sqlite sinks.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
