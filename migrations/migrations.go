// Package migrations embeds the SQL schema migrations for each supported
// database, under sqlite/ and postgres/.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
