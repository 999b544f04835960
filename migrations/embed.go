// Package migrations embeds the SQL schema the seeder writes into, for
// development databases that do not run the host application's own
// migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
