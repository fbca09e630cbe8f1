// Package migrations embute os scripts SQL versionados do goose, um diretório por driver.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite3/*.sql
var FS embed.FS
