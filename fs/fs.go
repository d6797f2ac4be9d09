// Package appfs embeds the static assets shipped inside the binaries.
package appfs

import "embed"

//go:embed migrations/*.sql templates/*.gohtml
var FS embed.FS
