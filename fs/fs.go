// Package appfs embeds files needed at runtime (migrations, templates...)
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
