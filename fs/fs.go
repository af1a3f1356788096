// Package appfs embeds static assets shipped with the binary: database
// migrations, email templates and the common passwords list.
package appfs

import "embed"

//go:embed migrations all:templates common-passwords.txt.gz
var FS embed.FS
