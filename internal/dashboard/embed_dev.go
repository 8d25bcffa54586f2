//go:build dev

package dashboard

import "io/fs"

// distFS is nil in dev mode. The handler 404s everything so the Vite
// dev server proxy serves assets instead.
var distFS fs.FS
