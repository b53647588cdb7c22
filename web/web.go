// Package web embeds the HTML templates and static assets so the server
// binary runs without a checkout next to it.
package web

import "embed"

//go:embed templates static
var FS embed.FS
