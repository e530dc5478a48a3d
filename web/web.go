// Package web holds the server-rendered pages, compiled into the binary
// so deployment stays a single artifact plus a data directory.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
