// Package web embeds the page templates, markdown narratives and static
// assets served by the Go binary and copied by the static exporter.
//
// Usage:
//
//	import "github.com/canviz/canadaindata/web"
//	tmpl := web.Templates() // io/fs.FS rooted at templates/
package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed templates content static
var files embed.FS

// Templates returns the html/template sources: layout.html, partials/ and
// pages/.
func Templates() fs.FS { return sub("templates") }

// Content returns the markdown narratives.
func Content() fs.FS { return sub("content") }

// Static returns the stylesheet and script served under /static/.
func Static() fs.FS { return sub("static") }

func sub(dir string) fs.FS {
	s, err := fs.Sub(files, dir)
	if err != nil {
		log.Fatalf("web.%s: %v", dir, err)
	}
	return s
}
