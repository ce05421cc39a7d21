// Package web holds the editor page and its browser assets.
package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var index = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Page is the data rendered into the editor page.
type Page struct {
	Title        string
	Version      string
	MermaidJSURL string
	// Watching enables the live-reload subscription to /api/events.
	Watching bool
	// Placeholder is shown in an empty preview pane.
	Placeholder string
	// Banners for a failed render and a failed conversion.
	InvalidSyntax    string
	ConversionFailed string
	// Values the mode and tab buttons carry.
	ModeVisualize string
	ModeConvert   string
	TabPreview    string
	TabCode       string
}

// RenderIndex writes the editor page.
func RenderIndex(w io.Writer, p Page) error {
	return index.Execute(w, p)
}

// Static returns the asset tree rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
