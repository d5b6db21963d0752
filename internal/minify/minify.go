// Package minify collects the tdewolff minifiers used by the tasks.
package minify

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

const (
	MediaHTML = "text/html"
	MediaCSS  = "text/css"
	MediaJS   = "application/javascript"
	MediaSVG  = "image/svg+xml"
)

// Minifier is safe for concurrent use.
type Minifier struct {
	m *minify.M
}

// New registers minifiers for HTML and SVG documents. The CSS and JS
// minifiers handle inline <style> and <script> blocks of HTML pages. HTML
// minification collapses whitespace but keeps the document structure,
// quotes and end tags intact so that pages stay diffable against their
// unminified twin.
func New() *Minifier {
	m := minify.New()
	m.Add(MediaHTML, &html.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepDefaultAttrVals: true,
	})
	m.AddFunc(MediaCSS, css.Minify)
	m.AddFunc(MediaJS, js.Minify)
	m.AddFunc(MediaSVG, svg.Minify)
	return &Minifier{m: m}
}

func (mm *Minifier) Bytes(mediatype string, b []byte) ([]byte, error) {
	out, err := mm.m.Bytes(mediatype, b)
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", mediatype, err)
	}
	return out, nil
}

func (mm *Minifier) HTML(b []byte) ([]byte, error) { return mm.Bytes(MediaHTML, b) }

func (mm *Minifier) SVG(b []byte) ([]byte, error) { return mm.Bytes(MediaSVG, b) }
