// Package svgsprite prepares icon files and assembles them into a single
// SVG sprite.
//
// Icons lose their paint attributes (fill, stroke, style) so that the page
// can color them through CSS, then each one becomes a <symbol> (or, in
// stack mode, a nested <svg>) addressed by its id:
//
//	<svg><use href="/assets/sprite.svg#icon-search"></use></svg>
package svgsprite

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Sprite modes.
const (
	ModeSymbol = "symbol"
	ModeStack  = "stack"
)

// PaintAttrs are removed from every element of an icon.
var PaintAttrs = []string{"fill", "stroke", "style"}

// Icon is one prepared icon.
type Icon struct {
	ID   string
	Data []byte
}

// ID derives the sprite id of an icon from its path relative to the icon
// directory: "social/icon-x.svg" becomes "social--icon-x".
func ID(rel string) string {
	rel = strings.TrimSuffix(path.Clean(rel), path.Ext(rel))
	return strings.ReplaceAll(rel, "/", "--")
}

// Strip removes the named attributes from every element and undoes the
// escaping of '>' in text.
func Strip(data []byte, attrs ...string) ([]byte, error) {
	drop := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		drop[a] = true
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var out bytes.Buffer

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			out.WriteByte('<')
			out.WriteString(qname(t.Name))
			for _, a := range t.Attr {
				if a.Name.Space == "" && drop[a.Name.Local] {
					continue
				}
				out.WriteByte(' ')
				out.WriteString(qname(a.Name))
				out.WriteString(`="`)
				escapeAttr(&out, a.Value)
				out.WriteByte('"')
			}
			out.WriteByte('>')
		case xml.EndElement:
			out.WriteString("</")
			out.WriteString(qname(t.Name))
			out.WriteByte('>')
		case xml.CharData:
			escapeText(&out, string(t))
		case xml.Comment:
			out.WriteString("<!--")
			out.Write(t)
			out.WriteString("-->")
		case xml.ProcInst:
			out.WriteString("<?")
			out.WriteString(t.Target)
			if len(t.Inst) > 0 {
				out.WriteByte(' ')
				out.Write(t.Inst)
			}
			out.WriteString("?>")
		case xml.Directive:
			out.WriteString("<!")
			out.Write(t)
			out.WriteByte('>')
		}
	}

	return bytes.ReplaceAll(out.Bytes(), []byte("&gt;"), []byte(">")), nil
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func escapeAttr(w *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			w.WriteString("&amp;")
		case '<':
			w.WriteString("&lt;")
		case '"':
			w.WriteString("&quot;")
		default:
			w.WriteRune(r)
		}
	}
}

func escapeText(w *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			w.WriteString("&amp;")
		case '<':
			w.WriteString("&lt;")
		default:
			w.WriteRune(r)
		}
	}
}

// shape is the root of one icon split into its viewBox and inner markup.
type shape struct {
	viewBox string
	inner   []byte
}

func parseShape(data []byte) (shape, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var s shape
	depth := 0
	innerStart := -1

	for {
		before := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return shape{}, fmt.Errorf("svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if t.Name.Local != "svg" {
					return shape{}, fmt.Errorf("svg: root element is <%s>", t.Name.Local)
				}
				s.viewBox = viewBox(t.Attr)
				innerStart = int(dec.InputOffset())
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 && innerStart >= 0 {
				s.inner = bytes.TrimSpace(data[innerStart:before])
				return s, nil
			}
		}
	}

	if innerStart >= 0 && depth > 0 {
		return shape{}, fmt.Errorf("svg: unterminated <svg>")
	}
	return shape{}, fmt.Errorf("svg: no <svg> element")
}

func viewBox(attrs []xml.Attr) string {
	var width, height string
	for _, a := range attrs {
		switch a.Name.Local {
		case "viewBox":
			return a.Value
		case "width":
			width = strings.TrimSuffix(a.Value, "px")
		case "height":
			height = strings.TrimSuffix(a.Value, "px")
		}
	}
	if width != "" && height != "" {
		return "0 0 " + width + " " + height
	}
	return ""
}

// stackStyle shows only the targeted icon when the sprite is referenced as
// an image fragment (sprite.svg#icon-x).
const stackStyle = `<style>:root>svg{display:none}:root>svg:target{display:block}</style>`

// Build assembles icons into a sprite document. Icons are emitted in the
// order given.
func Build(icons []Icon, mode string) ([]byte, error) {
	if mode == "" {
		mode = ModeSymbol
	}
	if mode != ModeSymbol && mode != ModeStack {
		return nil, fmt.Errorf("svg sprite: unknown mode %q", mode)
	}

	seen := make(map[string]bool, len(icons))
	var out bytes.Buffer
	out.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	out.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">`)
	if mode == ModeStack {
		out.WriteString(stackStyle)
	}

	for _, icon := range icons {
		if seen[icon.ID] {
			return nil, fmt.Errorf("svg sprite: duplicate icon id %q", icon.ID)
		}
		seen[icon.ID] = true

		s, err := parseShape(icon.Data)
		if err != nil {
			return nil, fmt.Errorf("icon %s: %w", icon.ID, err)
		}

		tag := "symbol"
		if mode == ModeStack {
			tag = "svg"
		}
		out.WriteString("<" + tag + ` id="`)
		escapeAttr(&out, icon.ID)
		out.WriteByte('"')
		if s.viewBox != "" {
			out.WriteString(` viewBox="`)
			escapeAttr(&out, s.viewBox)
			out.WriteByte('"')
		}
		out.WriteByte('>')
		out.Write(s.inner)
		out.WriteString("</" + tag + ">")
	}

	out.WriteString("</svg>")
	return out.Bytes(), nil
}
