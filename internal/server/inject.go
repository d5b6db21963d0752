package server

import (
	"bytes"

	"golang.org/x/net/html"
)

// InjectScript inserts snippet before the last </body> of doc. Documents
// without a body end tag get the snippet appended.
func InjectScript(doc []byte, snippet string) []byte {
	offset := bodyEnd(doc)
	if offset < 0 {
		out := make([]byte, 0, len(doc)+len(snippet))
		out = append(out, doc...)
		return append(out, snippet...)
	}

	out := make([]byte, 0, len(doc)+len(snippet))
	out = append(out, doc[:offset]...)
	out = append(out, snippet...)
	return append(out, doc[offset:]...)
}

// bodyEnd returns the byte offset of the last </body> tag, or -1. The
// tokenizer keeps tags inside comments, scripts and attribute values from
// matching.
func bodyEnd(doc []byte) int {
	z := html.NewTokenizer(bytes.NewReader(doc))
	pos, found := 0, -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return found
		}
		raw := len(z.Raw())
		if tt == html.EndTagToken {
			name, _ := z.TagName()
			if string(name) == "body" {
				found = pos
			}
		}
		pos += raw
	}
}
