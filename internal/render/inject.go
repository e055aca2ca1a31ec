package render

import (
	"bytes"

	"golang.org/x/net/html"
)

// InjectScript inserts the reload snippet before the document's closing body
// tag. The tokenizer keeps the insertion correct when "</body>" appears
// inside scripts or comments; documents without a body tag get the snippet
// appended. Idempotent: a document that already carries the snippet (a
// layout may emit it via the livereload helper) is returned unchanged.
func InjectScript(doc []byte, snippet string) []byte {
	if snippet == "" || bytes.Contains(doc, []byte(snippet)) {
		return doc
	}

	z := html.NewTokenizer(bytes.NewReader(doc))
	pos := 0
	insertAt := -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.EndTagToken {
			name, _ := z.TagName()
			if string(name) == "body" {
				insertAt = pos
			}
		}
		pos += len(z.Raw())
	}

	if insertAt < 0 {
		return append(doc, []byte(snippet)...)
	}
	out := make([]byte, 0, len(doc)+len(snippet))
	out = append(out, doc[:insertAt]...)
	out = append(out, []byte(snippet)...)
	out = append(out, doc[insertAt:]...)
	return out
}
