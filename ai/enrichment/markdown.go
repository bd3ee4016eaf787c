package enrichment

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownToPlain strips markdown syntax from a recommendation
// description, leaving the text an embedding model should see. Link
// labels survive, URLs and raw HTML do not.
func MarkdownToPlain(source string) string {
	if source == "" {
		return ""
	}

	src := []byte(source)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
			return ast.WalkContinue, nil
		}
		// Separate blocks so "# Header" and the paragraph under it do
		// not fuse into one token.
		if n.Type() == ast.TypeBlock && b.Len() > 0 {
			b.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}
