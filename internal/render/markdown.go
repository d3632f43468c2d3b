package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/sitegen/internal/meta"
)

// GoldmarkRenderer renders markdown through goldmark with GFM extensions,
// assigning heading anchors and routing fenced code blocks through a
// Highlighter. Safe for concurrent use across the render worker pool.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

// NewMarkdown creates a markdown renderer. A nil highlighter falls back to
// escaped pre/code output.
func NewMarkdown(highlighter Highlighter) *GoldmarkRenderer {
	if highlighter == nil {
		highlighter = EscapeHighlighter{}
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			ghtml.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&codeBlockRenderer{highlighter: highlighter}, 100),
			),
		),
	)
	return &GoldmarkRenderer{md: md}
}

// Render parses body, assigns anchors to every heading (slugified text,
// duplicates disambiguated with a numeric suffix), and renders to HTML.
func (r *GoldmarkRenderer) Render(body string) (string, []meta.Heading, error) {
	source := []byte(body)
	doc := r.md.Parser().Parse(text.NewReader(source))

	headings := assignAnchors(doc, source)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), headings, nil
}

// assignAnchors walks the document, sets an id attribute on each heading,
// and returns the heading sequence in document order.
func assignAnchors(doc ast.Node, source []byte) []meta.Heading {
	var headings []meta.Heading
	anchors := NewAnchorSet()

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		txt := nodeText(h, source)
		anchor := anchors.Assign(txt)
		h.SetAttribute([]byte("id"), []byte(anchor))
		headings = append(headings, meta.Heading{Level: h.Level, Text: txt, Anchor: anchor})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// nodeText concatenates the literal text under a node.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// AnchorSet generates anchors from heading text, appending -2, -3, … to
// disambiguate duplicates within one document.
type AnchorSet struct {
	counts map[string]int
}

func NewAnchorSet() *AnchorSet {
	return &AnchorSet{counts: make(map[string]int)}
}

// Assign returns the anchor for the given heading text.
func (a *AnchorSet) Assign(text string) string {
	base := meta.Slugify(text)
	a.counts[base]++
	if n := a.counts[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}

// codeBlockRenderer replaces goldmark's fenced code block rendering with the
// highlighter's output.
type codeBlockRenderer struct {
	highlighter Highlighter
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
}

func (r *codeBlockRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	language := string(n.Language(source))

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	if _, err := w.WriteString(r.highlighter.Highlight(code.String(), language)); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}
