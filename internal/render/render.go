// Package render is the boundary to the external rendering collaborators:
// the markdown engine, the layout template engine, and the code highlighter.
// All three are pure and synchronous from the orchestrator's perspective.
package render

import (
	"git.home.luguber.info/inful/sitegen/internal/meta"
)

// Markdown renders a markdown body into HTML, reporting the headings found
// in the rendered output in document order.
type Markdown interface {
	Render(body string) (html string, headings []meta.Heading, err error)
}

// Highlighter turns a fenced code block into an HTML fragment.
type Highlighter interface {
	Highlight(code, language string) string
}

// Engine applies a layout template to variable bindings. Has reports which
// layout identifiers have a backing template, for cascade resolution.
type Engine interface {
	Has(layoutID string) bool
	Apply(layoutID string, bindings Bindings) (string, error)
}
