package render

import (
	"fmt"
	"html"
	"strings"
)

// EscapeHighlighter is the built-in code highlighter: it escapes the code
// and tags the block with the language for client-side highlighting.
type EscapeHighlighter struct{}

// Highlight implements Highlighter.
func (EscapeHighlighter) Highlight(code, language string) string {
	escaped := html.EscapeString(strings.TrimRight(code, "\n"))
	if language == "" {
		return fmt.Sprintf("<pre><code>%s</code></pre>\n", escaped)
	}
	return fmt.Sprintf("<pre><code class=\"language-%s\">%s</code></pre>\n",
		html.EscapeString(language), escaped)
}
