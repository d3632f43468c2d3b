package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/collection"
	"git.home.luguber.info/inful/sitegen/internal/meta"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

// Bindings are the variables exposed to a layout template. The current page
// is a separate single-value binding, distinct from the collection.
type Bindings struct {
	Page     *page.Page
	Pages    *collection.Index
	Content  template.HTML
	Headings []meta.Heading
	Data     map[string]any
}

// builtinDefault is the built-in default layout. It guarantees resolution
// always has a valid fallback even for sites that ship no layouts at all.
const builtinDefault = `<!DOCTYPE html>
<html>
	<head>
		<meta charset="utf-8" />
		<meta name="generator" content="sitegen" />
		{{with .Page.Description}}<meta name="description" content="{{.}}" />{{end}}
		<title>{{.Page.Title}}{{with .Data.title}} - {{.}}{{end}}</title>
	</head>
	<body>
		{{.Content}}
	</body>
</html>
`

// TemplateEngine applies html/template layouts loaded from a layout
// directory. Each *.html file becomes one layout keyed by its file stem.
type TemplateEngine struct {
	templates map[string]*template.Template
}

// LoadTemplates reads every *.html layout under dir. A missing directory
// yields an engine with only the built-in default layout.
func LoadTemplates(dir string) (*TemplateEngine, error) {
	e := &TemplateEngine{templates: make(map[string]*template.Template)}

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read layout directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".html") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read layout %s: %w", entry.Name(), err)
		}
		tmpl, err := template.New(name).Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse layout %s: %w", entry.Name(), err)
		}
		e.templates[name] = tmpl
	}

	if _, ok := e.templates["default"]; !ok {
		e.templates["default"] = template.Must(template.New("default").Parse(builtinDefault))
	}
	return e, nil
}

// Has reports whether a layout with the given identifier exists.
func (e *TemplateEngine) Has(layoutID string) bool {
	_, ok := e.templates[layoutID]
	return ok
}

// Apply renders the layout identified by layoutID with the given bindings.
func (e *TemplateEngine) Apply(layoutID string, bindings Bindings) (string, error) {
	tmpl, ok := e.templates[layoutID]
	if !ok {
		return "", fmt.Errorf("no template for layout %q", layoutID)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, bindings); err != nil {
		return "", fmt.Errorf("apply layout %q: %w", layoutID, err)
	}
	return b.String(), nil
}
