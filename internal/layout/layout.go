// Package layout decides which layout template governs a page's rendering.
//
// The cascade is a fixed three-level priority lookup: explicit per-page
// override, group-derived layout key, then the built-in "default". There is
// no path probing beyond these three candidates.
package layout

import (
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

// DefaultLayout is the identifier of the built-in fallback layout. The
// orchestrator guarantees a template for it exists before any render.
const DefaultLayout = "default"

// TemplateSet reports which layout identifiers have a backing template.
type TemplateSet interface {
	Has(layoutID string) bool
}

// Resolver maps pages to layout identifiers against a fixed template set.
type Resolver struct {
	templates TemplateSet
}

// NewResolver creates a resolver over the given template set.
func NewResolver(templates TemplateSet) *Resolver {
	return &Resolver{templates: templates}
}

// Resolve returns the layout identifier for p: the first cascade candidate
// with a backing template wins. An error is returned only when even the
// default template is missing, which indicates a broken deployment.
func (r *Resolver) Resolve(p *page.Page) (string, error) {
	candidates := make([]string, 0, 3)
	if p.Override.Layout != "" {
		candidates = append(candidates, p.Override.Layout)
	}
	if p.LayoutKey != "" && p.LayoutKey != DefaultLayout {
		candidates = append(candidates, p.LayoutKey)
	}
	candidates = append(candidates, DefaultLayout)

	for _, candidate := range candidates {
		if r.templates.Has(candidate) {
			return candidate, nil
		}
	}
	return "", errors.ResolutionError("no template found for any cascade candidate, including default").
		WithPath(p.Path).
		WithContext("candidates", candidates)
}
