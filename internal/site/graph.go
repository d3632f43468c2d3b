package site

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/discover"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

// DependencyGraph maps source inputs to the output pages that depend on
// them. It is rebuilt on every pass from the current page set and layout
// resolutions, then consulted to turn a changed-path set into an
// invalidation set.
type DependencyGraph struct {
	contentDir string
	dataDir    string

	layoutOf map[string]string // content path -> resolved layout id
	groupOf  map[string]string
	urlOf    map[string]string
}

// NewDependencyGraph builds the graph for one pass. layouts carries the
// resolved layout id per content path.
func NewDependencyGraph(cfg *config.Config, pages []*page.Page, layouts map[string]string) *DependencyGraph {
	g := &DependencyGraph{
		contentDir: cfg.ContentDir,
		dataDir:    cfg.DataDir,
		layoutOf:   layouts,
		groupOf:    make(map[string]string, len(pages)),
		urlOf:      make(map[string]string, len(pages)),
	}
	for _, p := range pages {
		g.groupOf[p.Path] = p.Group
		g.urlOf[p.Path] = p.URL
	}
	return g
}

// Invalidate classifies changed project-relative paths into the set of
// content paths requiring re-render. full reports that everything is
// invalidated (a data or configuration change).
//
// Over-invalidation is deliberate: a content change also takes its group
// and the home page, because listing pages query the index.
func (g *DependencyGraph) Invalidate(changed []string) (invalid map[string]bool, full bool) {
	invalid = map[string]bool{}
	for _, raw := range changed {
		rel := path.Clean(strings.ReplaceAll(raw, "\\", "/"))

		if rel == config.FileName || rel == g.dataDir || strings.HasPrefix(rel, g.dataDir+"/") {
			return nil, true
		}

		inContent, ok := strings.CutPrefix(rel, g.contentDir+"/")
		if !ok {
			continue
		}

		if layoutName, ok := strings.CutPrefix(inContent, discover.LayoutsDir+"/"); ok {
			g.invalidateLayout(invalid, strings.TrimSuffix(layoutName, path.Ext(layoutName)))
			continue
		}
		if discover.IsContentPath(inContent) {
			g.invalidateContent(invalid, inContent)
		}
	}
	return invalid, false
}

func (g *DependencyGraph) invalidateLayout(invalid map[string]bool, layoutID string) {
	for p, l := range g.layoutOf {
		if l == layoutID {
			invalid[p] = true
		}
	}
}

func (g *DependencyGraph) invalidateContent(invalid map[string]bool, contentPath string) {
	if _, known := g.urlOf[contentPath]; known {
		invalid[contentPath] = true
	}
	group := groupFromPath(contentPath)
	for p, gr := range g.groupOf {
		if gr == group {
			invalid[p] = true
		}
	}
	for p, u := range g.urlOf {
		if u == "/" {
			invalid[p] = true
		}
	}
}

// groupFromPath derives the group from a content path the same way the
// extractor does, so deleted or newly added files classify correctly.
func groupFromPath(contentPath string) string {
	first, _, found := strings.Cut(contentPath, "/")
	if !found {
		return ""
	}
	return strings.TrimPrefix(first, "_")
}
