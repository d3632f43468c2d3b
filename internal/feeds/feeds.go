// Package feeds generates the auxiliary XML artifacts written next to the
// rendered site: sitemap.xml for crawlers and rss.xml for syndication. Both
// require an absolute site URL ("url" in site data) and are skipped silently
// without one.
package feeds

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

const rssDateFormat = "Mon, 02 Jan 2006 15:04:05 +0000"

// Generator produces one feed artifact from the published page set.
type Generator interface {
	// Filename is the output filename, e.g. "sitemap.xml".
	Filename() string
	// Generate returns the feed body, or ok=false when the feed cannot be
	// produced (typically a missing site URL).
	Generate(pages []*page.Page, data map[string]any) (content string, ok bool)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func baseURL(data map[string]any) string {
	v, _ := data["url"].(string)
	return strings.TrimRight(v, "/")
}

// SitemapGenerator writes a sitemaps.org urlset over all published pages.
type SitemapGenerator struct{}

func (SitemapGenerator) Filename() string { return "sitemap.xml" }

func (SitemapGenerator) Generate(pages []*page.Page, data map[string]any) (string, bool) {
	base := baseURL(data)
	if base == "" {
		return "", false
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, p := range pages {
		fmt.Fprintf(&b, "  <url><loc>%s</loc><lastmod>%s</lastmod></url>\n",
			xmlEscaper.Replace(base+p.URL), p.Date.Format("2006-01-02"))
	}
	b.WriteString("</urlset>")
	return b.String(), true
}

// RSSGenerator writes an RSS 2.0 channel over the pages it is given, newest
// first. The caller selects the page set, normally the latest entries of the
// configured feed group.
type RSSGenerator struct {
	// Now supplies the channel build date; time.Now when nil.
	Now func() time.Time
}

func (RSSGenerator) Filename() string { return "rss.xml" }

func (g RSSGenerator) Generate(pages []*page.Page, data map[string]any) (string, bool) {
	base := baseURL(data)
	if base == "" {
		return "", false
	}
	title, _ := data["title"].(string)
	if title == "" {
		title = "Feed"
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0"><channel>` + "\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", xmlEscaper.Replace(title))
	fmt.Fprintf(&b, "<link>%s</link>\n", xmlEscaper.Replace(base))
	fmt.Fprintf(&b, "<lastBuildDate>%s</lastBuildDate>\n", now().UTC().Format(rssDateFormat))
	for _, p := range pages {
		desc := p.Description
		if desc == "" {
			desc = p.Title
		}
		fmt.Fprintf(&b, "<item><title>%s</title><link>%s</link><description>%s</description><pubDate>%s</pubDate></item>\n",
			xmlEscaper.Replace(p.Title),
			xmlEscaper.Replace(base+p.URL),
			xmlEscaper.Replace(desc),
			p.Date.UTC().Format(rssDateFormat))
	}
	b.WriteString("</channel></rss>")
	return b.String(), true
}

// Registry holds the feed generators run at the end of every full build.
type Registry struct {
	generators []entry
}

type entry struct {
	gen   Generator
	pages func() []*page.Page
}

// Register adds a generator together with the function selecting its page
// set. The selector runs at write time so it sees the final index.
func (r *Registry) Register(gen Generator, pages func() []*page.Page) {
	r.generators = append(r.generators, entry{gen: gen, pages: pages})
}

// WriteAll generates every registered feed into outputDir and returns the
// filenames written. Feeds whose generator declines are skipped.
func (r *Registry) WriteAll(outputDir string, data map[string]any) ([]string, error) {
	var written []string
	for _, e := range r.generators {
		content, ok := e.gen.Generate(e.pages(), data)
		if !ok {
			continue
		}
		target := filepath.Join(outputDir, e.gen.Filename())
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return written, sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityError,
				"write feed "+e.gen.Filename())
		}
		written = append(written, e.gen.Filename())
	}
	return written, nil
}
