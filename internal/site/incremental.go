package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/discover"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/meta"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

// Rebuild runs an incremental pass for a set of changed project-relative
// paths. The collection index is always rebuilt in full; only the
// invalidated pages are re-rendered and re-written. A render failure on one
// page is isolated: it is reported and that page's prior output stays in
// place while the rest of the pass continues.
func (b *Builder) Rebuild(ctx context.Context, changed []string) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := b.newResult(true)
	log := b.log.With(slog.String("build_id", res.ID))
	log.Info("starting incremental build", slog.Int("changed", len(changed)))

	ps, err := b.prepare(ctx, res)
	if err != nil {
		return b.fail(res, log, err)
	}
	res.PagesTotal = len(ps.pages)
	b.rec.SetPagesTotal(len(ps.pages))

	if err := checkCollisions(ps.pages); err != nil {
		return b.fail(res, log, err)
	}

	invalid, full := ps.graph.Invalidate(changed)
	var renderSet []*page.Page
	if full {
		renderSet = ps.pages
	} else {
		for _, p := range ps.pages {
			if invalid[p.Path] {
				renderSet = append(renderSet, p)
			}
		}
	}
	b.rec.AddPagesInvalidated(len(renderSet))
	log.Debug("invalidation computed",
		slog.Bool("full", full),
		slog.Int("pages", len(renderSet)))

	start := time.Now()
	rendered := runOrdered(renderSet, b.concurrency, func(p *page.Page) (string, error) {
		return b.renderOne(ps, p)
	})
	b.rec.ObserveStageDuration("render", time.Since(start))
	if err := ctx.Err(); err != nil {
		return b.fail(res, log, sgerrors.Wrap(err, sgerrors.CategoryInternal, sgerrors.SeverityFatal, "build canceled"))
	}

	start = time.Now()
	if err := os.MkdirAll(b.cfg.OutputRoot(), 0o755); err != nil {
		return b.fail(res, log, sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "create output directory"))
	}
	for i, p := range renderSet {
		if rendered[i].Err != nil {
			log.Error("page render failed, prior output kept",
				slog.String("path", p.Path), slog.Any("error", rendered[i].Err))
			ps.warnings = append(ps.warnings, fmt.Sprintf("%s: %v", p.Path, rendered[i].Err))
			continue
		}
		if err := b.writePage(p, rendered[i].Value); err != nil {
			return b.fail(res, log, err)
		}
		res.ChangedURLs = append(res.ChangedURLs, p.URL)
		res.PagesRendered++
	}
	b.rec.AddPagesRendered(res.PagesRendered)
	b.rec.ObserveStageDuration("write", time.Since(start))

	res.ChangedURLs = append(res.ChangedURLs, b.removeOrphans(ps, changed, log)...)

	if err := b.writeFeeds(ps); err != nil {
		return b.fail(res, log, err)
	}

	res.Warnings = ps.warnings
	b.finish(res, log)
	return res, nil
}

// removeOrphans deletes the output of content files that were changed away,
// deleted or renamed, so stale pages do not linger until the next full
// build. The former URL is derived from the path alone; a URL owned by a
// live page is left untouched.
func (b *Builder) removeOrphans(ps *pass, changed []string, log *slog.Logger) []string {
	live := make(map[string]bool, len(ps.pages))
	for _, p := range ps.pages {
		live[p.URL] = true
	}

	var removed []string
	prefix := b.cfg.ContentDir + "/"
	for _, raw := range changed {
		rel := path.Clean(strings.ReplaceAll(raw, "\\", "/"))
		inner, ok := strings.CutPrefix(rel, prefix)
		if !ok || !discover.IsContentPath(inner) {
			continue
		}
		if strings.HasPrefix(inner, discover.LayoutsDir+"/") {
			continue
		}
		if _, err := os.Stat(filepath.Join(b.cfg.ProjectRoot, filepath.FromSlash(rel))); err == nil {
			continue
		}
		url := meta.URLForPath(inner)
		if live[url] {
			continue
		}
		target := b.outputPath(url)
		if err := os.Remove(target); err != nil {
			if !os.IsNotExist(err) {
				log.Warn("removing stale output", slog.String("url", url), slog.Any("error", err))
			}
			continue
		}
		if url != "/" {
			// Drops the page directory when nothing else lives in it.
			_ = os.Remove(filepath.Dir(target))
		}
		log.Debug("stale output removed", slog.String("url", url))
		removed = append(removed, url)
	}
	return removed
}
