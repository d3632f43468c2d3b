// Package site orchestrates build passes over a content tree: discovery,
// metadata extraction, collection indexing, layout resolution, rendering,
// and output writing. Full builds regenerate everything; incremental builds
// re-render only the pages invalidated by a changed-path set.
package site

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/collection"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/discover"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/feeds"
	"git.home.luguber.info/inful/sitegen/internal/htmlutil"
	"git.home.luguber.info/inful/sitegen/internal/layout"
	"git.home.luguber.info/inful/sitegen/internal/meta"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/page"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

// Builder executes build passes. Passes are serialized: at most one is in
// flight, callers from multiple goroutines queue on the internal mutex.
type Builder struct {
	cfg         *config.Config
	log         *slog.Logger
	rec         metrics.Recorder
	markdown    render.Markdown
	concurrency int

	mu sync.Mutex
}

// Option customizes a Builder.
type Option func(*Builder)

// WithMetrics installs a metrics recorder (NoopRecorder by default).
func WithMetrics(rec metrics.Recorder) Option {
	return func(b *Builder) { b.rec = rec }
}

// WithConcurrency bounds the render worker pool (NumCPU by default).
func WithConcurrency(n int) Option {
	return func(b *Builder) { b.concurrency = n }
}

// WithMarkdown replaces the markdown renderer, mainly for tests.
func WithMarkdown(md render.Markdown) Option {
	return func(b *Builder) { b.markdown = md }
}

// NewBuilder constructs a Builder for one project.
func NewBuilder(cfg *config.Config, log *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		cfg:         cfg,
		log:         log,
		rec:         metrics.NoopRecorder{},
		markdown:    render.NewMarkdown(render.EscapeHighlighter{}),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// pass is the intermediate state of one build pass. The index and layout
// assignments are frozen before any rendering starts.
type pass struct {
	engine   *render.TemplateEngine
	pages    []*page.Page
	index    *collection.Index
	layouts  map[string]string
	graph    *DependencyGraph
	warnings []string
}

// Build runs a full pass: everything is re-rendered and the output
// directory is recreated from scratch. Any render error aborts the pass,
// partial output for a fresh build is worse than no output.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := b.newResult(false)
	log := b.log.With(slog.String("build_id", res.ID))
	log.Info("starting full build", slog.String("content", b.cfg.ContentRoot()))

	ps, err := b.prepare(ctx, res)
	if err != nil {
		return b.fail(res, log, err)
	}
	res.PagesTotal = len(ps.pages)
	b.rec.SetPagesTotal(len(ps.pages))

	if err := checkCollisions(ps.pages); err != nil {
		return b.fail(res, log, err)
	}

	start := time.Now()
	rendered := runOrdered(ps.pages, b.concurrency, func(p *page.Page) (string, error) {
		return b.renderOne(ps, p)
	})
	b.rec.ObserveStageDuration("render", time.Since(start))
	for _, r := range rendered {
		if r.Err != nil {
			return b.fail(res, log, r.Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return b.fail(res, log, sgerrors.Wrap(err, sgerrors.CategoryInternal, sgerrors.SeverityFatal, "build canceled"))
	}

	start = time.Now()
	out := b.cfg.OutputRoot()
	if err := os.RemoveAll(out); err != nil {
		return b.fail(res, log, sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "clean output directory"))
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return b.fail(res, log, sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "create output directory"))
	}
	for i, p := range ps.pages {
		if err := b.writePage(p, rendered[i].Value); err != nil {
			return b.fail(res, log, err)
		}
		res.ChangedURLs = append(res.ChangedURLs, p.URL)
	}
	res.PagesRendered = len(ps.pages)
	b.rec.AddPagesRendered(len(ps.pages))
	b.rec.ObserveStageDuration("write", time.Since(start))

	if err := b.copyAssets(); err != nil {
		return b.fail(res, log, err)
	}
	if err := b.writeFeeds(ps); err != nil {
		return b.fail(res, log, err)
	}

	res.Warnings = ps.warnings
	b.finish(res, log)
	return res, nil
}

// prepare runs the shared front half of a pass: data reload, discovery,
// extraction, indexing, and layout resolution. The returned pass is frozen,
// rendering may fan out over it freely.
func (b *Builder) prepare(ctx context.Context, res *Result) (*pass, error) {
	if err := b.cfg.ReloadData(); err != nil {
		return nil, err
	}

	start := time.Now()
	scanner, err := discover.NewScanner(b.cfg.ContentRoot(), b.cfg.IncludeDrafts)
	if err != nil {
		return nil, err
	}
	files, err := scanner.Scan()
	if err != nil {
		return nil, err
	}
	b.rec.ObserveStageDuration("discover", time.Since(start))
	if err := ctx.Err(); err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.CategoryInternal, sgerrors.SeverityFatal, "build canceled")
	}

	ps := &pass{layouts: make(map[string]string, len(files))}

	start = time.Now()
	renderFn := b.renderFunc()
	for _, f := range files {
		p, err := page.New(f.RelPath, f.Raw, f.ModTime, renderFn)
		if err != nil {
			b.log.Warn("excluding unreadable page", slog.String("path", f.RelPath), slog.Any("error", err))
			ps.warnings = append(ps.warnings, fmt.Sprintf("%s: %v", f.RelPath, err))
			continue
		}
		for _, w := range p.Warnings {
			b.log.Warn("metadata fallback", slog.String("path", p.Path), slog.Any("error", w))
			ps.warnings = append(ps.warnings, fmt.Sprintf("%s: %v", p.Path, w))
		}
		ps.pages = append(ps.pages, p)
	}
	b.rec.ObserveStageDuration("extract", time.Since(start))

	start = time.Now()
	ps.index = collection.NewIndex(ps.pages, b.cfg.IncludeDrafts)
	b.rec.ObserveStageDuration("index", time.Since(start))

	ps.engine, err = render.LoadTemplates(b.cfg.LayoutsRoot())
	if err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.CategoryConfig, sgerrors.SeverityFatal, "load layouts")
	}
	resolver := layout.NewResolver(ps.engine)
	for _, p := range ps.pages {
		id, err := resolver.Resolve(p)
		if err != nil {
			return nil, err
		}
		ps.layouts[p.Path] = id
	}

	ps.graph = NewDependencyGraph(b.cfg, ps.pages, ps.layouts)
	return ps, nil
}

// renderFunc builds the per-page content renderer: markdown goes through
// goldmark, HTML sources only get heading anchors assigned.
func (b *Builder) renderFunc() page.RenderFunc {
	return func(body string, sourceType page.SourceType) (string, []meta.Heading, error) {
		if sourceType == page.SourceHTML {
			return htmlutil.AnchorHeadings(body)
		}
		return b.markdown.Render(body)
	}
}

// renderOne produces the final document for one page: memoized content
// render, image path rewriting, layout application, and absolutization.
func (b *Builder) renderOne(ps *pass, p *page.Page) (string, error) {
	content, err := p.ContentHTML()
	if err != nil {
		return "", sgerrors.RenderError(err, p.Path)
	}
	headings, _ := p.Headings()

	content, err = htmlutil.RewriteImages(content, p.Folder)
	if err != nil {
		return "", sgerrors.RenderError(err, p.Path)
	}

	doc, err := ps.engine.Apply(ps.layouts[p.Path], render.Bindings{
		Page:     p,
		Pages:    ps.index,
		Content:  template.HTML(content),
		Headings: headings,
		Data:     b.cfg.Data,
	})
	if err != nil {
		return "", sgerrors.RenderError(err, p.Path)
	}

	if b.cfg.RootURL != "" {
		doc = htmlutil.Absolutize(doc, b.cfg.RootURL)
	}
	return doc, nil
}

// checkCollisions verifies every page owns a distinct output URL. Runs
// before any write so a collision never half-writes.
func checkCollisions(pages []*page.Page) error {
	seen := make(map[string]string, len(pages))
	for _, p := range pages {
		if first, ok := seen[p.URL]; ok {
			return sgerrors.CollisionError(p.URL, first, p.Path)
		}
		seen[p.URL] = p.Path
	}
	return nil
}

func (b *Builder) outputPath(url string) string {
	rel := strings.Trim(url, "/")
	return filepath.Join(b.cfg.OutputRoot(), filepath.FromSlash(rel), "index.html")
}

func (b *Builder) writePage(p *page.Page, doc string) error {
	target := b.outputPath(p.URL)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "create output directory").WithPath(p.Path)
	}
	if err := os.WriteFile(target, []byte(doc), 0o644); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "write page").WithPath(p.Path)
	}
	return nil
}

// copyAssets mirrors the project assets directory into the output. Only
// full builds call this, the directory is absent from change
// classification.
func (b *Builder) copyAssets() error {
	src := filepath.Join(b.cfg.ProjectRoot, "assets")
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	dst := filepath.Join(b.cfg.OutputRoot(), "assets")
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "copy assets")
	}
	return nil
}

// writeFeeds regenerates sitemap.xml and rss.xml. The sitemap covers all
// published pages; the RSS feed covers the newest entries of the configured
// feed group, or of the whole published set when no group is configured.
func (b *Builder) writeFeeds(ps *pass) error {
	var reg feeds.Registry
	reg.Register(feeds.SitemapGenerator{}, func() []*page.Page {
		return ps.index.Published().Sorted()
	})
	reg.Register(feeds.RSSGenerator{}, func() []*page.Page {
		list := ps.index.Published()
		if b.cfg.Feed.Group != "" {
			list = ps.index.Group(b.cfg.Feed.Group)
		}
		return list.Sorted().Latest(b.cfg.Feed.Count)
	})
	written, err := reg.WriteAll(b.cfg.OutputRoot(), b.cfg.Data)
	if err != nil {
		return err
	}
	if len(written) > 0 {
		b.log.Debug("feeds written", slog.Any("files", written))
	}
	return nil
}

func (b *Builder) newResult(incremental bool) *Result {
	return &Result{
		ID:          uuid.NewString(),
		Incremental: incremental,
		StartTime:   time.Now(),
	}
}

func (b *Builder) finish(res *Result, log *slog.Logger) {
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	res.Status = StatusSuccess
	outcome := metrics.OutcomeSuccess
	if len(res.Warnings) > 0 {
		res.Status = StatusWarning
		outcome = metrics.OutcomeWarning
	}
	b.rec.ObserveBuildDuration(res.Duration)
	b.rec.IncBuildOutcome(outcome)
	log.Info("build complete",
		slog.String("status", string(res.Status)),
		slog.Int("pages", res.PagesRendered),
		slog.Int("warnings", len(res.Warnings)),
		slog.Duration("took", res.Duration))
}

func (b *Builder) fail(res *Result, log *slog.Logger, err error) (*Result, error) {
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	res.Status = StatusFailed
	b.rec.ObserveBuildDuration(res.Duration)
	b.rec.IncBuildOutcome(metrics.OutcomeFailed)
	log.Error("build failed", slog.Any("error", err), slog.Duration("took", res.Duration))
	return res, err
}
