// Package page holds the Page model: one renderable content unit derived
// from a single source file. Pages are immutable after construction except
// for the one-time memoization of rendered content.
package page

import (
	"path"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/meta"
)

// SourceType distinguishes how a source file's body reaches the output.
type SourceType string

const (
	SourceMarkdown SourceType = "markdown"
	SourceHTML     SourceType = "html"
)

// RenderFunc renders a page body (hashtags already stripped by the caller's
// adapter) into HTML and the headings found in the rendered output.
type RenderFunc func(body string, sourceType SourceType) (html string, headings []meta.Heading, err error)

// Page is one content source file with its derived metadata.
//
// All exported fields are fixed at construction. Rendered content is
// computed at most once per build pass; a Page is discarded and rebuilt
// wholesale when its source file changes.
type Page struct {
	Path       string // source path relative to the content root, immutable identity
	Folder     string // directory part of Path, "" for root-level files
	Filename   string
	Stem       string // filename without extension, prefixes intact (sort key input)
	SourceType SourceType

	Title       string
	Description string
	URL         string
	Slug        string
	Group       string
	LayoutKey   string
	Date        time.Time
	Tags        []string
	Draft       bool
	Override    meta.Override
	RawBody     string

	// Warnings holds recoverable extraction problems for the orchestrator to report.
	Warnings []error

	render      RenderFunc
	renderOnce  sync.Once
	contentHTML string
	headings    []meta.Heading
	renderErr   error
}

// New constructs a Page from a source file's path, bytes, and modification
// time. The error is non-nil only for undecodable content; that page is
// excluded from the build while the rest continues.
func New(relPath string, raw []byte, modTime time.Time, render RenderFunc) (*Page, error) {
	m, err := meta.Extract(relPath, raw, modTime)
	if err != nil {
		return nil, err
	}

	folder, filename := path.Split(relPath)
	folder = strings.Trim(folder, "/")

	st := SourceMarkdown
	if strings.EqualFold(path.Ext(filename), ".html") {
		st = SourceHTML
	}

	return &Page{
		Path:        relPath,
		Folder:      folder,
		Filename:    filename,
		Stem:        strings.TrimSuffix(filename, path.Ext(filename)),
		SourceType:  st,
		Title:       m.Title,
		Description: m.Description,
		URL:         m.URL,
		Slug:        m.Slug,
		Group:       m.Group,
		LayoutKey:   m.LayoutKey,
		Date:        m.Date,
		Tags:        m.Tags,
		Draft:       m.Draft,
		Override:    m.Override,
		RawBody:     m.Body,
		Warnings:    m.Warnings,
		render:      render,
	}, nil
}

// ContentHTML returns the rendered body, computing it on first use. The
// result is memoized for the lifetime of the Page (one build pass).
func (p *Page) ContentHTML() (string, error) {
	p.renderOnce.Do(p.doRender)
	return p.contentHTML, p.renderErr
}

// Headings returns the (level, text, anchor) sequence of the rendered body
// for table-of-contents use. Rendering is shared with ContentHTML.
func (p *Page) Headings() ([]meta.Heading, error) {
	p.renderOnce.Do(p.doRender)
	return p.headings, p.renderErr
}

func (p *Page) doRender() {
	if p.render == nil {
		p.contentHTML = ""
		return
	}
	p.contentHTML, p.headings, p.renderErr = p.render(meta.StripHashtags(p.RawBody), p.SourceType)
}
