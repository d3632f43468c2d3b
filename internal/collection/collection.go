// Package collection provides the read-only, per-build-pass queryable view
// over the full page set. The index is built once after discovery and frozen
// before rendering begins; there is no incremental index maintenance because
// tag aggregation and ordering are global properties.
package collection

import (
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitegen/internal/meta"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

// List is an ordered sequence of pages with chainable query helpers, exposed
// to templates as the result type of every index query.
type List []*page.Page

// Index is the queryable view over all pages of one build pass. It does not
// own the pages; its lifetime is bounded by the pass.
type Index struct {
	all           List
	includeDrafts bool

	byGroup map[string]List
	byTag   map[string]List

	sortOnce   sync.Once
	sortedPubs List
}

// NewIndex builds the index from the complete page set of a build pass.
// When includeDrafts is set, draft pages participate in group and tag
// queries; otherwise those queries see published pages only.
func NewIndex(pages []*page.Page, includeDrafts bool) *Index {
	idx := &Index{
		all:           append(List(nil), pages...),
		includeDrafts: includeDrafts,
		byGroup:       make(map[string]List),
		byTag:         make(map[string]List),
	}
	for _, p := range pages {
		idx.byGroup[p.Group] = append(idx.byGroup[p.Group], p)
		for _, tag := range p.Tags {
			idx.byTag[tag] = append(idx.byTag[tag], p)
		}
	}
	return idx
}

// All returns every page of the pass, drafts included.
func (idx *Index) All() List { return idx.all }

// Group returns the pages whose group equals name, subject to the pass's
// draft policy.
func (idx *Index) Group(name string) List {
	return idx.applyDraftPolicy(idx.byGroup[name])
}

// WithTag returns the pages carrying tag, subject to the pass's draft policy.
func (idx *Index) WithTag(tag string) List {
	return idx.applyDraftPolicy(idx.byTag[tag])
}

// Tags returns every tag present in the pass, sorted, for tag listing pages.
func (idx *Index) Tags() []string {
	tags := make([]string, 0, len(idx.byTag))
	for tag := range idx.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Published returns the non-draft pages.
func (idx *Index) Published() List { return idx.all.Published() }

// Drafts returns the draft pages.
func (idx *Index) Drafts() List { return idx.all.Drafts() }

// Latest returns the first n of the sorted published pages.
func (idx *Index) Latest(n int) List {
	idx.sortOnce.Do(func() { idx.sortedPubs = idx.Published().Sorted() })
	if n > len(idx.sortedPubs) {
		n = len(idx.sortedPubs)
	}
	return idx.sortedPubs[:n]
}

func (idx *Index) applyDraftPolicy(pages List) List {
	if idx.includeDrafts {
		return pages
	}
	return pages.Published()
}

// Published returns the non-draft pages of the list, in order.
func (l List) Published() List {
	out := make(List, 0, len(l))
	for _, p := range l {
		if !p.Draft {
			out = append(out, p)
		}
	}
	return out
}

// Drafts returns the draft pages of the list, in order.
func (l List) Drafts() List {
	out := make(List, 0, len(l))
	for _, p := range l {
		if p.Draft {
			out = append(out, p)
		}
	}
	return out
}

// Sorted returns a new list in the canonical total order: date descending,
// then numeric filename prefix ascending (absent sorts last), then filename
// (with date and number prefixes stripped) ascending. The filename tie-break
// makes the order strict and runs reproducible.
func (l List) Sorted() List {
	out := append(List(nil), l...)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})
	return out
}

// Latest returns the first n pages of the list.
func (l List) Latest(n int) List {
	if n > len(l) {
		n = len(l)
	}
	return l[:n]
}

// Less is the canonical strict ordering over pages.
func Less(a, b *page.Page) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	an, aok := meta.NumberPrefix(a.Stem)
	bn, bok := meta.NumberPrefix(b.Stem)
	switch {
	case aok && bok && an != bn:
		return an < bn
	case aok != bok:
		// Numbered files precede unnumbered ones (absent = +infinity).
		return aok
	}
	aname := strings.ToLower(meta.StripOrderPrefixes(a.Stem))
	bname := strings.ToLower(meta.StripOrderPrefixes(b.Stem))
	if aname != bname {
		return aname < bname
	}
	// Last resort: full filename keeps the order strict even for pages that
	// differ only in their prefixes.
	return a.Filename < b.Filename
}
