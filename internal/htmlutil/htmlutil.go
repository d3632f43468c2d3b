// Package htmlutil rewrites rendered HTML: image sources are pointed at the
// asset tree, root-relative URLs are absolutized against the configured root
// URL, and headings in passthrough HTML get anchors assigned.
package htmlutil

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/sitegen/internal/meta"
)

// urlSkipPrefixes are left untouched by every rewrite.
var urlSkipPrefixes = []string{
	"http://", "https://", "//", "mailto:", "tel:", "#", "javascript:",
}

func skippable(url string) bool {
	for _, prefix := range urlSkipPrefixes {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// RewriteImagePath maps a page-relative image source into the published
// asset tree. Absolute, external, and template-expression sources pass
// through unchanged.
func RewriteImagePath(src, folder string) string {
	if src == "" || skippable(src) || strings.HasPrefix(src, "/") || strings.Contains(src, "{{") {
		return src
	}
	return "/assets/images/" + path.Join(folder, src)
}

// RewriteImages rewrites every relative img src in the fragment via
// RewriteImagePath.
func RewriteImages(fragment, folder string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html fragment: %w", err)
	}
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		s.SetAttr("src", RewriteImagePath(src, folder))
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize html fragment: %w", err)
	}
	return out, nil
}

// AnchorHeadings assigns id attributes to h1–h6 elements in a passthrough
// HTML fragment and reports the headings in document order. Existing ids are
// kept. Duplicate anchors get a numeric suffix, matching the markdown path.
func AnchorHeadings(fragment string) (string, []meta.Heading, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", nil, fmt.Errorf("parse html fragment: %w", err)
	}

	var headings []meta.Heading
	counts := make(map[string]int)
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level := int(s.Nodes[0].Data[1] - '0')
		text := strings.TrimSpace(s.Text())

		anchor, ok := s.Attr("id")
		if !ok || anchor == "" {
			base := meta.Slugify(text)
			counts[base]++
			anchor = base
			if n := counts[base]; n > 1 {
				anchor = fmt.Sprintf("%s-%d", base, n)
			}
			s.SetAttr("id", anchor)
		}
		headings = append(headings, meta.Heading{Level: level, Text: text, Anchor: anchor})
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", nil, fmt.Errorf("serialize html fragment: %w", err)
	}
	return out, headings, nil
}

// urlAttrRE finds href, src, and action attribute values in a document.
var urlAttrRE = regexp.MustCompile(`(\b(?:href|src|action)=["'])([^"']+)(["'])`)

// JoinRootURL joins a root URL and a path without doubling slashes.
func JoinRootURL(rootURL, p string) string {
	if rootURL == "" {
		return p
	}
	base := strings.TrimRight(rootURL, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}

// Absolutize rewrites root-relative href/src/action URLs in a full document
// to absolute URLs under rootURL. External URLs, anchors, mailto/tel, and
// javascript: links are unchanged. Works on the serialized document rather
// than a parse tree so doctype and head structure pass through byte-exact.
func Absolutize(document, rootURL string) string {
	if rootURL == "" {
		return document
	}
	return urlAttrRE.ReplaceAllStringFunc(document, func(match string) string {
		parts := urlAttrRE.FindStringSubmatch(match)
		url := parts[2]
		if url == "" || skippable(url) {
			return match
		}
		return parts[1] + JoinRootURL(rootURL, url) + parts[3]
	})
}
