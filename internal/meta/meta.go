// Package meta derives page metadata from a source file's path and raw text.
//
// Every function here is pure: metadata is a deterministic function of
// (relative path, bytes, modification time), which keeps the extraction
// testable without filesystem fixtures. Recoverable input problems degrade
// to fallback values and are reported as warnings; only undecodable bytes
// fail extraction outright.
package meta

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Heading is one document heading recorded for table-of-contents use.
type Heading struct {
	Level  int
	Text   string
	Anchor string
}

// Override is the optional per-page annotation block. Only the layout and
// tags keys are honored; anything else in the block is ignored.
type Override struct {
	Layout string   `yaml:"layout"`
	Tags   []string `yaml:"tags"`
}

// Metadata holds everything derived from a single source file.
type Metadata struct {
	Title       string
	Date        time.Time
	URL         string
	Slug        string
	Tags        []string
	Draft       bool
	Group       string
	LayoutKey   string
	Override    Override
	Description string

	// Body is the raw text with the override block removed. Hashtag markers
	// are still present; they are stripped immediately before rendering.
	Body string

	// Warnings collects recoverable extraction problems for the caller to log.
	Warnings []error
}

// Extract derives all metadata for the file at relPath with content raw.
// modTime is the fallback date when the filename carries no date prefix.
//
// The returned error is non-nil only for undecodable bytes; every other
// problem degrades to a fallback value recorded in Warnings.
func Extract(relPath string, raw []byte, modTime time.Time) (Metadata, error) {
	if !utf8.Valid(raw) {
		return Metadata{}, sgerrors.New(sgerrors.CategoryMalformedInput, sgerrors.SeverityError,
			"file is not valid UTF-8").WithPath(relPath)
	}

	var m Metadata

	override, body, err := ParseOverride(raw)
	if err != nil {
		m.Warnings = append(m.Warnings,
			sgerrors.MalformedInputError("invalid override block, using defaults").WithPath(relPath))
		body = string(raw)
	}
	m.Override = override
	m.Body = body

	dir, file := path.Split(relPath)
	stem := strings.TrimSuffix(file, path.Ext(file))

	m.Draft = IsDraftPath(relPath)

	if d, ok := DateFromName(demark(stem)); ok {
		m.Date = d
	} else {
		m.Date = modTime
	}

	m.Slug = Slugify(stem)
	m.URL = urlFor(dir, m.Slug)
	m.Group = groupFor(dir)
	if m.Group != "" {
		m.LayoutKey = m.Group
	} else {
		m.LayoutKey = "default"
	}

	m.Tags = mergeTags(override.Tags, ExtractTags(body))
	m.Title = extractTitle(body, m.Slug)
	m.Description = FirstParagraph(StripHashtags(body), DescriptionLimit)

	return m, nil
}

// DescriptionLimit is the maximum length of a page description.
const DescriptionLimit = 160

// IsDraftPath reports whether the path marks a draft: any path segment, or
// the filename after removing a date prefix, begins with the marker '_'.
// The marker may sit before or after the date prefix.
func IsDraftPath(relPath string) bool {
	segments := strings.Split(path.Clean(relPath), "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "_") {
			return true
		}
		if i == len(segments)-1 {
			stem := strings.TrimSuffix(seg, path.Ext(seg))
			if strings.HasPrefix(StripDate(stem), "_") {
				return true
			}
		}
	}
	return false
}

// extractTitle returns the first level-1 heading in the body, falling back
// to a title derived from the slug.
func extractTitle(body, slug string) string {
	for _, line := range strings.Split(body, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "# ") {
			return strings.TrimSpace(strings.TrimLeft(stripped, "# "))
		}
	}
	return Titleize(slug)
}

// mergeTags prepends override tags to body tags, preserving first-seen order.
func mergeTags(override, body []string) []string {
	seen := make(map[string]struct{}, len(override)+len(body))
	merged := make([]string, 0, len(override)+len(body))
	for _, list := range [][]string{override, body} {
		for _, tag := range list {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			merged = append(merged, tag)
		}
	}
	return merged
}

// demark removes a single leading draft marker from a name segment.
func demark(name string) string {
	return strings.TrimPrefix(name, "_")
}

// urlFor maps a directory prefix and slug to the canonical output URL.
// A file named index maps to its containing directory; every URL ends in "/".
func urlFor(dir, slug string) string {
	var segments []string
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		if seg == "" || seg == "." {
			continue
		}
		segments = append(segments, demark(seg))
	}
	if slug != "index" {
		segments = append(segments, slug)
	}
	if len(segments) == 0 {
		return "/"
	}
	return fmt.Sprintf("/%s/", strings.Join(segments, "/"))
}

// URLForPath returns the canonical URL a content file at relPath publishes
// to. It is derived from the path alone, so callers can map a deleted file
// back to its former output location.
func URLForPath(relPath string) string {
	dir, file := path.Split(relPath)
	stem := strings.TrimSuffix(file, path.Ext(file))
	return urlFor(dir, Slugify(stem))
}

// groupFor returns the first path segment under the content root, with the
// draft marker stripped; empty for root-level files.
func groupFor(dir string) string {
	trimmed := strings.Trim(dir, "/")
	if trimmed == "" || trimmed == "." {
		return ""
	}
	first := strings.SplitN(trimmed, "/", 2)[0]
	return demark(first)
}
