package meta

import (
	"regexp"
	"strings"
)

// hashtagRE matches #word tokens: a letter followed by at least two more
// alphanumerics, with optional /segment suffixes for hierarchical tags.
var hashtagRE = regexp.MustCompile(`#([a-zA-Z][a-zA-Z0-9]{2,}(?:/[a-zA-Z0-9]+)*)`)

// ExtractTags returns the hashtags found in text, without the # marker, in
// first-occurrence order with duplicates removed.
func ExtractTags(text string) []string {
	matches := hashtagRE.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		tags = append(tags, m[1])
	}
	return tags
}

// StripHashtags removes the # marker from hashtag tokens, keeping the words.
func StripHashtags(text string) string {
	return hashtagRE.ReplaceAllString(text, "$1")
}

var (
	htmlTagRE  = regexp.MustCompile(`<[^>]+>`)
	templExpRE = regexp.MustCompile(`\{[%#{].*?[%#}]\}`)
)

// FirstParagraph extracts the first block of body text: heading lines are
// skipped, and the paragraph ends at the first blank line or heading. HTML
// tags and template expressions are stripped, whitespace is collapsed, and
// the result is truncated at a word boundary to limit runes with a trailing
// ellipsis when cut.
func FirstParagraph(text string, limit int) string {
	var collected []string
	started := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			if started {
				goto done
			}
		case strings.HasPrefix(trimmed, "#"):
			if started {
				goto done
			}
		default:
			started = true
			collected = append(collected, trimmed)
		}
	}
done:
	para := strings.Join(collected, " ")
	para = htmlTagRE.ReplaceAllString(para, "")
	para = templExpRE.ReplaceAllString(para, "")
	para = strings.Join(strings.Fields(para), " ")
	return truncateAtWord(para, limit)
}

// truncateAtWord cuts s to at most limit runes, never mid-word, appending an
// ellipsis when anything was removed.
func truncateAtWord(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	// Leave room for the ellipsis so the result never exceeds limit.
	cut := string(runes[:limit-1])
	if idx := strings.LastIndexAny(cut, " \t"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ") + "…"
}
