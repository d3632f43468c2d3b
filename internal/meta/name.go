package meta

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	datePrefixRE = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:-|$)`)
	nonSlugRE    = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	wordSplitRE  = regexp.MustCompile(`[\s\-_]+`)
)

// foldDiacritics decomposes the name and drops combining marks so accented
// characters survive slugification as their base letters.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// DateFromName parses a leading YYYY-MM-DD prefix from a filename stem.
// A well-formed-looking prefix that is not a real calendar date (such as
// 2024-13-40) is treated as "no match", never as an error.
func DateFromName(stem string) (time.Time, bool) {
	match := datePrefixRE.FindStringSubmatch(stem)
	if match == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; a mismatch means the
	// prefix was not a real date.
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// StripDate removes a valid YYYY-MM-DD- prefix from a filename stem.
func StripDate(stem string) string {
	if _, ok := DateFromName(stem); !ok {
		return stem
	}
	rest := datePrefixRE.ReplaceAllString(stem, "")
	return rest
}

// Slugify converts a filename stem into a URL slug: the date prefix and
// draft marker are dropped, diacritics folded, and any run of
// non-alphanumerics becomes a single hyphen. An empty result maps to "index".
func Slugify(stem string) string {
	cleaned := demark(stem)
	cleaned = StripDate(cleaned)
	cleaned = demark(cleaned)
	if folded, _, err := transform.String(foldDiacritics, cleaned); err == nil {
		cleaned = folded
	}
	cleaned = nonSlugRE.ReplaceAllString(cleaned, "-")
	cleaned = strings.ToLower(strings.Trim(cleaned, "-"))
	if cleaned == "" {
		return "index"
	}
	return cleaned
}

// Titleize converts a slug or filename stem to a human-readable title:
// separators become spaces and each word is capitalized.
func Titleize(name string) string {
	base := StripDate(demark(name))
	words := wordSplitRE.Split(base, -1)
	titled := make([]string, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		r := []rune(word)
		titled = append(titled, string(unicode.ToUpper(r[0]))+string(r[1:]))
	}
	if len(titled) == 0 {
		return "Untitled"
	}
	return strings.Join(titled, " ")
}

// NumberPrefix extracts a leading ordering number from a filename stem, for
// use as a sort key. When the stem carries a date prefix the number is
// looked for immediately after the date.
func NumberPrefix(stem string) (int, bool) {
	rest := StripDate(demark(stem))
	head, _, _ := strings.Cut(rest, "-")
	if head == "" {
		return 0, false
	}
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return n, true
}

// StripOrderPrefixes removes the date prefix and any ordering number from a
// filename stem, leaving the name used for alphabetical tie-breaks.
func StripOrderPrefixes(stem string) string {
	rest := StripDate(demark(stem))
	head, tail, found := strings.Cut(rest, "-")
	if found {
		if _, err := strconv.Atoi(head); err == nil {
			return tail
		}
	} else if _, err := strconv.Atoi(head); err == nil {
		return ""
	}
	return rest
}
