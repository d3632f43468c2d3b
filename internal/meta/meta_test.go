package meta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fallback = time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

func TestDateFromName_ValidPrefix_ParsesDate(t *testing.T) {
	d, ok := DateFromName("2024-01-15-hello-world")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)
}

func TestDateFromName_NoPrefix_NoMatch(t *testing.T) {
	_, ok := DateFromName("hello-world")
	require.False(t, ok)
}

func TestDateFromName_ImpossibleDate_FallsThrough(t *testing.T) {
	// Well-formed-looking but not a real calendar date.
	_, ok := DateFromName("2024-13-40-hello")
	require.False(t, ok)
}

func TestExtract_DatelessFile_UsesModTime(t *testing.T) {
	m, err := Extract("posts/hello.md", []byte("# Hi\n"), fallback)
	require.NoError(t, err)
	require.Equal(t, fallback, m.Date)
}

func TestExtract_DatedFile_SlugExcludesPrefix(t *testing.T) {
	m, err := Extract("posts/2024-01-15-hello.md", []byte("# Hello\nFirst para. #greet\n"), fallback)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), m.Date)
	require.Equal(t, "hello", m.Slug)
	require.Equal(t, "/posts/hello/", m.URL)
	require.Equal(t, "posts", m.Group)
	require.Equal(t, "posts", m.LayoutKey)
	require.Equal(t, []string{"greet"}, m.Tags)
	require.Equal(t, "Hello", m.Title)
}

func TestExtract_NoHeading_TitleFromSlug(t *testing.T) {
	m, err := Extract("posts/2024-02-01-world.md", []byte("no heading here\n"), fallback)
	require.NoError(t, err)
	require.Equal(t, "World", m.Title)
}

func TestExtract_RootLevelFile_EmptyGroupDefaultLayout(t *testing.T) {
	m, err := Extract("about.md", []byte("About us.\n"), fallback)
	require.NoError(t, err)
	require.Equal(t, "", m.Group)
	require.Equal(t, "default", m.LayoutKey)
	require.Equal(t, "/about/", m.URL)
}

func TestExtract_IndexFile_MapsToContainingDirectory(t *testing.T) {
	m, err := Extract("docs/index.md", []byte("Docs\n"), fallback)
	require.NoError(t, err)
	require.Equal(t, "/docs/", m.URL)

	root, err := Extract("index.md", []byte("Home\n"), fallback)
	require.NoError(t, err)
	require.Equal(t, "/", root.URL)
}

func TestExtract_InvalidUTF8_Fails(t *testing.T) {
	_, err := Extract("bad.md", []byte{0xff, 0xfe, 0xfd}, fallback)
	require.Error(t, err)
}

func TestIsDraftPath_MarkerVariants(t *testing.T) {
	cases := map[string]bool{
		"_draft.md":                  true,
		"posts/_wip.md":              true,
		"_drafts/post.md":            true,
		"posts/2024-01-15-_idea.md":  true, // marker after date prefix
		"_2024-01-15-idea.md":        true, // marker before date prefix
		"posts/2024-01-15-hello.md":  false,
		"about.md":                   false,
		"docs/getting_started.md":    false,
		"posts/deep/_nested/page.md": true,
	}
	for p, want := range cases {
		require.Equal(t, want, IsDraftPath(p), "path %q", p)
	}
}

func TestSlugify_StripsDateAndMarker(t *testing.T) {
	require.Equal(t, "hello-world", Slugify("2024-01-15-hello-world"))
	require.Equal(t, "idea", Slugify("_2024-01-15-idea"))
	require.Equal(t, "idea", Slugify("2024-01-15-_idea"))
	require.Equal(t, "getting-started", Slugify("Getting Started!"))
	require.Equal(t, "uber-uns", Slugify("Über-uns"))
	require.Equal(t, "index", Slugify("---"))
}

func TestURLForPath_MatchesExtraction(t *testing.T) {
	require.Equal(t, "/posts/hello/", URLForPath("posts/2024-03-01-hello.md"))
	require.Equal(t, "/", URLForPath("index.md"))
	require.Equal(t, "/about/", URLForPath("about/index.md"))
	require.Equal(t, "/wip/secret/", URLForPath("_wip/2024-05-01-_secret.md"))
}

func TestTitleize_Examples(t *testing.T) {
	require.Equal(t, "Hello World", Titleize("2024-01-15-hello-world"))
	require.Equal(t, "Getting Started", Titleize("getting_started"))
	require.Equal(t, "Untitled", Titleize(""))
}

func TestExtractTags_OrderAndDedup(t *testing.T) {
	tags := ExtractTags("intro #golang then #web and #golang again, plus #topic/sub")
	require.Equal(t, []string{"golang", "web", "topic/sub"}, tags)
}

func TestExtractTags_ShortTokensIgnored(t *testing.T) {
	require.Empty(t, ExtractTags("#a #ab #1abc and # lone"))
}

func TestStripHashtags_KeepsWords(t *testing.T) {
	require.Equal(t, "Hello world", StripHashtags("Hello #world"))
}

func TestFirstParagraph_SkipsHeadingAndStopsAtBlank(t *testing.T) {
	text := "# Title\nFirst paragraph line one.\nLine two.\n\nSecond paragraph.\n"
	require.Equal(t, "First paragraph line one. Line two.", FirstParagraph(text, DescriptionLimit))
}

func TestFirstParagraph_TruncatesAtWordBoundary(t *testing.T) {
	long := "alpha beta gamma delta epsilon"
	got := FirstParagraph(long, 15)
	require.Equal(t, "alpha beta…", got)
	require.LessOrEqual(t, len([]rune(got)), 15)
}

func TestFirstParagraph_StripsMarkup(t *testing.T) {
	text := "Hello <em>world</em> {{ site.title }} done\n"
	require.Equal(t, "Hello world done", FirstParagraph(text, DescriptionLimit))
}

func TestNumberPrefix_Variants(t *testing.T) {
	n, ok := NumberPrefix("01-intro")
	require.True(t, ok)
	require.Equal(t, 1, n)

	n, ok = NumberPrefix("2024-01-15-03-setup")
	require.True(t, ok)
	require.Equal(t, 3, n)

	_, ok = NumberPrefix("intro")
	require.False(t, ok)

	_, ok = NumberPrefix("2024-01-15-intro")
	require.False(t, ok)
}

func TestStripOrderPrefixes_Variants(t *testing.T) {
	require.Equal(t, "intro", StripOrderPrefixes("01-intro"))
	require.Equal(t, "setup", StripOrderPrefixes("2024-01-15-02-setup"))
	require.Equal(t, "intro", StripOrderPrefixes("2024-01-15-intro"))
	require.Equal(t, "plain", StripOrderPrefixes("plain"))
}

func TestParseOverride_NoBlock_ReturnsBodyUnchanged(t *testing.T) {
	o, body, err := ParseOverride([]byte("# Title\ntext\n"))
	require.NoError(t, err)
	require.Equal(t, Override{}, o)
	require.Equal(t, "# Title\ntext\n", body)
}

func TestParseOverride_LayoutAndTags(t *testing.T) {
	input := "---\nlayout: wide\ntags: [one, two]\nauthor: ignored\n---\nbody\n"
	o, body, err := ParseOverride([]byte(input))
	require.NoError(t, err)
	require.Equal(t, "wide", o.Layout)
	require.Equal(t, []string{"one", "two"}, o.Tags)
	require.Equal(t, "body\n", body)
}

func TestParseOverride_MissingClose_ReturnsError(t *testing.T) {
	_, _, err := ParseOverride([]byte("---\nlayout: wide\nbody\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestExtract_MalformedOverride_DegradesWithWarning(t *testing.T) {
	m, err := Extract("posts/a.md", []byte("---\nlayout: [unclosed\n"), fallback)
	require.NoError(t, err)
	require.NotEmpty(t, m.Warnings)
	require.Empty(t, m.Override.Layout)
}

func TestExtract_OverrideTagsPrecedeBodyTags(t *testing.T) {
	input := "---\ntags: [featured]\n---\nBody with #golang and #featured.\n"
	m, err := Extract("posts/a.md", []byte(input), fallback)
	require.NoError(t, err)
	require.Equal(t, []string{"featured", "golang"}, m.Tags)
}

func TestExtract_DraftDirectory_URLDropsMarker(t *testing.T) {
	m, err := Extract("_drafts/2024-01-01-soon.md", []byte("# Soon\n"), fallback)
	require.NoError(t, err)
	require.True(t, m.Draft)
	require.Equal(t, "/drafts/soon/", m.URL)
	require.Equal(t, "drafts", m.Group)
}
