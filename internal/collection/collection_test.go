package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/page"
)

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func mustPage(t *testing.T, relPath, body string) *page.Page {
	t.Helper()
	p, err := page.New(relPath, []byte(body), baseTime, nil)
	require.NoError(t, err)
	return p
}

func urls(l List) []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.URL
	}
	return out
}

func TestGroup_SortedByDateDescending(t *testing.T) {
	// Scenario: two dated posts; the newer one sorts first.
	hello := mustPage(t, "posts/2024-01-15-hello.md", "# Hello\nFirst para. #greet\n")
	world := mustPage(t, "posts/2024-02-01-world.md", "no heading\n")
	idx := NewIndex([]*page.Page{hello, world}, false)

	got := idx.Group("posts").Sorted()
	require.Equal(t, []string{"/posts/world/", "/posts/hello/"}, urls(got))
	require.Equal(t, []string{"greet"}, hello.Tags)
	require.Equal(t, "Hello", hello.Title)
	require.Equal(t, "World", world.Title)
}

func TestSorted_NumericPrefixBreaksDateTie(t *testing.T) {
	// Both pages fall back to the same modification time.
	intro := mustPage(t, "docs/01-intro.md", "intro\n")
	setup := mustPage(t, "docs/02-setup.md", "setup\n")
	idx := NewIndex([]*page.Page{setup, intro}, false)

	got := idx.Group("docs").Sorted()
	require.Equal(t, []string{"/docs/intro/", "/docs/setup/"}, urls(got))
}

func TestSorted_NumberedBeforeUnnumberedOnEqualDates(t *testing.T) {
	numbered := mustPage(t, "docs/01-alpha.md", "a\n")
	plain := mustPage(t, "docs/beta.md", "b\n")

	got := List{plain, numbered}.Sorted()
	require.Equal(t, []string{"/docs/alpha/", "/docs/beta/"}, urls(got))
}

func TestSorted_IsIdempotentAndTotal(t *testing.T) {
	pages := List{
		mustPage(t, "posts/2024-01-15-b.md", "x\n"),
		mustPage(t, "posts/2024-01-15-a.md", "x\n"),
		mustPage(t, "docs/02-two.md", "x\n"),
		mustPage(t, "docs/01-one.md", "x\n"),
		mustPage(t, "notes/zulu.md", "x\n"),
	}

	once := pages.Sorted()
	twice := once.Sorted()
	require.Equal(t, urls(once), urls(twice))

	// Antisymmetry: for every distinct pair exactly one direction holds.
	for i, a := range once {
		require.False(t, Less(a, a))
		for _, b := range once[i+1:] {
			require.NotEqual(t, Less(a, b), Less(b, a))
		}
	}
}

func TestWithTag_DraftPolicy(t *testing.T) {
	pub := mustPage(t, "posts/yes.md", "tagged #shared\n")
	draft := mustPage(t, "posts/_wip.md", "tagged #shared\n")

	hidden := NewIndex([]*page.Page{pub, draft}, false)
	require.Equal(t, []string{"/posts/yes/"}, urls(hidden.WithTag("shared")))

	visible := NewIndex([]*page.Page{pub, draft}, true)
	require.Len(t, visible.WithTag("shared"), 2)
}

func TestPublishedDrafts_Partition(t *testing.T) {
	pub := mustPage(t, "a.md", "x\n")
	draft := mustPage(t, "_b.md", "x\n")
	idx := NewIndex([]*page.Page{pub, draft}, false)

	require.Len(t, idx.Published(), 1)
	require.Len(t, idx.Drafts(), 1)
	require.Len(t, idx.All(), 2)
}

func TestLatest_FirstNOfSortedPublished(t *testing.T) {
	a := mustPage(t, "posts/2024-01-01-old.md", "x\n")
	b := mustPage(t, "posts/2024-02-01-mid.md", "x\n")
	c := mustPage(t, "posts/2024-03-01-new.md", "x\n")
	d := mustPage(t, "posts/_2024-04-01-draft.md", "x\n")
	idx := NewIndex([]*page.Page{a, b, c, d}, false)

	got := idx.Latest(2)
	require.Equal(t, []string{"/posts/new/", "/posts/mid/"}, urls(got))

	// Asking for more than exists returns everything published.
	require.Len(t, idx.Latest(10), 3)
}

func TestTags_SortedUnique(t *testing.T) {
	a := mustPage(t, "a.md", "#zebra and #apple\n")
	b := mustPage(t, "b.md", "#apple again\n")
	idx := NewIndex([]*page.Page{a, b}, false)

	require.Equal(t, []string{"apple", "zebra"}, idx.Tags())
	require.Len(t, idx.WithTag("apple"), 2)
}
