package page

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/meta"
)

var modTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func countingRender(calls *int) RenderFunc {
	return func(body string, _ SourceType) (string, []meta.Heading, error) {
		*calls++
		return "<p>" + body + "</p>", []meta.Heading{{Level: 1, Text: "T", Anchor: "t"}}, nil
	}
}

func TestNew_PopulatesMetadata(t *testing.T) {
	p, err := New("posts/2024-01-15-hello.md", []byte("# Hello\nFirst. #greet\n"), modTime, nil)
	require.NoError(t, err)
	require.Equal(t, "posts/2024-01-15-hello.md", p.Path)
	require.Equal(t, "posts", p.Folder)
	require.Equal(t, "2024-01-15-hello", p.Stem)
	require.Equal(t, SourceMarkdown, p.SourceType)
	require.Equal(t, "/posts/hello/", p.URL)
	require.Equal(t, []string{"greet"}, p.Tags)
}

func TestNew_HTMLSource(t *testing.T) {
	p, err := New("snippets/embed.html", []byte("<div>x</div>\n"), modTime, nil)
	require.NoError(t, err)
	require.Equal(t, SourceHTML, p.SourceType)
}

func TestNew_InvalidBytes_Excluded(t *testing.T) {
	_, err := New("bad.md", []byte{0xff, 0xfe}, modTime, nil)
	require.Error(t, err)
}

func TestContentHTML_MemoizedSingleRender(t *testing.T) {
	calls := 0
	p, err := New("a.md", []byte("Body with #golang tag\n"), modTime, countingRender(&calls))
	require.NoError(t, err)

	first, err := p.ContentHTML()
	require.NoError(t, err)
	second, err := p.ContentHTML()
	require.NoError(t, err)
	_, err = p.Headings()
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestContentHTML_HashtagsStrippedBeforeRender(t *testing.T) {
	var got string
	p, err := New("a.md", []byte("Body with #golang tag\n"), modTime,
		func(body string, _ SourceType) (string, []meta.Heading, error) {
			got = body
			return body, nil, nil
		})
	require.NoError(t, err)

	html, err := p.ContentHTML()
	require.NoError(t, err)
	require.NotContains(t, got, "#golang")
	require.NotContains(t, html, "#golang")
	require.Contains(t, html, "golang")
}

func TestContentHTML_RenderErrorMemoized(t *testing.T) {
	calls := 0
	p, err := New("a.md", []byte("x\n"), modTime,
		func(string, SourceType) (string, []meta.Heading, error) {
			calls++
			return "", nil, fmt.Errorf("renderer exploded")
		})
	require.NoError(t, err)

	_, err1 := p.ContentHTML()
	_, err2 := p.ContentHTML()
	require.Error(t, err1)
	require.Error(t, err2)
	require.Equal(t, 1, calls)
}
