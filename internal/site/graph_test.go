package site

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/page"
)

func testGraph() *DependencyGraph {
	cfg := config.Default("/project")
	pages := []*page.Page{
		{Path: "index.md", Group: "", URL: "/"},
		{Path: "posts/2024-03-01-hello.md", Group: "posts", URL: "/posts/hello/"},
		{Path: "posts/2024-03-02-world.md", Group: "posts", URL: "/posts/world/"},
		{Path: "docs/guide.md", Group: "docs", URL: "/docs/guide/"},
	}
	layouts := map[string]string{
		"index.md":                   "default",
		"posts/2024-03-01-hello.md":  "posts",
		"posts/2024-03-02-world.md":  "posts",
		"docs/guide.md":              "default",
	}
	return NewDependencyGraph(cfg, pages, layouts)
}

func TestInvalidate_ContentChange_TakesPageGroupAndHome(t *testing.T) {
	invalid, full := testGraph().Invalidate([]string{"site/posts/2024-03-01-hello.md"})
	require.False(t, full)

	require.True(t, invalid["posts/2024-03-01-hello.md"])
	require.True(t, invalid["posts/2024-03-02-world.md"])
	require.True(t, invalid["index.md"])
	require.False(t, invalid["docs/guide.md"])
}

func TestInvalidate_LayoutChange_TakesResolvedPagesOnly(t *testing.T) {
	invalid, full := testGraph().Invalidate([]string{"site/_layouts/posts.html"})
	require.False(t, full)

	require.True(t, invalid["posts/2024-03-01-hello.md"])
	require.True(t, invalid["posts/2024-03-02-world.md"])
	require.False(t, invalid["index.md"])
	require.False(t, invalid["docs/guide.md"])
}

func TestInvalidate_DataChange_FullRebuild(t *testing.T) {
	_, full := testGraph().Invalidate([]string{"data/site.yaml"})
	require.True(t, full)
}

func TestInvalidate_ConfigChange_FullRebuild(t *testing.T) {
	_, full := testGraph().Invalidate([]string{config.FileName})
	require.True(t, full)
}

func TestInvalidate_DeletedContent_StillTakesGroupAndHome(t *testing.T) {
	invalid, full := testGraph().Invalidate([]string{"site/posts/2024-03-09-gone.md"})
	require.False(t, full)

	require.False(t, invalid["posts/2024-03-09-gone.md"])
	require.True(t, invalid["posts/2024-03-01-hello.md"])
	require.True(t, invalid["index.md"])
}

func TestInvalidate_NonContentPath_Ignored(t *testing.T) {
	invalid, full := testGraph().Invalidate([]string{"site/notes.txt", "README.md"})
	require.False(t, full)
	require.Empty(t, invalid)
}
