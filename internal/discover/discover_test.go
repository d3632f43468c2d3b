package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func relPaths(files []SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestScan_ContentOnlyLexicalOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/2024-01-15-hello.md", "# Hello\n")
	writeFile(t, root, "about.md", "About\n")
	writeFile(t, root, "snippets/embed.html", "<div/>\n")
	writeFile(t, root, "assets/style.css", "body{}\n")
	writeFile(t, root, "notes.txt", "not content\n")

	s, err := NewScanner(root, false)
	require.NoError(t, err)
	files, err := s.Scan()
	require.NoError(t, err)
	require.Equal(t, []string{"about.md", "posts/2024-01-15-hello.md", "snippets/embed.html"}, relPaths(files))
}

func TestScan_ReservedAndDraftRules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_layouts/posts.html", "{{.Content}}\n")
	writeFile(t, root, "_drafts/soon.md", "soon\n")
	writeFile(t, root, "posts/_wip.md", "wip\n")
	writeFile(t, root, "posts/2024-05-01-_secret.md", "secret\n")
	writeFile(t, root, "posts/done.md", "done\n")

	s, err := NewScanner(root, false)
	require.NoError(t, err)
	files, err := s.Scan()
	require.NoError(t, err)
	// The marker after the date prefix is a draft too.
	require.Equal(t, []string{"posts/done.md"}, relPaths(files))

	withDrafts, err := NewScanner(root, true)
	require.NoError(t, err)
	files, err = withDrafts.Scan()
	require.NoError(t, err)
	// Drafts appear; the layouts directory never does.
	require.Equal(t, []string{"_drafts/soon.md", "posts/2024-05-01-_secret.md", "posts/_wip.md", "posts/done.md"}, relPaths(files))
}

func TestScan_HonorsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, IgnoreFile, "vendor/\n*.draft.md\n")
	writeFile(t, root, "vendor/readme.md", "x\n")
	writeFile(t, root, "posts/a.md", "a\n")
	writeFile(t, root, "posts/b.draft.md", "b\n")

	s, err := NewScanner(root, false)
	require.NoError(t, err)
	files, err := s.Scan()
	require.NoError(t, err)
	require.Equal(t, []string{"posts/a.md"}, relPaths(files))
}

func TestIsContentPath(t *testing.T) {
	require.True(t, IsContentPath("a.md"))
	require.True(t, IsContentPath("a.HTML"))
	require.False(t, IsContentPath("a.css"))
	require.False(t, IsContentPath("a"))
}
