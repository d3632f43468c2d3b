package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRunInit_CreatesProjectSkeleton(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, runInit(quietLogger(), root, false))

	for _, rel := range []string{
		config.FileName,
		"data/site.yaml",
		"site/index.md",
		"site/_layouts/default.html",
		"site/_layouts/posts.html",
		"assets/css/main.css",
	} {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
	}
}

func TestRunInit_RefusesExistingProjectWithoutForce(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, runInit(quietLogger(), root, false))

	err := runInit(quietLogger(), root, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "--force")

	require.NoError(t, runInit(quietLogger(), root, true))
}

func TestRunInit_ScaffoldBuildsCleanly(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, runInit(quietLogger(), root, false))

	cfg, err := config.Load(root)
	require.NoError(t, err)

	res, err := site.NewBuilder(cfg, quietLogger()).Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, site.StatusSuccess, res.Status)
	require.NotEmpty(t, res.ChangedURLs)

	_, err = os.Stat(filepath.Join(cfg.OutputRoot(), "index.html"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.OutputRoot(), "sitemap.xml"))
	require.NoError(t, err)
}
