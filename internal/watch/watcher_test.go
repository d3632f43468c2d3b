package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

func watcherProject(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "site", "posts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	cfg, err := config.Load(root)
	require.NoError(t, err)
	return cfg
}

func startWatcher(t *testing.T, cfg *config.Config, bus *Bus) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w, err := NewWatcher(cfg, bus, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
}

func waitFor(t *testing.T, ch <-chan BuildRequested, match func(BuildRequested) bool) BuildRequested {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case evt := <-ch:
			if match(evt) {
				return evt
			}
		case <-deadline:
			t.Fatal("expected BuildRequested not observed")
		}
	}
}

func TestWatcher_ContentChangePublishesRequest(t *testing.T) {
	cfg := watcherProject(t)
	bus := NewBus()
	defer bus.Close()
	ch, unsub := Subscribe[BuildRequested](bus, 16)
	defer unsub()

	startWatcher(t, cfg, bus)

	path := filepath.Join(cfg.ContentRoot(), "posts", "hello.md")
	require.NoError(t, os.WriteFile(path, []byte("# Hello\n"), 0o644))

	evt := waitFor(t, ch, func(e BuildRequested) bool {
		return len(e.Paths) == 1 && e.Paths[0] == "site/posts/hello.md"
	})
	require.NotZero(t, evt.RequestedAt)
}

func TestWatcher_ConfigChangePublishesRequest(t *testing.T) {
	cfg := watcherProject(t)
	bus := NewBus()
	defer bus.Close()
	ch, unsub := Subscribe[BuildRequested](bus, 16)
	defer unsub()

	startWatcher(t, cfg, bus)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.ProjectRoot, config.FileName), []byte("port: 8080\n"), 0o644))

	waitFor(t, ch, func(e BuildRequested) bool {
		return len(e.Paths) == 1 && e.Paths[0] == config.FileName
	})
}

func TestWatcher_OutputWritesIgnored(t *testing.T) {
	cfg := watcherProject(t)
	require.NoError(t, os.MkdirAll(cfg.OutputRoot(), 0o755))
	bus := NewBus()
	defer bus.Close()
	ch, unsub := Subscribe[BuildRequested](bus, 16)
	defer unsub()

	startWatcher(t, cfg, bus)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputRoot(), "index.html"), []byte("x"), 0o644))

	select {
	case evt := <-ch:
		t.Fatalf("output write produced a build request: %v", evt.Paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_NewDirectoryPickedUp(t *testing.T) {
	cfg := watcherProject(t)
	bus := NewBus()
	defer bus.Close()
	ch, unsub := Subscribe[BuildRequested](bus, 16)
	defer unsub()

	startWatcher(t, cfg, bus)

	dir := filepath.Join(cfg.ContentRoot(), "docs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.md"), []byte("# Guide\n"), 0o644))

	waitFor(t, ch, func(e BuildRequested) bool {
		return len(e.Paths) == 1 && e.Paths[0] == "site/docs/guide.md"
	})
}
