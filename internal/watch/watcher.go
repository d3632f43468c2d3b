package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitegen/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Watcher turns filesystem events under the project into BuildRequested
// events on the bus. It watches the content tree recursively, the data
// directory, and the project root for configuration changes; directories
// created while watching are picked up.
type Watcher struct {
	cfg *config.Config
	bus *Bus
	log *slog.Logger
	fw  *fsnotify.Watcher
}

// NewWatcher constructs a Watcher. Call Start to begin delivering events.
func NewWatcher(cfg *config.Config, bus *Bus, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "create file watcher")
	}
	return &Watcher{cfg: cfg, bus: bus, log: log, fw: fw}, nil
}

// Start registers the watch roots and launches the event loop. The loop
// exits when ctx is canceled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.cfg.ContentRoot()); err != nil {
		return err
	}
	// Data directory and config file are optional; the project root watch
	// covers sitegen.yaml.
	if err := w.fw.Add(w.cfg.DataRoot()); err != nil {
		w.log.Debug("data directory not watched", slog.Any("error", err))
	}
	if err := w.fw.Add(w.cfg.ProjectRoot); err != nil {
		return sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "watch project root")
	}

	go w.loop(ctx)
	return nil
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "walk watch root").WithPath(path)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fw.Add(path); err != nil {
			return sgerrors.Wrap(err, sgerrors.CategoryIO, sgerrors.SeverityFatal, "watch directory").WithPath(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Error("file watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	rel, err := filepath.Rel(w.cfg.ProjectRoot, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	// New directories under the content root need their own watch.
	if event.Op.Has(fsnotify.Create) {
		if fi, statErr := os.Stat(event.Name); statErr == nil && fi.IsDir() {
			if rel == w.cfg.ContentDir || strings.HasPrefix(rel, w.cfg.ContentDir+"/") {
				_ = w.addRecursive(event.Name)
			}
			return
		}
	}

	if !w.relevant(rel) {
		return
	}

	w.log.Debug("change detected", slog.String("path", rel), slog.String("op", event.Op.String()))
	_ = w.bus.Publish(ctx, BuildRequested{
		Paths:       []string{rel},
		Reason:      event.Op.String(),
		RequestedAt: time.Now(),
	})
}

// relevant filters to the inputs the dependency graph classifies: content,
// layouts, data, and the configuration file. Output writes never feed back.
func (w *Watcher) relevant(rel string) bool {
	if rel == w.cfg.OutputDir || strings.HasPrefix(rel, w.cfg.OutputDir+"/") {
		return false
	}
	if rel == config.FileName {
		return true
	}
	if rel == w.cfg.DataDir || strings.HasPrefix(rel, w.cfg.DataDir+"/") {
		return true
	}
	return strings.HasPrefix(rel, w.cfg.ContentDir+"/")
}
