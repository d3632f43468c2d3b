// Package watch runs the incremental build daemon: a filesystem watcher
// feeding a debounced build loop over an in-process event bus, with a
// preview server pushing live-reload notifications after every pass.
package watch

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitegen/internal/config"
	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/site"
)

// Daemon wires the watcher, debouncer, builder, preview server, and build
// history together for one watch session.
type Daemon struct {
	cfg     *config.Config
	log     *slog.Logger
	builder *site.Builder
	hist    *history.Store
	metrics http.Handler

	building atomic.Bool
}

// DaemonOption customizes a Daemon.
type DaemonOption func(*Daemon)

// WithHistory records every build pass into the given store.
func WithHistory(store *history.Store) DaemonOption {
	return func(d *Daemon) { d.hist = store }
}

// WithMetricsHandler mounts a metrics endpoint on the preview server.
func WithMetricsHandler(h http.Handler) DaemonOption {
	return func(d *Daemon) { d.metrics = h }
}

// NewDaemon constructs a Daemon around an existing builder.
func NewDaemon(cfg *config.Config, log *slog.Logger, builder *site.Builder, opts ...DaemonOption) *Daemon {
	d := &Daemon{cfg: cfg, log: log, builder: builder}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run performs an initial full build and then serves rebuilds until ctx is
// canceled. Build passes are serialized: the debouncer holds new requests
// while one is in flight.
func (d *Daemon) Run(ctx context.Context) error {
	bus := NewBus()
	defer bus.Close()

	debouncer, err := NewDebouncer(bus, DebouncerConfig{
		QuietWindow:       d.cfg.Watch.QuietWindow,
		MaxDelay:          d.cfg.Watch.MaxDelay,
		CheckBuildRunning: d.building.Load,
	})
	if err != nil {
		return err
	}

	watcher, err := NewWatcher(d.cfg, bus, d.log)
	if err != nil {
		return err
	}
	defer watcher.Close()

	buildCh, unsubscribe := Subscribe[BuildNow](bus, 16)
	defer unsubscribe()

	go func() { _ = debouncer.Run(ctx) }()
	<-debouncer.Ready()

	if err := watcher.Start(ctx); err != nil {
		return err
	}

	server := NewServer(d.cfg, bus, d.log, d.metrics)
	go func() {
		if err := server.Run(ctx); err != nil {
			d.log.Error("preview server failed", slog.Any("error", err))
		}
	}()

	if d.cfg.Watch.RebuildEvery > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return sgerrors.Wrap(err, sgerrors.CategoryInternal, sgerrors.SeverityFatal, "create scheduler")
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(d.cfg.Watch.RebuildEvery),
			gocron.NewTask(func() {
				_ = bus.Publish(ctx, BuildRequested{Reason: "scheduled", RequestedAt: time.Now()})
			}),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return sgerrors.Wrap(err, sgerrors.CategoryInternal, sgerrors.SeverityFatal, "schedule periodic rebuild")
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
		d.log.Info("periodic rebuild scheduled", slog.Duration("every", d.cfg.Watch.RebuildEvery))
	}

	d.runPass(ctx, bus, BuildNow{Full: true, Cause: "startup", TriggeredAt: time.Now()})

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-buildCh:
			if !ok {
				return nil
			}
			d.runPass(ctx, bus, evt)
		}
	}
}

// runPass executes one build pass. An empty path set (a scheduled or
// startup trigger) means a full rebuild, otherwise the changed paths drive
// incremental invalidation.
func (d *Daemon) runPass(ctx context.Context, bus *Bus, evt BuildNow) {
	d.building.Store(true)
	defer d.building.Store(false)

	var (
		res *site.Result
		err error
	)
	if evt.Full || len(evt.Paths) == 0 {
		res, err = d.builder.Build(ctx)
	} else {
		res, err = d.builder.Rebuild(ctx, evt.Paths)
	}
	if err != nil {
		d.log.Error("build pass failed, watching continues", slog.Any("error", err))
	}
	if res == nil {
		return
	}

	if d.hist != nil {
		if err := d.hist.Record(ctx, res); err != nil {
			d.log.Warn("recording build history failed", slog.Any("error", err))
		}
	}
	if res.Status != site.StatusFailed {
		_ = bus.Publish(ctx, BuildCompleted{Result: res, CompletedAt: time.Now()})
	}
}
