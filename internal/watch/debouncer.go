package watch

import (
	"context"
	"sort"
	"sync"
	"time"

	sgerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// DebouncerConfig tunes burst coalescing.
type DebouncerConfig struct {
	// QuietWindow is how long the changed-path stream must stay silent
	// before a build fires.
	QuietWindow time.Duration

	// MaxDelay caps how long a burst can postpone the build.
	MaxDelay time.Duration

	// CheckBuildRunning reports whether a build pass is in flight. While
	// one is, the debouncer holds the request and schedules exactly one
	// follow-up after completion.
	CheckBuildRunning func() bool

	// PollInterval controls completion polling while a build runs.
	PollInterval time.Duration
}

// Debouncer coalesces bursts of BuildRequested events into single BuildNow
// emissions: quiet window debounce, a max delay so a steady edit stream
// cannot postpone forever, and at most one queued follow-up while a build
// is running. Safe to run as a single goroutine.
type Debouncer struct {
	bus *Bus
	cfg DebouncerConfig

	mu        sync.Mutex
	readyOnce sync.Once
	ready     chan struct{}

	pending         bool
	pendingAfterRun bool
	pollingAfterRun bool
	paths           map[string]bool
	requestCount    int
}

// NewDebouncer validates the config and constructs a Debouncer.
func NewDebouncer(bus *Bus, cfg DebouncerConfig) (*Debouncer, error) {
	if bus == nil {
		return nil, sgerrors.New(sgerrors.CategoryInternal, sgerrors.SeverityFatal, "bus is required")
	}
	if cfg.QuietWindow <= 0 {
		return nil, sgerrors.ConfigError("quiet window must be > 0")
	}
	if cfg.MaxDelay <= 0 {
		return nil, sgerrors.ConfigError("max delay must be > 0")
	}
	if cfg.CheckBuildRunning == nil {
		cfg.CheckBuildRunning = func() bool { return false }
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Debouncer{
		bus:   bus,
		cfg:   cfg,
		ready: make(chan struct{}),
		paths: map[string]bool{},
	}, nil
}

// Ready is closed once Run has subscribed, for deterministic startup in
// tests.
func (d *Debouncer) Ready() <-chan struct{} {
	return d.ready
}

// Run consumes BuildRequested events until ctx is canceled or the bus
// closes.
func (d *Debouncer) Run(ctx context.Context) error {
	reqCh, unsubscribe := Subscribe[BuildRequested](d.bus, 64)
	defer unsubscribe()

	d.readyOnce.Do(func() { close(d.ready) })

	newStoppedTimer := func() *time.Timer {
		t := time.NewTimer(time.Hour)
		if !t.Stop() {
			<-t.C
		}
		return t
	}
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	pollTimer := newStoppedTimer()

	resetTimer := func(t *time.Timer, after time.Duration) {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(after)
	}

	var quietC, maxC, pollC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-reqCh:
			if !ok {
				return nil
			}
			first := d.onRequest(req)
			resetTimer(quietTimer, d.cfg.QuietWindow)
			quietC = quietTimer.C
			if first {
				resetTimer(maxTimer, d.cfg.MaxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			if d.tryEmit(ctx, "quiet") {
				quietC, maxC = nil, nil
			}

		case <-maxC:
			if d.tryEmit(ctx, "max_delay") {
				quietC, maxC = nil, nil
			}

		case <-pollC:
			if d.tryEmitAfterRunning(ctx) {
				quietC, maxC, pollC = nil, nil, nil
				continue
			}
			resetTimer(pollTimer, d.cfg.PollInterval)
			pollC = pollTimer.C
		}

		if d.shouldPollAfterRun() && pollC == nil {
			resetTimer(pollTimer, d.cfg.PollInterval)
			pollC = pollTimer.C
		}
	}
}

// onRequest folds a request into the pending burst. Reports whether it
// opened a new burst.
func (d *Debouncer) onRequest(req BuildRequested) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	first := !d.pending
	if first {
		d.pending = true
		d.requestCount = 0
		d.paths = map[string]bool{}
	}
	for _, p := range req.Paths {
		d.paths[p] = true
	}
	d.requestCount++
	return first
}

func (d *Debouncer) shouldPollAfterRun() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pendingAfterRun && !d.pollingAfterRun
}

func (d *Debouncer) tryEmit(ctx context.Context, cause string) bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return true
	}
	if d.cfg.CheckBuildRunning() {
		d.pendingAfterRun = true
		d.mu.Unlock()
		return false
	}

	paths := make([]string, 0, len(d.paths))
	for p := range d.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	count := d.requestCount

	d.pending = false
	d.pendingAfterRun = false
	d.pollingAfterRun = false
	d.mu.Unlock()

	_ = d.bus.Publish(ctx, BuildNow{
		TriggeredAt:  time.Now(),
		Paths:        paths,
		RequestCount: count,
		Cause:        cause,
	})
	return true
}

func (d *Debouncer) tryEmitAfterRunning(ctx context.Context) bool {
	d.mu.Lock()
	if !d.pendingAfterRun {
		d.mu.Unlock()
		return true
	}
	d.pollingAfterRun = true
	d.mu.Unlock()

	if d.cfg.CheckBuildRunning() {
		return false
	}
	return d.tryEmit(ctx, "after_running")
}
