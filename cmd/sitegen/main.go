package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/site"
	"git.home.luguber.info/inful/sitegen/internal/watch"
)

var CLI struct {
	Dir     string `short:"C" help:"Project root directory" default:"." type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Drafts  bool   `help:"Include draft pages (paths starting with _)"`
		Output  string `short:"o" help:"Override the output directory"`
		RootURL string `name:"root-url" help:"Absolutize links against this base URL"`
	} `cmd:"" help:"Build the site once"`

	Watch struct {
		Drafts       bool          `help:"Include draft pages"`
		Quiet        time.Duration `help:"Debounce quiet window" default:"250ms"`
		MaxDelay     time.Duration `name:"max-delay" help:"Longest a change burst may postpone a build" default:"2s"`
		RebuildEvery time.Duration `name:"rebuild-every" help:"Schedule periodic full rebuilds (0 disables)"`
		HistoryDB    string        `name:"history-db" help:"SQLite file for the build log (empty keeps it in memory)"`
	} `cmd:"" help:"Serve the site and rebuild incrementally on change"`

	Init struct {
		Force bool `help:"Overwrite existing project files"`
	} `cmd:"" help:"Scaffold a new site project in the current directory"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild(logger)
	case "watch":
		err = runWatch(logger)
	case "init":
		err = runInit(logger, CLI.Dir, CLI.Init.Force)
	}
	if err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func runBuild(logger *slog.Logger) error {
	cfg, err := config.Load(CLI.Dir)
	if err != nil {
		return err
	}
	cfg.IncludeDrafts = cfg.IncludeDrafts || CLI.Build.Drafts
	if CLI.Build.Output != "" {
		cfg.OutputDir = CLI.Build.Output
	}
	if CLI.Build.RootURL != "" {
		cfg.RootURL = CLI.Build.RootURL
	}

	builder := site.NewBuilder(cfg, logger)
	_, err = builder.Build(context.Background())
	return err
}

func runWatch(logger *slog.Logger) error {
	cfg, err := config.Load(CLI.Dir)
	if err != nil {
		return err
	}
	cfg.IncludeDrafts = cfg.IncludeDrafts || CLI.Watch.Drafts
	cfg.Watch.QuietWindow = CLI.Watch.Quiet
	cfg.Watch.MaxDelay = CLI.Watch.MaxDelay
	if CLI.Watch.RebuildEvery > 0 {
		cfg.Watch.RebuildEvery = CLI.Watch.RebuildEvery
	}
	if CLI.Watch.HistoryDB != "" {
		cfg.Watch.HistoryDB = CLI.Watch.HistoryDB
	}

	recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
	builder := site.NewBuilder(cfg, logger, site.WithMetrics(recorder))

	historyPath := cfg.Watch.HistoryDB
	if historyPath == "" {
		historyPath = ":memory:"
	}
	store, err := history.Open(historyPath)
	if err != nil {
		return err
	}
	defer store.Close()

	daemon := watch.NewDaemon(cfg, logger, builder,
		watch.WithHistory(store),
		watch.WithMetricsHandler(recorder.HTTPHandler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return daemon.Run(ctx)
}
