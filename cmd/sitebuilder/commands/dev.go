package commands

import (
	"context"
	"os/signal"
	"syscall"

	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/livereload"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/server"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// DevCmd serves the site locally, rebuilding on source changes and pushing
// reload events to connected browsers.
type DevCmd struct {
	Output string `short:"o" help:"Destination parent directory (overrides site.yaml)."`
	Port   int    `short:"p" help:"Server port (overrides site.yaml)."`
	Tag    string `short:"t" default:"debug" help:"Output tag to build and serve."`
	Force  bool   `short:"f" help:"Force a full rebuild on the first pass."`
}

func (d *DevCmd) Run(g *Global) error {
	cfg, err := loadConfig(g, d.Output, nil)
	if err != nil {
		return err
	}
	port := cfg.Serve.Port
	if d.Port != 0 {
		port = d.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := livereload.NewHub()
	metrics := server.NewMetrics(hub.ClientCount)
	destRoot := cfg.DestRoot(d.Tag)

	pipeline := build.New(cfg, build.Options{Tag: d.Tag, Force: d.Force, Live: true, Hub: hub})
	runPass := func(ctx context.Context) {
		result, err := pipeline.Run(ctx)
		if err != nil {
			// Fatal pass errors in dev mode keep the server up; the
			// previous build stays served and clients are notified.
			slog.Error("build pass failed", logfields.Error(err))
			hub.Broadcast(livereload.Notify(err.Error(), true))
			return
		}
		metrics.RecordPass(!result.Ok(), result.Noop)
	}
	runPass(ctx)

	watcher, err := watch.New(cfg.SourceRoot, destRoot, watch.DefaultDebounce, runPass)
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	return server.New(destRoot, port, hub, metrics).Start(ctx)
}
