package commands

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// BuildCmd compiles the site once and exits.
type BuildCmd struct {
	Output    string `short:"o" help:"Destination parent directory (overrides site.yaml)."`
	Tag       string `short:"t" help:"Output tag; each tag has its own destination root and manifest."`
	Force     bool   `short:"f" help:"Bypass staleness checks and rebuild everything."`
	CleanURLs *bool  `name:"clean-urls" help:"Write about/index.html instead of about.html."`
	Live      bool   `help:"Inject the live-reload script (unusual outside the dev command)."`
}

func (b *BuildCmd) Run(g *Global) error {
	cfg, err := loadConfig(g, b.Output, b.CleanURLs)
	if err != nil {
		return err
	}

	tag := b.Tag
	if tag == "" {
		tag = cfg.Build.Tag
	}
	if b.Live && tag != build.DebugTag {
		slog.Warn("live reload requested for a non-debug tag", logfields.Tag(tag))
	}

	pipeline := build.New(cfg, build.Options{Tag: tag, Force: b.Force, Live: b.Live})
	result, err := pipeline.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("rendered %d, noop %d, warned %d, failed %d (%s)\n",
		result.Rendered, result.Noop, result.Warned, result.Failed, result.Duration.Round(time.Millisecond))

	if result.Failed > 0 {
		if result.Documents > 0 && result.Failed >= result.Documents {
			return fmt.Errorf("build failed: no document rendered successfully")
		}
		return fmt.Errorf("build finished with %d failure(s)", result.Failed)
	}
	return nil
}
