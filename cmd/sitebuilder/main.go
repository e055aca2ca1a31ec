package main

import (
	"os"

	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
)

func main() {
	// A local .env may carry SITEBUILDER_* overrides; absence is fine.
	_ = godotenv.Load()

	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitebuilder"),
		kong.Description("Incremental static site compiler with live reload."),
		kong.UsageOnError(),
	)

	logLevel := slog.LevelInfo
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	if err := ctx.Run(&cli.Global); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
