// Package commands contains the CLI command implementations.
package commands

import (
	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// Global holds flags shared by every command.
type Global struct {
	Source  string `short:"s" default:"." help:"Source directory containing site.yaml."`
	Verbose bool   `short:"v" help:"Enable verbose logging."`
}

// CLI is the root command tree.
type CLI struct {
	Global

	Build BuildCmd `cmd:"" help:"Compile the site into the destination tree."`
	Dev   DevCmd   `cmd:"" help:"Serve the site locally with watch and live reload."`
	Init  InitCmd  `cmd:"" help:"Scaffold a minimal site in the source directory."`
}

// loadConfig loads site.yaml from the source root and applies command-line
// overrides that take precedence over both file and environment.
func loadConfig(g *Global, output string, cleanURLs *bool) (*config.Config, error) {
	cfg, err := config.Load(g.Source)
	if err != nil {
		return nil, err
	}
	if output != "" {
		cfg.Build.Output = output
	}
	if cleanURLs != nil {
		cfg.Build.CleanURLs = *cleanURLs
	}
	return cfg, nil
}
