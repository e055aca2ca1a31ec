package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// InitCmd scaffolds a minimal site: configuration, an index document, and a
// root layout.
type InitCmd struct {
	Force bool `help:"Overwrite existing files."`
}

var scaffold = map[string]string{
	config.SiteFile: `title: My Site
data:
  author: ""
build:
  clean_urls: true
`,
	"index.md": `# Welcome

This site is built with sitebuilder. Edit ` + "`index.md`" + ` and run
` + "`sitebuilder dev`" + ` to see changes live.
`,
	classify.LayoutFile: `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.title}}</title>
  </head>
  <body>
    {{.template}}
  </body>
</html>
`,
}

func (i *InitCmd) Run(g *Global) error {
	if err := os.MkdirAll(g.Source, 0o750); err != nil {
		return fmt.Errorf("create source directory: %w", err)
	}
	for name, content := range scaffold {
		path := filepath.Join(g.Source, name)
		if _, err := os.Stat(path); err == nil && !i.Force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", name)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(g.Source, classify.PartialsDir), 0o750); err != nil {
		return fmt.Errorf("create partials directory: %w", err)
	}
	fmt.Println("initialized site in", g.Source)
	return nil
}
