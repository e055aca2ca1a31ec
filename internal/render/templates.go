package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// loadPartials parses every *.html file under the reserved templates
// directory into one named template set. A partial's name is its path under
// partials/ without the extension, so partials/nav/menu.html is
// {{template "nav/menu" .}}.
func loadPartials(sourceRoot string, funcs template.FuncMap) (*template.Template, error) {
	base := template.New("").Option("missingkey=zero").Funcs(funcs)

	dir := filepath.Join(sourceRoot, classify.PartialsDir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return base, nil
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := base.New(name).Parse(string(raw)); err != nil {
			return fmt.Errorf("parse partial %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return base, nil
}

// helperFuncs builds the block helpers exposed to documents and layouts.
func helperFuncs(md goldmark.Markdown, liveSnippet string) template.FuncMap {
	return template.FuncMap{
		// markdown renders a string of Markdown inline.
		"markdown": func(s string) (template.HTML, error) {
			var buf bytes.Buffer
			if err := md.Convert([]byte(s), &buf); err != nil {
				return "", err
			}
			return template.HTML(buf.String()), nil //nolint:gosec // site-author content
		},
		"humanize": site.Humanize,
		"slug": func(s string) string {
			s = strings.ToLower(strings.TrimSpace(s))
			s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
			return s
		},
		"date": func(layout string, v any) (string, error) {
			switch t := v.(type) {
			case time.Time:
				return t.Format(layout), nil
			case string:
				parsed, err := time.Parse(time.RFC3339, t)
				if err != nil {
					return "", err
				}
				return parsed.Format(layout), nil
			default:
				return "", fmt.Errorf("date: unsupported value %T", v)
			}
		},
		// livereload expands to the reload script tag in live mode and to
		// nothing otherwise, so layouts can opt in explicitly.
		"livereload": func() template.HTML {
			return template.HTML(liveSnippet) //nolint:gosec // fixed snippet
		},
	}
}
