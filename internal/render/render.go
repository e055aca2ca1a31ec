// Package render produces final page bytes: Markdown conversion, a
// templating pass over the document itself, then layout wrapping along the
// resolved chain. Documents and layouts see the merged data table plus the
// reserved context and template values populated here.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// Renderer renders documents for one build pass. Safe for concurrent use:
// every render clones the shared partial set.
type Renderer struct {
	cfg      *config.Config
	md       goldmark.Markdown
	partials *template.Template
	live     bool
	snippet  string
	siteCtx  map[string]any
}

// Options control render-pass behavior.
type Options struct {
	// Live enables reload script injection into rendered documents.
	Live bool
	// Snippet is the script tag injected before the closing body tag when
	// Live is set.
	Snippet string
	// Tag is the active output tag, exposed under the site context.
	Tag string
}

// New builds a renderer, loading the partial set once for the pass.
func New(cfg *config.Config, opts Options) (*Renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	snippet := ""
	if opts.Live {
		snippet = opts.Snippet
	}
	partials, err := loadPartials(cfg.SourceRoot, helperFuncs(md, snippet))
	if err != nil {
		return nil, sberrors.Wrap(err, sberrors.CategoryRender, sberrors.SeverityFatal, "load partials")
	}
	return &Renderer{
		cfg:      cfg,
		md:       md,
		partials: partials,
		live:     opts.Live,
		snippet:  snippet,
		siteCtx: map[string]any{
			"title": cfg.Title,
			"data":  cfg.Data,
			"tag":   opts.Tag,
			"live":  opts.Live,
		},
	}, nil
}

// Render produces the final bytes for one document given its resolved
// context and layout chain.
func (r *Renderer) Render(ctx *site.ResolvedContext, chain site.LayoutChain) ([]byte, error) {
	raw, err := os.ReadFile(ctx.Entry.AbsPath)
	if err != nil {
		return nil, sberrors.RenderFailed(ctx.Entry.RelPath, err)
	}

	content := raw
	if strings.EqualFold(filepath.Ext(ctx.Entry.AbsPath), ".md") {
		var buf bytes.Buffer
		if err := r.md.Convert(raw, &buf); err != nil {
			return nil, sberrors.RenderFailed(ctx.Entry.RelPath, fmt.Errorf("markdown: %w", err))
		}
		content = buf.Bytes()
	}

	// Templating pass over the document's own content so pages may embed
	// template syntax and reference named partials.
	rendered, err := r.execute("document:"+ctx.Entry.RelPath, string(content), ctx.Data, "")
	if err != nil {
		return nil, sberrors.RenderFailed(ctx.Entry.RelPath, err)
	}

	// Wrap outward along the chain, nearest layout first. Each layout sees
	// the accumulated output under the reserved template placeholder.
	for _, layoutPath := range chain {
		layoutSrc, err := os.ReadFile(layoutPath)
		if err != nil {
			return nil, sberrors.RenderFailed(ctx.Entry.RelPath, fmt.Errorf("read layout: %w", err))
		}
		rendered, err = r.execute("layout:"+layoutPath, string(layoutSrc), ctx.Data, rendered)
		if err != nil {
			return nil, sberrors.RenderFailed(ctx.Entry.RelPath, fmt.Errorf("layout %s: %w", filepath.Base(filepath.Dir(layoutPath)), err))
		}
	}

	out := []byte(rendered)
	if r.live {
		out = InjectScript(out, r.snippet)
	}
	return out, nil
}

// execute runs one templating pass. The reserved values are attached here;
// user fragments were already rejected if they tried to set them.
func (r *Renderer) execute(name, src string, data map[string]any, content string) (string, error) {
	set, err := r.partials.Clone()
	if err != nil {
		return "", err
	}
	tpl, err := set.New(name).Parse(src)
	if err != nil {
		return "", err
	}

	vars := site.Clone(data)
	vars["context"] = r.siteCtx
	vars["template"] = template.HTML(content) //nolint:gosec // already rendered

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
