package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newRenderer(t *testing.T, root string, opts Options) *Renderer {
	t.Helper()
	cfg := config.Default()
	cfg.SourceRoot = root
	cfg.Title = "Test Site"
	r, err := New(cfg, opts)
	require.NoError(t, err)
	return r
}

func docContext(root, rel string) *site.ResolvedContext {
	return &site.ResolvedContext{
		Entry: classify.SourceEntry{
			AbsPath: filepath.Join(root, filepath.FromSlash(rel)),
			RelPath: rel,
			Kind:    classify.KindDocument,
			ModTime: time.Now(),
		},
		Data: map[string]any{"title": "Page"},
	}
}

func TestRenderMarkdownEmptyChain(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.md", "# Heading\n\nBody text.")

	r := newRenderer(t, root, Options{Tag: "debug"})
	out, err := r.Render(docContext(root, "page.md"), nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "<h1>Heading</h1>")
	require.Contains(t, string(out), "Body text.")
}

func TestRenderLayoutWrapping(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.md", "content here")
	layout := writeFile(t, root, "layout.html", "<article>{{.template}}</article>")

	r := newRenderer(t, root, Options{Tag: "debug"})
	out, err := r.Render(docContext(root, "page.md"), site.LayoutChain{layout})
	require.NoError(t, err)
	require.Contains(t, string(out), "<article>")
	require.Contains(t, string(out), "content here")
}

func TestRenderChainedLayouts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.md", "inner")
	inner := writeFile(t, root, "blog/layout.html", "<section>{{.template}}</section>")
	outer := writeFile(t, root, "layout.html", "<main>{{.template}}</main>")

	r := newRenderer(t, root, Options{Tag: "debug"})
	out, err := r.Render(docContext(root, "page.md"), site.LayoutChain{inner, outer})
	require.NoError(t, err)
	// Nearest layout is applied first, then wrapped outward.
	require.Contains(t, string(out), "<main><section>")
}

func TestRenderPartialsAndHelpers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "partials/nav.html", `<nav>{{.title}}</nav>`)
	writeFile(t, root, "page.html", `{{template "nav" .}}<p>{{humanize "getting-started"}}</p>`)

	r := newRenderer(t, root, Options{Tag: "debug"})
	out, err := r.Render(docContext(root, "page.html"), nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "<nav>Page</nav>")
	require.Contains(t, string(out), "Getting Started")
}

func TestRenderSiteContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.html", `<span>{{.context.title}}/{{.context.tag}}</span>`)

	r := newRenderer(t, root, Options{Tag: "release"})
	out, err := r.Render(docContext(root, "page.html"), nil)
	require.NoError(t, err)
	require.Contains(t, string(out), "<span>Test Site/release</span>")
}

func TestRenderLiveInjectsSnippet(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.md", "hello")
	layout := writeFile(t, root, "layout.html", "<html><body>{{.template}}</body></html>")

	snippet := `<script src="/__livereload.js"></script>`
	r := newRenderer(t, root, Options{Live: true, Snippet: snippet, Tag: "debug"})
	out, err := r.Render(docContext(root, "page.md"), site.LayoutChain{layout})
	require.NoError(t, err)
	require.Contains(t, string(out), snippet+"</body>")
}

func TestRenderNoInjectionWithoutLive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.md", "hello")

	r := newRenderer(t, root, Options{Live: false, Snippet: "<script></script>", Tag: "debug"})
	out, err := r.Render(docContext(root, "page.md"), nil)
	require.NoError(t, err)
	require.NotContains(t, string(out), "<script>")
}
