package site

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SourceRoot = root
	return cfg
}

func entryFor(root, rel string) classify.SourceEntry {
	return classify.SourceEntry{
		AbsPath: filepath.Join(root, filepath.FromSlash(rel)),
		RelPath: rel,
		Kind:    classify.KindDocument,
		ModTime: time.Now(),
	}
}

func TestDataInheritance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data.yaml", "color: red\nfont: serif\n")
	writeFile(t, root, "blog/data.yaml", "color: blue\n")
	writeFile(t, root, "blog/post.md", "x")
	writeFile(t, root, "about.md", "x")

	r := NewDataResolver(testConfig(t, root), NewDirCache())

	ctx, err := r.Resolve(entryFor(root, "blog/post.md"))
	require.NoError(t, err)
	require.Equal(t, "blue", ctx.Data["color"], "subdirectory value wins beneath it")
	require.Equal(t, "serif", ctx.Data["font"], "unrelated root keys survive the merge")

	ctx, err = r.Resolve(entryFor(root, "about.md"))
	require.NoError(t, err)
	require.Equal(t, "red", ctx.Data["color"], "root value applies elsewhere")
}

func TestDocumentFragmentWinsOverDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data.yaml", "color: red\n")
	writeFile(t, root, "about.md", "x")
	writeFile(t, root, "about.yaml", "color: green\ntitle: About Us\n")

	r := NewDataResolver(testConfig(t, root), NewDirCache())
	ctx, err := r.Resolve(entryFor(root, "about.md"))
	require.NoError(t, err)
	require.Equal(t, "green", ctx.Data["color"])
	require.Equal(t, "About Us", ctx.Title)
}

func TestTitleInference(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "blog/index.md", "x")
	writeFile(t, root, "about.md", "x")
	writeFile(t, root, "getting-started.md", "x")

	r := NewDataResolver(testConfig(t, root), NewDirCache())

	ctx, err := r.Resolve(entryFor(root, "blog/index.md"))
	require.NoError(t, err)
	require.Equal(t, "Blog", ctx.Title, "index titles come from the parent directory")

	ctx, err = r.Resolve(entryFor(root, "about.md"))
	require.NoError(t, err)
	require.Equal(t, "About", ctx.Title)

	ctx, err = r.Resolve(entryFor(root, "getting-started.md"))
	require.NoError(t, err)
	require.Equal(t, "Getting Started", ctx.Title, "separators become spaces, words capitalized")
}

func TestRootIndexUsesSiteTitle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "x")

	cfg := testConfig(t, root)
	cfg.Title = "My Site"
	r := NewDataResolver(cfg, NewDirCache())

	ctx, err := r.Resolve(entryFor(root, "index.md"))
	require.NoError(t, err)
	require.Equal(t, "My Site", ctx.Title)
}

func TestReservedKeysRejected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "about.md", "x")
	writeFile(t, root, "about.yaml", "template: sneaky\n")

	r := NewDataResolver(testConfig(t, root), NewDirCache())
	_, err := r.Resolve(entryFor(root, "about.md"))
	require.Error(t, err)
	se := sberrors.AsSiteError(err)
	require.Equal(t, sberrors.CategoryData, se.Category)
	require.Equal(t, "template", se.Context["key"])
}

func TestNonBooleanFlagWarns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "about.md", "x")
	writeFile(t, root, "about.yaml", "standalone: \"yes\"\ndraft: 1\n")

	r := NewDataResolver(testConfig(t, root), NewDirCache())
	ctx, err := r.Resolve(entryFor(root, "about.md"))
	require.NoError(t, err)
	require.False(t, ctx.Standalone, "non-boolean values are ignored, not coerced")
	require.False(t, ctx.Draft)
	require.Len(t, ctx.Warnings, 2)
}

func TestMalformedFragmentFailsDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bad/data.yaml", "key: [unclosed\n")
	writeFile(t, root, "bad/page.md", "x")

	r := NewDataResolver(testConfig(t, root), NewDirCache())
	_, err := r.Resolve(entryFor(root, "bad/page.md"))
	require.Error(t, err)
	se := sberrors.AsSiteError(err)
	require.Equal(t, sberrors.SeverityError, se.Severity, "subtree failure, not whole-build")
}

func TestMergeIsKeyByKey(t *testing.T) {
	dst := map[string]any{"a": 1, "b": 2}
	Merge(dst, map[string]any{"b": 3, "c": 4})
	require.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, dst)
}
