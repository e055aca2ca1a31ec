package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scanTree(t *testing.T, root string, extra []string) *ScanResult {
	t.Helper()
	rules, err := LoadIgnoreRules(root, extra)
	require.NoError(t, err)
	result, err := NewScanner(root, "", rules).Scan()
	require.NoError(t, err)
	return result
}

func kinds(result *ScanResult) map[string]Kind {
	m := map[string]Kind{}
	for _, e := range result.Entries {
		m[e.RelPath] = e.Kind
	}
	return m
}

func TestClassifyRuleOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# hi")
	writeFile(t, root, "about.md", "about")
	writeFile(t, root, "about.yaml", "title: About Us")
	writeFile(t, root, "layout.html", "{{.template}}")
	writeFile(t, root, "partials/nav.html", "<nav></nav>")
	writeFile(t, root, "style.css", "body{}")
	writeFile(t, root, "data.yaml", "key: value")
	writeFile(t, root, "orphan.yaml", "no: sibling")

	got := kinds(scanTree(t, root, nil))

	require.Equal(t, KindDocument, got["index.md"])
	require.Equal(t, KindDocument, got["about.md"])
	require.Equal(t, KindData, got["about.yaml"], "fragment with document sibling")
	require.Equal(t, KindLayout, got["layout.html"])
	require.Equal(t, KindLayout, got["partials/nav.html"])
	require.Equal(t, KindAsset, got["style.css"])
	require.Equal(t, KindData, got["data.yaml"], "reserved directory fragment")
	require.Equal(t, KindAsset, got["orphan.yaml"], "fragment without sibling is an asset")
}

func TestClassifyBookSubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# hi")
	writeFile(t, root, "guide/book.toml", "[book]")
	writeFile(t, root, "guide/src/chapter.md", "# chapter")

	result := scanTree(t, root, nil)

	require.Len(t, result.Books, 1)
	require.Equal(t, "guide", result.Books[0].RootRel)
	for _, e := range result.Entries {
		require.NotContains(t, e.RelPath, "guide/", "book subtree must not be classified")
	}
}

func TestClassifyAmbiguityWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/layout.html", "{{.template}}")
	writeFile(t, root, "docs/layout.yaml", "chain: true")
	writeFile(t, root, "docs/layout.md", "a document named like a layout config")

	result := scanTree(t, root, nil)

	require.Len(t, result.Warnings, 1)
	got := kinds(result)
	// First matching rule wins: the config stays associated with the layout.
	require.Equal(t, KindData, got["docs/layout.yaml"])
}

func TestIgnoreRules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".siteignore", "*.tmp\n!keep.tmp\n")
	writeFile(t, root, "page.md", "x")
	writeFile(t, root, "scratch.tmp", "x")
	writeFile(t, root, "keep.tmp", "x")
	writeFile(t, root, ".hidden/secret.md", "x")

	got := kinds(scanTree(t, root, nil))

	require.Contains(t, got, "page.md")
	require.NotContains(t, got, "scratch.tmp")
	require.Contains(t, got, "keep.tmp", "negated pattern force-includes")
	require.NotContains(t, got, ".hidden/secret.md", "hidden directories are ignored")
	require.NotContains(t, got, ".siteignore")
}

func TestIgnoreExtraPatternsWin(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".siteignore", "!draft.md\n")
	writeFile(t, root, "draft.md", "x")

	got := kinds(scanTree(t, root, []string{"draft.md"}))
	require.NotContains(t, got, "draft.md", "configured patterns come after the file and win")
}

func TestIsIndex(t *testing.T) {
	require.True(t, IsIndex("index.md"))
	require.True(t, IsIndex("blog/index.html"))
	require.False(t, IsIndex("blog/post.md"))
}
