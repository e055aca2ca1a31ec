package book

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// fakeRunner stands in for the external compiler and writes a fixed tree
// into the output directory.
type fakeRunner struct {
	files map[string]string
	err   error

	gotRoot  string
	gotTheme string
}

func (r *fakeRunner) Build(_ context.Context, subtreeRoot, outDir, themeDir string) error {
	r.gotRoot = subtreeRoot
	r.gotTheme = themeDir
	if r.err != nil {
		return r.err
	}
	for rel, content := range r.files {
		path := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func bookProject(root, rel string) classify.BookProject {
	return classify.BookProject{
		RootAbs:    filepath.Join(root, filepath.FromSlash(rel)),
		RootRel:    rel,
		MarkerPath: filepath.Join(root, filepath.FromSlash(rel), classify.BookMarker),
	}
}

func TestDelegateMergesOutputAtMountPath(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "manual"), 0o750))

	runner := &fakeRunner{files: map[string]string{
		"index.html":      "book index",
		"ch01/intro.html": "chapter one",
		"css/general.css": "styles",
	}}
	cfg := config.Default()
	cfg.SourceRoot = src
	delegate := NewDelegate(cfg).WithRunner(runner)

	require.NoError(t, delegate.Build(context.Background(), bookProject(src, "manual"), dest))
	require.Equal(t, filepath.Join(src, "manual"), runner.gotRoot)

	raw, err := os.ReadFile(filepath.Join(dest, "manual", "index.html"))
	require.NoError(t, err)
	require.Equal(t, "book index", string(raw))
	_, err = os.Stat(filepath.Join(dest, "manual", "ch01", "intro.html"))
	require.NoError(t, err)
}

func TestDelegateFailureIsSubtreeScoped(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	runner := &fakeRunner{err: fmt.Errorf("compiler exploded")}
	cfg := config.Default()
	cfg.SourceRoot = src
	delegate := NewDelegate(cfg).WithRunner(runner)

	err := delegate.Build(context.Background(), bookProject(src, "manual"), dest)
	require.Error(t, err)
	se := sberrors.AsSiteError(err)
	require.Equal(t, sberrors.CategoryBook, se.Category)
	require.False(t, se.IsFatal(), "a book failure must not abort the pass")
}

func TestDelegatePassesThemeWhenPresent(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "theme"), 0o750))

	runner := &fakeRunner{files: map[string]string{"index.html": "x"}}
	cfg := config.Default()
	cfg.SourceRoot = src
	cfg.Book.Theme = "theme"
	delegate := NewDelegate(cfg).WithRunner(runner)

	require.NoError(t, delegate.Build(context.Background(), bookProject(src, "manual"), dest))
	require.Equal(t, filepath.Join(src, "theme"), runner.gotTheme)
}

func TestDelegateIgnoresMissingTheme(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	runner := &fakeRunner{files: map[string]string{"index.html": "x"}}
	cfg := config.Default()
	cfg.SourceRoot = src
	cfg.Book.Theme = "no-such-dir"
	delegate := NewDelegate(cfg).WithRunner(runner)

	require.NoError(t, delegate.Build(context.Background(), bookProject(src, "manual"), dest))
	require.Empty(t, runner.gotTheme)
}
