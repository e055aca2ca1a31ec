// Package book delegates marked subtrees to the external book compiler.
// The compiler is a black box: it is invoked on the subtree, produces its
// own output directory, and that tree is merged into the destination at the
// subtree's mount path.
package book

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Runner invokes the external book compiler for one subtree.
type Runner interface {
	Build(ctx context.Context, subtreeRoot, outDir, themeDir string) error
}

// BinaryRunner shells out to the book compiler executable.
type BinaryRunner struct {
	Bin string
}

func (r *BinaryRunner) Build(ctx context.Context, subtreeRoot, outDir, themeDir string) error {
	cmd := exec.CommandContext(ctx, r.Bin, "build", "--dest-dir", outDir)
	cmd.Dir = subtreeRoot
	cmd.Env = os.Environ()
	if themeDir != "" {
		// The compiler honors configuration overrides through its
		// environment; this applies the shared theme without touching the
		// subtree's own marker file.
		cmd.Env = append(cmd.Env, "MDBOOK_OUTPUT__HTML__THEME="+themeDir)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s build: %w: %s", r.Bin, err, string(out))
	}
	return nil
}

// Delegate builds book subtrees and merges their output.
type Delegate struct {
	cfg    *config.Config
	runner Runner
}

func NewDelegate(cfg *config.Config) *Delegate {
	return &Delegate{cfg: cfg, runner: &BinaryRunner{Bin: cfg.Book.Bin}}
}

// WithRunner substitutes the compiler invocation, used by tests.
func (d *Delegate) WithRunner(r Runner) *Delegate {
	d.runner = r
	return d
}

// Build compiles one book subtree into a scratch directory and merges the
// result into the destination at the path corresponding to the subtree's
// source location. Failure is a single subtree-level error; siblings are
// unaffected.
func (d *Delegate) Build(ctx context.Context, project classify.BookProject, destRoot string) error {
	scratch, err := os.MkdirTemp("", "sitebuilder-book-*")
	if err != nil {
		return sberrors.BookBuildFailed(project.RootRel, err)
	}
	defer os.RemoveAll(scratch)

	themeDir := ""
	if d.cfg.Book.Theme != "" {
		themeDir = filepath.Join(d.cfg.SourceRoot, d.cfg.Book.Theme)
		if _, err := os.Stat(themeDir); err != nil {
			slog.Warn("book theme directory missing, ignoring", logfields.Path(themeDir))
			themeDir = ""
		}
	}

	slog.Info("building book subtree", logfields.Source(project.RootRel))
	if err := d.runner.Build(ctx, project.RootAbs, scratch, themeDir); err != nil {
		return sberrors.BookBuildFailed(project.RootRel, err)
	}

	mount := filepath.Join(destRoot, filepath.FromSlash(project.RootRel))
	if err := CopyTree(scratch, mount); err != nil {
		return sberrors.BookBuildFailed(project.RootRel, err)
	}
	return nil
}

// CopyTree copies every regular file under src into dst, preserving relative
// structure.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
