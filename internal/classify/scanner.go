package classify

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// BookProject is a source subtree delegated whole to the external book
// compiler. Its contents are excluded from normal classification.
type BookProject struct {
	RootAbs    string
	RootRel    string // slash-separated, relative to the source root
	MarkerPath string
	ModTime    time.Time // newest modification time within the subtree
}

// ScanResult is the outcome of one source tree enumeration.
type ScanResult struct {
	Entries  []SourceEntry
	Books    []BookProject
	Warnings []*sberrors.SiteError
}

// Scanner enumerates a source tree and classifies every entry.
type Scanner struct {
	sourceRoot string
	destRoot   string // skipped when nested under the source root
	rules      *IgnoreRules
}

func NewScanner(sourceRoot, destRoot string, rules *IgnoreRules) *Scanner {
	if rules == nil {
		rules = &IgnoreRules{}
	}
	return &Scanner{sourceRoot: sourceRoot, destRoot: destRoot, rules: rules}
}

// Scan walks the source tree once, detecting book subtrees at the directory
// level and classifying files with the ordered rule set.
func (s *Scanner) Scan() (*ScanResult, error) {
	result := &ScanResult{}

	err := filepath.WalkDir(s.sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.sourceRoot {
				return sberrors.SourceUnreadable(s.sourceRoot, err)
			}
			slog.Warn("skipping unreadable entry", logfields.Path(path), logfields.Error(err))
			return nil
		}

		rel, rerr := filepath.Rel(s.sourceRoot, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			return s.visitDir(path, rel, result)
		}
		return s.visitFile(path, rel, d, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Scanner) visitDir(path, rel string, result *ScanResult) error {
	// The destination tree may be nested under the source root; never scan it.
	if s.destRoot != "" && sameOrUnder(path, s.destRoot) {
		return filepath.SkipDir
	}
	if s.rules.Ignored(rel) {
		return filepath.SkipDir
	}

	// Rule 2: a directory with a book marker owns its whole subtree.
	marker := filepath.Join(path, BookMarker)
	if info, err := os.Stat(marker); err == nil && !info.IsDir() {
		result.Books = append(result.Books, BookProject{
			RootAbs:    path,
			RootRel:    rel,
			MarkerPath: marker,
			ModTime:    newestModTime(path),
		})
		return filepath.SkipDir
	}
	return nil
}

func (s *Scanner) visitFile(path, rel string, d fs.DirEntry, result *ScanResult) error {
	// Rule 1: ignore rules win over everything.
	if s.rules.Ignored(rel) {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		slog.Warn("skipping unstatable file", logfields.Path(path), logfields.Error(err))
		return nil
	}

	kind, warn := s.classifyFile(path, rel)
	if warn != nil {
		result.Warnings = append(result.Warnings, warn)
	}
	result.Entries = append(result.Entries, SourceEntry{
		AbsPath: path,
		RelPath: rel,
		Kind:    kind,
		ModTime: info.ModTime(),
	})
	return nil
}

// classifyFile applies rules 3-6. Rules 1 and 2 are handled during the walk.
func (s *Scanner) classifyFile(absPath, relPath string) (Kind, *sberrors.SiteError) {
	base := filepath.Base(relPath)
	ext := filepath.Ext(base)

	// Rule 3: layout templates and files in the reserved templates directory.
	inPartials := relPath == PartialsDir || strings.HasPrefix(relPath, PartialsDir+"/")
	if base == LayoutFile || (inPartials && strings.EqualFold(ext, ".html")) {
		return KindLayout, nil
	}
	if base == LayoutConfigFile {
		// A layout's own configuration is a data fragment associated with the
		// layout. A sibling layout.md would make the file match the
		// document-fragment rule as well; first rule wins, warn. The sibling
		// layout.html is the layout itself, not a document.
		var warn *sberrors.SiteError
		stem := strings.TrimSuffix(absPath, filepath.Ext(absPath))
		if info, err := os.Stat(stem + ".md"); err == nil && !info.IsDir() {
			warn = sberrors.ClassificationAmbiguous(relPath)
		}
		return KindData, warn
	}
	if IsReservedName(base) {
		return KindData, nil
	}

	// Rule 4: renderable document types.
	if IsDocumentExt(ext) {
		return KindDocument, nil
	}

	// Rule 5: a configuration fragment associated with a sibling document.
	if strings.EqualFold(ext, FragmentExt) {
		if _, ok := HasDocumentSibling(absPath); ok {
			return KindData, nil
		}
	}

	// Rule 6: everything else is copied byte-for-byte.
	return KindAsset, nil
}

func sameOrUnder(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// newestModTime finds the newest modification time in a subtree. Used for
// book staleness, where any file change must retrigger the external compiler.
func newestModTime(root string) time.Time {
	var newest time.Time
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if info, err := d.Info(); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return newest
}
