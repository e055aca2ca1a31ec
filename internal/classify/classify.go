// Package classify assigns every scanned source file a kind: document,
// layout/partial template, data fragment, book subtree, passthrough asset,
// or ignored. Classification is a pure function of path and tree-shape
// metadata; rules are evaluated in order and the first match wins.
package classify

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Reserved names at the filesystem contract boundary.
const (
	// IndexStem is the base name that maps a document to a directory root.
	IndexStem = "index"

	// LayoutFile is the wrapping template looked up along the ancestor chain.
	LayoutFile = "layout.html"

	// LayoutConfigFile carries a layout's own settings (chain opt-in).
	LayoutConfigFile = "layout.yaml"

	// DirDataFile is the per-directory configuration fragment.
	DirDataFile = "data.yaml"

	// PartialsDir is the reserved templates directory at the source root.
	PartialsDir = "partials"

	// BookMarker identifies a subtree delegated to the external book compiler.
	BookMarker = "book.toml"

	// IgnoreFile holds project-level ignore patterns at the source root.
	IgnoreFile = ".siteignore"

	// FragmentExt is the configuration fragment extension.
	FragmentExt = ".yaml"
)

// DocumentExts are the renderable document extensions, markup first.
var DocumentExts = []string{".md", ".html"}

// Kind is the classification assigned to one source entry.
type Kind int

const (
	KindIgnored Kind = iota
	KindBook
	KindLayout
	KindDocument
	KindData
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindIgnored:
		return "ignored"
	case KindBook:
		return "book"
	case KindLayout:
		return "layout"
	case KindDocument:
		return "document"
	case KindData:
		return "data"
	case KindAsset:
		return "asset"
	}
	return "unknown"
}

// SourceEntry describes one filesystem object found during the tree scan.
// Entries are immutable for the duration of one build pass.
type SourceEntry struct {
	AbsPath string
	RelPath string // slash-separated, relative to the source root
	Kind    Kind
	ModTime time.Time
}

// IsIndex reports whether the path's base name has the reserved index stem.
func IsIndex(relPath string) bool {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) == IndexStem
}

// IsDocumentExt reports whether ext identifies a renderable document type.
func IsDocumentExt(ext string) bool {
	for _, e := range DocumentExts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// HasDocumentSibling reports whether a document with the same stem exists
// next to the given path, and returns its absolute path if so.
func HasDocumentSibling(absPath string) (string, bool) {
	stem := strings.TrimSuffix(absPath, filepath.Ext(absPath))
	for _, ext := range DocumentExts {
		sibling := stem + ext
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, true
		}
	}
	return "", false
}

// IsReservedName reports whether the base name is one of the configuration
// or template conventions that never produce output of their own.
func IsReservedName(base string) bool {
	switch base {
	case LayoutFile, LayoutConfigFile, DirDataFile, BookMarker, IgnoreFile, "site.yaml":
		return true
	}
	return false
}
