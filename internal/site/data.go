package site

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// ResolvedContext is the merged configuration for one document, created once
// per document per build pass and discarded after rendering.
type ResolvedContext struct {
	Entry      classify.SourceEntry
	Data       map[string]any
	Title      string
	Standalone bool
	Draft      bool

	// DestRel is filled in by the destination planner.
	DestRel string

	Warnings []*sberrors.SiteError
}

// DataResolver walks a document's ancestor chain root-to-leaf, merging
// configuration fragments, then applies the document-specific fragment.
type DataResolver struct {
	cfg   *config.Config
	cache *DirCache
}

func NewDataResolver(cfg *config.Config, cache *DirCache) *DataResolver {
	return &DataResolver{cfg: cfg, cache: cache}
}

var titleCaser = cases.Title(language.English)

// Resolve produces the merged context for one document. Precedence, lowest
// first: site-wide data, directory fragments root-to-leaf, document fragment.
func (r *DataResolver) Resolve(entry classify.SourceEntry) (*ResolvedContext, error) {
	ctx := &ResolvedContext{Entry: entry, Data: Clone(r.cfg.Data)}

	for _, dir := range ancestorDirs(r.cfg.SourceRoot, entry.AbsPath) {
		fragment, err := r.cache.Fragment(dir)
		if err != nil {
			return nil, sberrors.DataFragmentMalformed(filepath.Join(dir, classify.DirDataFile), err)
		}
		if fragment == nil {
			continue
		}
		if key, found := FindReservedKey(fragment); found {
			return nil, sberrors.ReservedKey(key, filepath.Join(dir, classify.DirDataFile))
		}
		Merge(ctx.Data, fragment)
	}

	docFragment, fragPath, err := loadDocumentFragment(entry.AbsPath)
	if err != nil {
		return nil, sberrors.DataFragmentMalformed(fragPath, err)
	}
	if docFragment != nil {
		if key, found := FindReservedKey(docFragment); found {
			return nil, sberrors.ReservedKey(key, fragPath)
		}
		Merge(ctx.Data, docFragment)
	}

	r.applyFlags(ctx)
	r.applyTitle(ctx)
	return ctx, nil
}

// applyFlags extracts standalone and draft. Non-boolean values are ignored
// with a warning, never coerced.
func (r *DataResolver) applyFlags(ctx *ResolvedContext) {
	for _, flag := range []struct {
		key string
		dst *bool
	}{
		{"standalone", &ctx.Standalone},
		{"draft", &ctx.Draft},
	} {
		v, ok := ctx.Data[flag.key]
		if !ok {
			continue
		}
		if b, ok := v.(bool); ok {
			*flag.dst = b
		} else {
			ctx.Warnings = append(ctx.Warnings, sberrors.NonBooleanFlag(flag.key, ctx.Entry.RelPath))
		}
	}
}

// applyTitle resolves an explicit title key or infers one from the file name,
// or from the parent directory name for index documents.
func (r *DataResolver) applyTitle(ctx *ResolvedContext) {
	if v, ok := ctx.Data["title"]; ok {
		if s, ok := v.(string); ok && s != "" {
			ctx.Title = s
			return
		}
	}

	rel := ctx.Entry.RelPath
	base := filepath.Base(rel)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == classify.IndexStem {
		parent := filepath.Dir(rel)
		if parent == "." {
			// Root index: prefer the site title, fall back to the source
			// root's directory name.
			if r.cfg.Title != "" {
				ctx.Title = r.cfg.Title
				ctx.Data["title"] = ctx.Title
				return
			}
			parent = filepath.Base(r.cfg.SourceRoot)
		} else {
			parent = filepath.Base(parent)
		}
		ctx.Title = Humanize(parent)
	} else {
		ctx.Title = Humanize(stem)
	}
	ctx.Data["title"] = ctx.Title
}

// Humanize turns a file stem into a display title: separators become spaces
// and words are capitalized.
func Humanize(stem string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return titleCaser.String(s)
}

// loadDocumentFragment reads the sibling <stem>.yaml fragment if present.
func loadDocumentFragment(docAbs string) (map[string]any, string, error) {
	path := strings.TrimSuffix(docAbs, filepath.Ext(docAbs)) + classify.FragmentExt
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, path, nil
		}
		return nil, path, err
	}
	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, path, err
	}
	return data, path, nil
}

// ancestorDirs lists the directories from the source root down to the
// document's own directory, root first.
func ancestorDirs(sourceRoot, docAbs string) []string {
	rel, err := filepath.Rel(sourceRoot, filepath.Dir(docAbs))
	if err != nil || strings.HasPrefix(rel, "..") {
		return []string{filepath.Dir(docAbs)}
	}
	dirs := []string{sourceRoot}
	if rel == "." {
		return dirs
	}
	current := sourceRoot
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}
