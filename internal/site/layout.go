package site

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// LayoutChain is the ordered sequence of layout template paths applied to a
// document's rendered content, nearest ancestor first. An empty chain means
// the document's own output is final.
type LayoutChain []string

// LayoutResolver walks a document's directory upward to the source root
// collecting the nearest layout, continuing only while each found layout
// opts in to chaining with an ancestor.
type LayoutResolver struct {
	cfg   *config.Config
	cache *DirCache
}

func NewLayoutResolver(cfg *config.Config, cache *DirCache) *LayoutResolver {
	return &LayoutResolver{cfg: cfg, cache: cache}
}

// Resolve builds the layout chain for a resolved document.
func (r *LayoutResolver) Resolve(ctx *ResolvedContext) (LayoutChain, error) {
	if ctx.Standalone {
		return nil, nil
	}

	// A document fragment may name a specific layout, overriding the
	// ancestor walk for the nearest slot.
	if v, ok := ctx.Data["layout"]; ok {
		path, ok := v.(string)
		if !ok || path == "" {
			return nil, sberrors.ValidationFailed("layout", "must be a non-empty string")
		}
		abs := filepath.Join(r.cfg.SourceRoot, filepath.FromSlash(path))
		if err := r.validateLayoutRef(path, abs); err != nil {
			return nil, err
		}
		return LayoutChain{abs}, nil
	}

	var chain LayoutChain
	dirs := ancestorDirs(r.cfg.SourceRoot, ctx.Entry.AbsPath)
	// Walk leaf-to-root.
	for i := len(dirs) - 1; i >= 0; i-- {
		layout, chains := r.cache.Layout(dirs[i])
		if layout == "" {
			continue
		}
		chain = append(chain, layout)
		if !chains {
			break
		}
	}
	return chain, nil
}

// validateLayoutRef rejects layout references that point at renderable
// documents. A layout never doubles as a page input; accepting one would
// silently render a page inside itself.
func (r *LayoutResolver) validateLayoutRef(ref, abs string) error {
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return sberrors.New(sberrors.CategoryLayout, sberrors.SeverityError, "layout not found").
			WithContext("layout", ref)
	}
	base := filepath.Base(abs)
	rel, err := filepath.Rel(r.cfg.SourceRoot, abs)
	if err != nil {
		return sberrors.LayoutAsDocument(ref)
	}
	inPartials := strings.HasPrefix(filepath.ToSlash(rel), classify.PartialsDir+"/")
	if base != classify.LayoutFile && !inPartials {
		return sberrors.LayoutAsDocument(ref)
	}
	return nil
}
