// Package plan computes destination paths for documents and assets under the
// extension-preserving or clean-URL policy, including the deterministic
// resolution of clean-URL collisions.
package plan

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
)

// Policy selects how document destinations are shaped.
type Policy int

const (
	// PolicyPreserve maps about.md to about.html.
	PolicyPreserve Policy = iota
	// PolicyClean maps about.md to about/index.html.
	PolicyClean
)

func (p Policy) String() string {
	if p == PolicyClean {
		return "clean-urls"
	}
	return "preserve"
}

// Planner computes output paths. It holds the set of document source paths so
// clean-URL conflicts can be resolved deterministically: the literal index
// file owns the clean path and the conflicting sibling is demoted to
// extension-preserving output, never silently overwritten.
type Planner struct {
	policy Policy
	docs   map[string]struct{}
}

// NewPlanner builds a planner over the slash-separated relative paths of
// every document in the pass.
func NewPlanner(policy Policy, docRelPaths []string) *Planner {
	docs := make(map[string]struct{}, len(docRelPaths))
	for _, p := range docRelPaths {
		docs[p] = struct{}{}
	}
	return &Planner{policy: policy, docs: docs}
}

// Document returns the destination relative path for a document source path.
func (p *Planner) Document(relPath string) string {
	ext := path.Ext(relPath)
	stem := strings.TrimSuffix(relPath, ext)
	flat := stem + ".html"

	if classify.IsIndex(relPath) {
		// Index files always own the clean directory-root form.
		return flat
	}
	if p.policy != PolicyClean {
		return flat
	}
	if p.hasLiteralIndex(stem) {
		// Demoted: about/index.* takes the clean path, about.md keeps
		// extension-preserving output.
		return flat
	}
	return stem + "/index.html"
}

// Asset returns the destination for a passthrough asset: identity mapping
// regardless of policy.
func (p *Planner) Asset(relPath string) string {
	return relPath
}

func (p *Planner) hasLiteralIndex(stem string) bool {
	for _, ext := range classify.DocumentExts {
		if _, ok := p.docs[stem+"/"+classify.IndexStem+ext]; ok {
			return true
		}
	}
	return false
}
