package classify

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreRules holds ordered glob patterns from the project ignore file plus
// any configured extras. Later patterns override earlier ones; a pattern
// prefixed with '!' force-includes matching paths. Hidden (dot-prefixed)
// names are ignored by default unless force-included.
type IgnoreRules struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	glob   string
	negate bool
}

// LoadIgnoreRules reads the ignore file at the source root (absent is fine)
// and appends the extra configured patterns after it, so configuration wins
// over the checked-in file on conflict.
func LoadIgnoreRules(sourceRoot string, extra []string) (*IgnoreRules, error) {
	rules := &IgnoreRules{}
	path := filepath.Join(sourceRoot, IgnoreFile)
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			rules.add(sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	for _, p := range extra {
		rules.add(p)
	}
	return rules, nil
}

func (r *IgnoreRules) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	p := ignorePattern{glob: line}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		p.glob = strings.TrimSpace(line[1:])
	}
	r.patterns = append(r.patterns, p)
}

// Ignored reports whether the slash-separated relative path is excluded.
func (r *IgnoreRules) Ignored(relPath string) bool {
	ignored := hasHiddenComponent(relPath)
	base := filepath.Base(relPath)
	for _, p := range r.patterns {
		if matchGlob(p.glob, relPath, base) {
			ignored = !p.negate
		}
	}
	return ignored
}

// matchGlob matches against the full relative path first, then the base name,
// using filepath.Match semantics.
func matchGlob(glob, relPath, base string) bool {
	if ok, _ := filepath.Match(glob, relPath); ok {
		return true
	}
	if ok, _ := filepath.Match(glob, base); ok {
		return true
	}
	return false
}

func hasHiddenComponent(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
