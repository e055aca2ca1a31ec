package site

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/classify"
)

// dirInfo is everything the resolvers need to know about one directory:
// its configuration fragment and its layout, if any.
type dirInfo struct {
	once sync.Once

	data    map[string]any // nil when the directory has no fragment
	dataErr error

	layoutPath  string // empty when the directory has no layout
	layoutChain bool   // the layout opts in to combining with an ancestor
}

// DirCache populates directory information exactly once per build pass.
// The first reader for a directory loads it; concurrent readers block on the
// same sync.Once and then reuse the result.
type DirCache struct {
	mu   sync.Mutex
	dirs map[string]*dirInfo
}

func NewDirCache() *DirCache {
	return &DirCache{dirs: make(map[string]*dirInfo)}
}

func (c *DirCache) get(dir string) *dirInfo {
	c.mu.Lock()
	info, ok := c.dirs[dir]
	if !ok {
		info = &dirInfo{}
		c.dirs[dir] = info
	}
	c.mu.Unlock()

	info.once.Do(func() { info.load(dir) })
	return info
}

// Fragment returns the directory's configuration fragment, or nil.
// A parse failure is returned to every document beneath the directory.
func (c *DirCache) Fragment(dir string) (map[string]any, error) {
	info := c.get(dir)
	return info.data, info.dataErr
}

// Layout returns the directory's layout path (empty for none) and whether
// that layout opts in to chaining with an ancestor layout.
func (c *DirCache) Layout(dir string) (string, bool) {
	info := c.get(dir)
	return info.layoutPath, info.layoutChain
}

func (i *dirInfo) load(dir string) {
	fragment := filepath.Join(dir, classify.DirDataFile)
	if raw, err := os.ReadFile(fragment); err == nil {
		data := map[string]any{}
		if err := yaml.Unmarshal(raw, &data); err != nil {
			i.dataErr = err
			return
		}
		i.data = data
	}

	layout := filepath.Join(dir, classify.LayoutFile)
	if info, err := os.Stat(layout); err == nil && !info.IsDir() {
		i.layoutPath = layout
		i.layoutChain = loadLayoutChainFlag(filepath.Join(dir, classify.LayoutConfigFile))
	}
}

// loadLayoutChainFlag reads the layout's own configuration. Chaining with an
// ancestor layout is opt-in; absent or malformed config means root-stop.
func loadLayoutChainFlag(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var cfg struct {
		Chain bool `yaml:"chain"`
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return false
	}
	return cfg.Chain
}
