// Package manifest persists the record of source-to-destination mappings and
// modification times that drives incremental staleness detection. One
// manifest file lives at each destination root, so output tags have fully
// independent manifests.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// File is the manifest file name at the destination root.
const File = ".manifest.json"

// Entry records one successfully processed source file.
type Entry struct {
	Source  string    `json:"source"` // slash-separated, relative to the source root
	ModTime time.Time `json:"mtime"`  // source modification time at last successful render
	Dest    string    `json:"dest"`   // slash-separated, relative to the destination root
}

// Manifest is the shared per-tag staleness record. Entry writes are
// independent per document; serialization is a single-writer operation
// performed at the end of the pass.
type Manifest struct {
	mu      sync.Mutex
	tag     string
	path    string
	force   bool
	entries map[string]Entry
}

type manifestFile struct {
	Tag       string    `json:"tag"`
	Generated time.Time `json:"generated"`
	Entries   []Entry   `json:"entries"`
}

// Load reads the manifest for a tag from the destination root. A missing
// file yields an empty manifest; an unparsable file is fatal for the build,
// since no partial output can be trusted against it.
func Load(destRoot, tag string) (*Manifest, error) {
	m := &Manifest{
		tag:     tag,
		path:    filepath.Join(destRoot, File),
		entries: map[string]Entry{},
	}
	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, sberrors.ManifestCorrupt(m.path, err)
	}
	var mf manifestFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, sberrors.ManifestCorrupt(m.path, err)
	}
	for _, e := range mf.Entries {
		m.entries[e.Source] = e
	}
	return m, nil
}

// SetForce bypasses staleness checks for one run. Entries are still
// recorded afterwards so the next run is incremental again.
func (m *Manifest) SetForce(force bool) {
	m.mu.Lock()
	m.force = force
	m.mu.Unlock()
}

// IsStale reports whether a source file needs rendering: unknown source,
// changed modification time, or force mode.
func (m *Manifest) IsStale(source string, modTime time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.force {
		return true
	}
	entry, ok := m.entries[source]
	if !ok {
		return true
	}
	return !entry.ModTime.Equal(modTime)
}

// Record stores the entry for a successfully rendered or copied source.
// Failed documents are never recorded, so they stay stale and are retried
// on the next pass.
func (m *Manifest) Record(source, dest string, modTime time.Time) {
	m.mu.Lock()
	m.entries[source] = Entry{Source: source, ModTime: modTime, Dest: dest}
	m.mu.Unlock()
}

// Dest returns the recorded destination for a source, if any.
func (m *Manifest) Dest(source string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[source]
	return e.Dest, ok
}

// Len returns the number of recorded entries.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Save serializes the manifest to the destination root. Called once at the
// end of every pass, success or partial failure, so interrupted builds still
// advance for the files that completed. Entries are sorted for a stable
// round-trip.
func (m *Manifest) Save() error {
	m.mu.Lock()
	mf := manifestFile{Tag: m.tag, Generated: time.Now().UTC()}
	mf.Entries = make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		mf.Entries = append(mf.Entries, e)
	}
	path := m.path
	m.mu.Unlock()

	sort.Slice(mf.Entries, func(i, j int) bool { return mf.Entries[i].Source < mf.Entries[j].Source })

	data, err := json.MarshalIndent(&mf, "", "  ")
	if err != nil {
		return sberrors.Wrap(err, sberrors.CategoryManifest, sberrors.SeverityError, "marshal manifest")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return sberrors.Wrap(err, sberrors.CategoryManifest, sberrors.SeverityError, "write manifest")
	}
	if err := os.Rename(tmp, path); err != nil {
		return sberrors.Wrap(err, sberrors.CategoryManifest, sberrors.SeverityError, "replace manifest")
	}
	return nil
}
