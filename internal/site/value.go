// Package site resolves a document's configuration data and layout chain by
// walking its ancestor directories. Both resolvers share one per-pass
// directory cache so deep trees are read once, not once per document.
package site

// Merge applies src over dst key-by-key. Later fragments win per key; the
// fragment is never substituted whole, so sibling keys from earlier scopes
// survive. Values are replaced, not deep-merged.
func Merge(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

// Clone returns a top-level copy of a data table. Nested values are shared;
// resolvers only ever write top-level keys.
func Clone(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// ReservedKeys are populated by the renderer and rejected in user fragments.
var ReservedKeys = []string{"context", "template"}

// FindReservedKey returns the first reserved key present in the fragment.
func FindReservedKey(fragment map[string]any) (string, bool) {
	for _, key := range ReservedKeys {
		if _, ok := fragment[key]; ok {
			return key, true
		}
	}
	return "", false
}
