package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyTag        = "tag"
	KeySource     = "source"
	KeyDest       = "dest"
	KeyPath       = "path"
	KeyKind       = "kind"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Tag(tag string) slog.Attr        { return slog.String(KeyTag, tag) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
