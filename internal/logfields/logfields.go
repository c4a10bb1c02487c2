package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath        = "path"
	KeySource      = "source"
	KeyDestination = "destination"
	KeySize        = "size"
	KeyCount       = "count"
	KeyStage       = "stage"
	KeyBuildID     = "build_id"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Destination(d string) slog.Attr  { return slog.String(KeyDestination, d) }
func Size(n int64) slog.Attr          { return slog.Int64(KeySize, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
