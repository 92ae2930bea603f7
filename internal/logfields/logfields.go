package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeyOutput     = "output"
	KeyCount      = "count"
	KeyCode       = "code"
	KeyOutcome    = "outcome"
	KeySubject    = "subject"
	KeyCommit     = "commit"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Route(r string) slog.Attr        { return slog.String(KeyRoute, r) }
func Output(dir string) slog.Attr     { return slog.String(KeyOutput, dir) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Code(c string) slog.Attr         { return slog.String(KeyCode, c) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Commit(c string) slog.Attr       { return slog.String(KeyCommit, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
