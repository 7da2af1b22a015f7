package logging

import (
	"log/slog"
	"strings"
)

// ErrorDetail returns a ReplaceAttr hook for slog handlers. When verbose is
// false, error values are cut down to their outermost message so wrapped
// causes such as upstream response bodies stay out of production logs.
func ErrorDetail(verbose bool) func(groups []string, a slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		if verbose || a.Value.Kind() != slog.KindAny {
			return a
		}
		err, ok := a.Value.Any().(error)
		if !ok || err == nil {
			return a
		}
		return slog.String(a.Key, Summarize(err))
	}
}

// Summarize returns the text of err up to the first ": " separator, which
// for fmt.Errorf("%w: ...") chains is the sentinel message.
func Summarize(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, ": "); i > 0 {
		return msg[:i]
	}
	return msg
}
