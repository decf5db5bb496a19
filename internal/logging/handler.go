package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Handler writes one line per record:
// TIMESTAMP [level] Message | key=value key=value
// Group names join attribute keys with dots, so a "watch" group logging
// "path" prints watch.path=... .
type Handler struct {
	w     io.Writer
	level slog.Leveler
	mu    *sync.Mutex

	prefix string   // accumulated group path, "" or "a.b."
	fields []string // preformatted key=value pairs from WithAttrs
}

// NewHandler creates a line-oriented text handler.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{
		w:     w,
		level: slog.LevelInfo,
		mu:    &sync.Mutex{},
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled reports whether records at the given level are written.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle renders the record as a single line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := h.fields
	r.Attrs(func(a slog.Attr) bool {
		if f, ok := h.formatAttr(a); ok {
			fields = append(fields, f)
		}
		return true
	})

	var b strings.Builder
	b.WriteString(r.Time.UTC().Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(levelString(r.Level))
	b.WriteString("] ")
	b.WriteString(r.Message)
	if len(fields) > 0 {
		b.WriteString(" | ")
		b.WriteString(strings.Join(fields, " "))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs formats the attributes once, under the current group prefix,
// and carries them into every later record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.fields = make([]string, len(h.fields), len(h.fields)+len(attrs))
	copy(clone.fields, h.fields)
	for _, a := range attrs {
		if f, ok := clone.formatAttr(a); ok {
			clone.fields = append(clone.fields, f)
		}
	}
	// Clamp capacity so the append in Handle copies instead of writing
	// into an array shared between clones.
	clone.fields = clone.fields[:len(clone.fields):len(clone.fields)]
	return &clone
}

// WithGroup extends the key prefix for subsequent attributes.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// formatAttr renders one attribute as key=value with the group prefix
// applied. Attributes with empty keys are dropped.
func (h *Handler) formatAttr(a slog.Attr) (string, bool) {
	if a.Key == "" {
		return "", false
	}
	return h.prefix + a.Key + "=" + formatValue(a.Value.Resolve()), true
}

// levelString maps a level to its lowercase label, bucketing custom
// levels with the nearest standard one below them.
func levelString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	}
	return "debug"
}

// formatValue renders times as RFC3339 UTC; everything else prints the
// way fmt.Sprint would.
func formatValue(v slog.Value) string {
	if v.Kind() == slog.KindTime {
		return v.Time().UTC().Format(time.RFC3339)
	}
	return v.String()
}
