package log

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Switch turns a family of loggers on and off at runtime without
// rebuilding them. A disabled switch drops every record regardless of level.
type Switch struct {
	on atomic.Bool
}

// NewSwitch returns a Switch in the given state.
func NewSwitch(enabled bool) *Switch {
	s := &Switch{}
	s.on.Store(enabled)
	return s
}

// Set enables or disables the loggers bound to s.
func (s *Switch) Set(enabled bool) {
	s.on.Store(enabled)
}

// Enabled reports whether records pass through the switch.
func (s *Switch) Enabled() bool {
	return s.on.Load()
}

// Logger returns a logger that writes through l while the switch is on.
// A nil l binds to slog.Default().
func (s *Switch) Logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return slog.New(&switchHandler{sw: s, handler: l.Handler()})
}

type switchHandler struct {
	sw      *Switch
	handler slog.Handler
}

func (h *switchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.sw.Enabled() && h.handler.Enabled(ctx, level)
}

func (h *switchHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.sw.Enabled() {
		return nil
	}
	return h.handler.Handle(ctx, r)
}

func (h *switchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &switchHandler{sw: h.sw, handler: h.handler.WithAttrs(attrs)}
}

func (h *switchHandler) WithGroup(name string) slog.Handler {
	return &switchHandler{sw: h.sw, handler: h.handler.WithGroup(name)}
}
