package logging

import (
	"context"
	"log/slog"
)

type passIDKey struct{}

// ContextWithPassID tags ctx with the id of a scan-and-combine pass. Records
// logged through a *Context method with this ctx carry FieldPassID.
func ContextWithPassID(ctx context.Context, passID string) context.Context {
	if passID == "" {
		return ctx
	}
	return context.WithValue(ctx, passIDKey{}, passID)
}

// PassIDFromContext returns the pass id stored by ContextWithPassID.
func PassIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(passIDKey{}).(string)
	return id, ok && id != ""
}

// correlationHandler stamps records with the watch session id and, when the
// record's context names one, the pass id. Both stay top-level even under
// WithGroup: groups are replayed onto the record here instead of being
// pushed into base.
type correlationHandler struct {
	base      slog.Handler
	sessionID string
	// scopes holds every group opened so far with the attrs bound inside it.
	scopes []groupScope
}

type groupScope struct {
	name  string
	attrs []slog.Attr
}

func newCorrelationHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &correlationHandler{base: base, sessionID: sessionID}
}

func (h *correlationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *correlationHandler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.scopes) > 0 {
		record = h.nest(record)
	}
	if h.sessionID != "" {
		record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
	}
	if passID, ok := PassIDFromContext(ctx); ok {
		record.AddAttrs(slog.String(FieldPassID, passID))
	}
	return h.base.Handle(ctx, record)
}

// nest moves the record's attrs under the open groups.
func (h *correlationHandler) nest(record slog.Record) slog.Record {
	inner := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		inner = append(inner, a)
		return true
	})
	for i := len(h.scopes) - 1; i >= 0; i-- {
		scope := h.scopes[i]
		members := append(append([]slog.Attr{}, scope.attrs...), inner...)
		inner = []slog.Attr{{Key: scope.name, Value: slog.GroupValue(members...)}}
	}
	nested := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	nested.AddAttrs(inner...)
	return nested
}

func (h *correlationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	if len(h.scopes) == 0 {
		return &correlationHandler{base: h.base.WithAttrs(attrs), sessionID: h.sessionID}
	}
	scopes := append([]groupScope(nil), h.scopes...)
	last := &scopes[len(scopes)-1]
	last.attrs = append(append([]slog.Attr(nil), last.attrs...), attrs...)
	return &correlationHandler{base: h.base, sessionID: h.sessionID, scopes: scopes}
}

func (h *correlationHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	scopes := append(append([]groupScope(nil), h.scopes...), groupScope{name: name})
	return &correlationHandler{base: h.base, sessionID: h.sessionID, scopes: scopes}
}
