// internal/pkg/logger/handlers.go
package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "***REDACTED***"

// ContextHandler extracts values from context and adds them to log records
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a handler that enriches logs with context values
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := extractContextAttrs(ctx); len(attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}
	return h.handler.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

// SanitizationHandler removes or masks sensitive data
type SanitizationHandler struct {
	handler    slog.Handler
	redactions []redaction
	blacklist  []string
}

// NewSanitizationHandler creates a handler that sanitizes sensitive data
func NewSanitizationHandler(handler slog.Handler) *SanitizationHandler {
	return &SanitizationHandler{
		handler: handler,
		redactions: []redaction{
			{
				pattern:     regexp.MustCompile(`(?i)(password|pwd|secret|token|bearer|api[-_]?key)\s*[:=]\s*["']?([^"'\s]+)`),
				replacement: "$1=" + redacted,
			},
			{
				// customer email addresses
				pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
				replacement: redacted,
			},
			{
				// postgres URLs with credentials
				pattern:     regexp.MustCompile(`(postgres(?:ql)?://[^:/\s]+:)[^@\s]+@`),
				replacement: "${1}" + redacted + "@",
			},
		},
		blacklist: []string{
			"password", "pwd", "secret", "token", "authorization",
			"api_key", "access_key",
		},
	}
}

func (h *SanitizationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *SanitizationHandler) Handle(ctx context.Context, record slog.Record) error {
	sanitized := slog.NewRecord(record.Time, record.Level, h.sanitizeString(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

func (h *SanitizationHandler) sanitizeAttr(attr slog.Attr) slog.Attr {
	lowerKey := strings.ToLower(attr.Key)
	for _, blacklisted := range h.blacklist {
		if strings.Contains(lowerKey, blacklisted) {
			attr.Value = slog.StringValue(redacted)
			return attr
		}
	}

	if attr.Value.Kind() == slog.KindString {
		attr.Value = slog.StringValue(h.sanitizeString(attr.Value.String()))
	}
	return attr
}

func (h *SanitizationHandler) sanitizeString(s string) string {
	for _, r := range h.redactions {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

func (h *SanitizationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.sanitizeAttr(a)
	}
	return &SanitizationHandler{
		handler:    h.handler.WithAttrs(clean),
		redactions: h.redactions,
		blacklist:  h.blacklist,
	}
}

func (h *SanitizationHandler) WithGroup(name string) slog.Handler {
	return &SanitizationHandler{
		handler:    h.handler.WithGroup(name),
		redactions: h.redactions,
		blacklist:  h.blacklist,
	}
}
