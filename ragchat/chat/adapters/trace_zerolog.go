package adapters

import (
	"context"
	"time"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/rs/zerolog"
)

// ZerologTracer implements the Tracer interface using zerolog.
type ZerologTracer struct {
	logger zerolog.Logger
}

// NewZerologTracer creates a new zerolog tracer.
func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{
		logger: logger,
	}
}

type spanLoggerKey struct{}

// StartSpan starts a new tracing span and returns the context and finish function.
// The span logger carries the correlation event ID when the context has one.
func (t *ZerologTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	lc := t.spanParent(ctx).With().Str("span", name)
	if id := ports.EventID(ctx); id != "" {
		lc = lc.Str("event_id", id)
	}
	for k, v := range attrs {
		lc = lc.Interface(k, v)
	}
	spanLogger := lc.Logger()

	ctx = context.WithValue(ctx, spanLoggerKey{}, spanLogger)

	startTime := time.Now()
	spanLogger.Debug().Str("event", "span_start").Msg("Starting span")

	finish := func(err error) {
		event := spanLogger.Debug()
		if err != nil {
			event = spanLogger.Error().Err(err)
		}

		event.
			Str("event", "span_end").
			Dur("duration", time.Since(startTime)).
			Msg("Ending span")
	}

	return ctx, finish
}

// Event logs a tracing event with the current span context.
func (t *ZerologTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	parent := t.spanParent(ctx)
	event := parent.Debug()
	if _, inSpan := ctx.Value(spanLoggerKey{}).(zerolog.Logger); !inSpan {
		if id := ports.EventID(ctx); id != "" {
			event = event.Str("event_id", id)
		}
	}

	for k, v := range attrs {
		event = event.Interface(k, v)
	}

	event.Str("event", name).Msg("Tracing event")
}

// spanParent returns the innermost span logger in ctx, or the root logger.
func (t *ZerologTracer) spanParent(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(spanLoggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return t.logger
}

// Ensure ZerologTracer implements the Tracer interface.
var _ ports.Tracer = (*ZerologTracer)(nil)
