// Package chat implements conversation engines over a retrieval-augmented generation pipeline.
//
// Three engines share the Engine interface:
//
//   - SimpleEngine sends the running history straight to the completer.
//   - CondenseQuestionEngine rewrites each follow-up into a standalone question and hands it
//     to a query engine.
//   - ContextEngine retrieves context for every message and prepends it as a system message.
//
// Each engine owns its History. Engines hold no lock: calls on one engine must be serialized
// by the caller, while separate engines may run concurrently and share gateways.
package chat

import (
	"context"
	"fmt"
	"strings"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
	"github.com/rs/zerolog"
)

// Engine is one conversation strategy.
type Engine interface {
	// Chat runs one turn and records it in the engine's history.
	Chat(ctx context.Context, message string, opts ...ChatOption) (*ports.Response, error)
	// Reset clears the history.
	Reset()
	// History returns a copy of the conversation so far.
	History() []ports.Message
	// Snapshot captures the history so a failed turn can be undone with Restore.
	Snapshot() []ports.Message
	// Restore replaces the history with a copy of msgs.
	Restore(msgs []ports.Message)
	// ChatREPL always returns ErrNotImplemented; interactive loops belong to the host.
	ChatREPL(ctx context.Context) error
}

// Mode names an engine strategy.
type Mode string

const (
	ModeSimple           Mode = "simple"
	ModeCondenseQuestion Mode = "condense_question"
	ModeContext          Mode = "context"
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSimple, ModeCondenseQuestion, ModeContext:
		return m, nil
	case "":
		return ModeContext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

type engineOptions struct {
	history        []ports.Message
	logger         zerolog.Logger
	tracer         ports.Tracer
	systemPrompt   *prompts.Template
	condensePrompt *prompts.Template
	verbose        bool
}

// Option configures an engine at construction.
type Option func(*engineOptions)

// WithInitialHistory seeds the engine's history.
func WithInitialHistory(msgs []ports.Message) Option {
	return func(o *engineOptions) { o.history = msgs }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

func WithTracer(tracer ports.Tracer) Option {
	return func(o *engineOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithSystemPrompt sets the context template used by ContextEngine.
func WithSystemPrompt(t *prompts.Template) Option {
	return func(o *engineOptions) { o.systemPrompt = t }
}

// WithCondensePrompt sets the condensation template used by CondenseQuestionEngine.
func WithCondensePrompt(t *prompts.Template) Option {
	return func(o *engineOptions) { o.condensePrompt = t }
}

// WithVerbose logs intermediate steps at info level instead of debug.
func WithVerbose(v bool) Option {
	return func(o *engineOptions) { o.verbose = v }
}

func newEngineOptions(opts []Option) engineOptions {
	o := engineOptions{
		logger: zerolog.Nop(),
		tracer: noOpTracer{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type chatOptions struct {
	history  []ports.Message
	override bool
}

// ChatOption configures a single Chat call.
type ChatOption func(*chatOptions)

// WithHistory replaces the engine's history for this turn. The engine keeps the replaced
// history, updated with the turn, for subsequent calls.
func WithHistory(msgs []ports.Message) ChatOption {
	return func(o *chatOptions) {
		o.history = msgs
		o.override = true
	}
}

// beginTurn validates the message and applies any history override.
func beginTurn(h *History, message string, opts []ChatOption) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	var co chatOptions
	for _, opt := range opts {
		opt(&co)
	}
	if co.override {
		h.Restore(co.history)
	}
	return nil
}

// logStep logs at info when verbose, debug otherwise.
func logStep(logger zerolog.Logger, verbose bool) *zerolog.Event {
	if verbose {
		return logger.Info()
	}
	return logger.Debug()
}

type noOpTracer struct{}

func (noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(error) {}
}

func (noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

var _ ports.Tracer = noOpTracer{}
