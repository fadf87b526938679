package chat

import (
	"context"
	"fmt"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/rs/zerolog"
)

// ContextEngine retrieves context for every message and sends it to the completer as a
// leading system message. The system message is never stored in history.
type ContextEngine struct {
	retriever ports.Retriever
	completer ports.Completer
	composer  *ContextComposer
	history   *History
	logger    zerolog.Logger
	tracer    ports.Tracer
	verbose   bool
}

func NewContextEngine(retriever ports.Retriever, completer ports.Completer, opts ...Option) *ContextEngine {
	o := newEngineOptions(opts)
	return &ContextEngine{
		retriever: retriever,
		completer: completer,
		composer:  NewContextComposer(o.systemPrompt),
		history:   NewHistory(o.history...),
		logger:    o.logger.With().Str("engine", string(ModeContext)).Logger(),
		tracer:    o.tracer,
		verbose:   o.verbose,
	}
}

func (e *ContextEngine) Chat(ctx context.Context, message string, opts ...ChatOption) (resp *ports.Response, err error) {
	if err := beginTurn(e.history, message, opts); err != nil {
		return nil, err
	}

	ev := ports.NewEvent(ports.EventKindChat, map[string]string{"engine": string(ModeContext)})
	ctx = ports.WithEvent(ctx, ev)
	ctx, finish := e.tracer.StartSpan(ctx, "context_chat", map[string]any{
		"event_id":    ev.ID,
		"history_len": e.history.Len(),
	})
	defer func() { finish(err) }()

	nodes, err := e.retriever.Retrieve(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	e.tracer.Event(ctx, "context_retrieved", map[string]any{"nodes": len(nodes)})

	system, err := e.composer.Compose(nodes)
	if err != nil {
		return nil, err
	}

	e.history.Append(ports.UserMessage(message))

	history := e.history.Messages()
	request := make([]ports.Message, 0, len(history)+1)
	request = append(request, system)
	request = append(request, history...)

	reply, err := e.completer.Chat(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("context chat completion: %w", err)
	}

	e.history.Append(ports.AssistantMessage(reply.Content))
	logStep(e.logger, e.verbose).
		Str("event_id", ev.ID).
		Int("sources", len(nodes)).
		Int("history_len", e.history.Len()).
		Msg("Turn recorded")

	return &ports.Response{Text: reply.Content, SourceNodes: nodes}, nil
}

func (e *ContextEngine) Reset() { e.history.Reset() }

func (e *ContextEngine) History() []ports.Message { return e.history.Messages() }

func (e *ContextEngine) Snapshot() []ports.Message { return e.history.Snapshot() }

func (e *ContextEngine) Restore(msgs []ports.Message) { e.history.Restore(msgs) }

func (e *ContextEngine) ChatREPL(ctx context.Context) error {
	return fmt.Errorf("context engine repl: %w", ErrNotImplemented)
}

var _ Engine = (*ContextEngine)(nil)
