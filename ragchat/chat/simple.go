package chat

import (
	"context"
	"fmt"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/rs/zerolog"
)

// SimpleEngine chats with the completer directly, without retrieval.
type SimpleEngine struct {
	completer ports.Completer
	history   *History
	logger    zerolog.Logger
	tracer    ports.Tracer
	verbose   bool
}

func NewSimpleEngine(completer ports.Completer, opts ...Option) *SimpleEngine {
	o := newEngineOptions(opts)
	return &SimpleEngine{
		completer: completer,
		history:   NewHistory(o.history...),
		logger:    o.logger.With().Str("engine", string(ModeSimple)).Logger(),
		tracer:    o.tracer,
		verbose:   o.verbose,
	}
}

// Chat appends the user message, sends the whole history and records the reply.
func (e *SimpleEngine) Chat(ctx context.Context, message string, opts ...ChatOption) (resp *ports.Response, err error) {
	if err := beginTurn(e.history, message, opts); err != nil {
		return nil, err
	}

	ev := ports.NewEvent(ports.EventKindChat, map[string]string{"engine": string(ModeSimple)})
	ctx = ports.WithEvent(ctx, ev)
	ctx, finish := e.tracer.StartSpan(ctx, "simple_chat", map[string]any{
		"event_id":    ev.ID,
		"history_len": e.history.Len(),
	})
	defer func() { finish(err) }()

	e.history.Append(ports.UserMessage(message))

	reply, err := e.completer.Chat(ctx, e.history.Messages())
	if err != nil {
		return nil, fmt.Errorf("simple chat completion: %w", err)
	}

	e.history.Append(ports.AssistantMessage(reply.Content))
	logStep(e.logger, e.verbose).Str("event_id", ev.ID).Int("history_len", e.history.Len()).Msg("Turn recorded")

	return &ports.Response{Text: reply.Content}, nil
}

func (e *SimpleEngine) Reset() { e.history.Reset() }

func (e *SimpleEngine) History() []ports.Message { return e.history.Messages() }

func (e *SimpleEngine) Snapshot() []ports.Message { return e.history.Snapshot() }

func (e *SimpleEngine) Restore(msgs []ports.Message) { e.history.Restore(msgs) }

func (e *SimpleEngine) ChatREPL(ctx context.Context) error {
	return fmt.Errorf("simple engine repl: %w", ErrNotImplemented)
}

var _ Engine = (*SimpleEngine)(nil)
