package chat

import (
	"context"
	"fmt"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/rs/zerolog"
)

// CondenseQuestionEngine condenses each follow-up into a standalone question and answers it
// with a query engine. History records the original message, not the condensed one.
type CondenseQuestionEngine struct {
	queryEngine ports.QueryEngine
	condenser   *Condenser
	history     *History
	logger      zerolog.Logger
	tracer      ports.Tracer
	verbose     bool
}

func NewCondenseQuestionEngine(queryEngine ports.QueryEngine, predictor ports.Predictor, opts ...Option) *CondenseQuestionEngine {
	o := newEngineOptions(opts)
	return &CondenseQuestionEngine{
		queryEngine: queryEngine,
		condenser:   NewCondenser(predictor, o.condensePrompt),
		history:     NewHistory(o.history...),
		logger:      o.logger.With().Str("engine", string(ModeCondenseQuestion)).Logger(),
		tracer:      o.tracer,
		verbose:     o.verbose,
	}
}

func (e *CondenseQuestionEngine) Chat(ctx context.Context, message string, opts ...ChatOption) (resp *ports.Response, err error) {
	if err := beginTurn(e.history, message, opts); err != nil {
		return nil, err
	}

	ev := ports.NewEvent(ports.EventKindChat, map[string]string{"engine": string(ModeCondenseQuestion)})
	ctx = ports.WithEvent(ctx, ev)
	ctx, finish := e.tracer.StartSpan(ctx, "condense_question_chat", map[string]any{
		"event_id":    ev.ID,
		"history_len": e.history.Len(),
	})
	defer func() { finish(err) }()

	condensed, err := e.condenser.Condense(ctx, e.history.Messages(), message)
	if err != nil {
		return nil, err
	}
	logStep(e.logger, e.verbose).Str("event_id", ev.ID).Str("condensed", condensed).Msg("Querying with condensed question")
	e.tracer.Event(ctx, "question_condensed", map[string]any{"condensed": condensed})

	resp, err = e.queryEngine.Query(ctx, condensed)
	if err != nil {
		return nil, fmt.Errorf("query condensed question: %w", err)
	}
	if resp == nil {
		resp = &ports.Response{}
	}

	e.history.Append(ports.UserMessage(message), ports.AssistantMessage(resp.Text))
	return resp, nil
}

func (e *CondenseQuestionEngine) Reset() { e.history.Reset() }

func (e *CondenseQuestionEngine) History() []ports.Message { return e.history.Messages() }

func (e *CondenseQuestionEngine) Snapshot() []ports.Message { return e.history.Snapshot() }

func (e *CondenseQuestionEngine) Restore(msgs []ports.Message) { e.history.Restore(msgs) }

func (e *CondenseQuestionEngine) ChatREPL(ctx context.Context) error {
	return fmt.Errorf("condense question engine repl: %w", ErrNotImplemented)
}

var _ Engine = (*CondenseQuestionEngine)(nil)
