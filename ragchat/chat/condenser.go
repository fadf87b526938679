package chat

import (
	"context"
	"fmt"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
)

// Condenser rewrites a follow-up question into a standalone question using prior turns.
type Condenser struct {
	predictor ports.Predictor
	prompt    *prompts.Template
}

// NewCondenser uses prompts.CondenseQuestion when prompt is nil.
func NewCondenser(predictor ports.Predictor, prompt *prompts.Template) *Condenser {
	if prompt == nil {
		prompt = prompts.CondenseQuestion
	}
	return &Condenser{predictor: predictor, prompt: prompt}
}

// Condense returns the standalone form of question. With no prior turns the question is
// returned verbatim and the predictor is not called.
func (c *Condenser) Condense(ctx context.Context, history []ports.Message, question string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	vars := map[string]string{
		prompts.VarQuestion:    question,
		prompts.VarChatHistory: FormatMessages(history),
	}

	// Render once locally so template errors surface before the predictor is reached.
	if _, err := c.prompt.Format(vars); err != nil {
		return "", err
	}

	condensed, err := c.predictor.Predict(ctx, c.prompt, vars)
	if err != nil {
		return "", fmt.Errorf("condense question: %w", err)
	}
	return condensed, nil
}
