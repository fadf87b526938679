package chat

import (
	"strings"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
)

const contextSeparator = "\n\n"

// ContextComposer turns retrieved nodes into a single system message.
type ContextComposer struct {
	prompt *prompts.Template
}

// NewContextComposer uses prompts.ContextSystem when prompt is nil.
func NewContextComposer(prompt *prompts.Template) *ContextComposer {
	if prompt == nil {
		prompt = prompts.ContextSystem
	}
	return &ContextComposer{prompt: prompt}
}

// ContextString joins node texts in rank order with a blank line between them.
func (c *ContextComposer) ContextString(nodes []ports.NodeWithScore) string {
	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = n.Node.Text
	}
	return strings.Join(texts, contextSeparator)
}

// Compose renders the system message. An empty node list yields an empty context block.
func (c *ContextComposer) Compose(nodes []ports.NodeWithScore) (ports.Message, error) {
	content, err := c.prompt.Format(map[string]string{prompts.VarContext: c.ContextString(nodes)})
	if err != nil {
		return ports.Message{}, err
	}
	return ports.SystemMessage(content), nil
}
