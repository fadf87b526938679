package chat

import (
	"testing"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/ZanzyTHEbar/ragchat/ragchat/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextComposer_JoinsInRankOrder(t *testing.T) {
	composer := NewContextComposer(nil)

	msg, err := composer.Compose([]ports.NodeWithScore{
		node("a", "first", 0.9),
		node("b", "second", 0.5),
	})
	require.NoError(t, err)

	assert.Equal(t, ports.RoleSystem, msg.Role)
	assert.Equal(t, "Context information is below.\n--------------------\nfirst\n\nsecond\n--------------------\n", msg.Content)
}

func TestContextComposer_EmptyNodes(t *testing.T) {
	composer := NewContextComposer(nil)

	assert.Equal(t, "", composer.ContextString(nil))
	msg, err := composer.Compose(nil)
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "--------------------\n\n--------------------")
}

func TestContextComposer_CustomTemplate(t *testing.T) {
	tmpl, err := prompts.New("sys", "Use only this:\n{{.context_str}}", prompts.VarContext)
	require.NoError(t, err)

	msg, err := NewContextComposer(tmpl).Compose([]ports.NodeWithScore{node("a", "fact", 1)})
	require.NoError(t, err)
	assert.Equal(t, "Use only this:\nfact", msg.Content)
}

func TestContextComposer_BadTemplate(t *testing.T) {
	tmpl, err := prompts.New("sys", "{{.context_str}} {{.persona}}", prompts.VarContext, "persona")
	require.NoError(t, err)

	_, err = NewContextComposer(tmpl).Compose(nil)
	assert.ErrorIs(t, err, prompts.ErrMissingVariable)
}
