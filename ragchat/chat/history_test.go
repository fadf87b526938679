package chat

import (
	"testing"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendAndCopy(t *testing.T) {
	h := NewHistory()
	h.Append(ports.UserMessage("hi"), ports.AssistantMessage("hello"))

	msgs := h.Messages()
	assert.Len(t, msgs, 2)

	msgs[0].Content = "mutated"
	assert.Equal(t, "hi", h.Messages()[0].Content, "Messages returns a copy")
}

func TestHistory_SeedIsCopied(t *testing.T) {
	seed := []ports.Message{ports.UserMessage("a")}
	h := NewHistory(seed...)
	seed[0].Content = "changed"

	assert.Equal(t, "a", h.Messages()[0].Content)
}

func TestHistory_ResetIsIdempotent(t *testing.T) {
	h := NewHistory(ports.UserMessage("1"))

	h.Reset()
	assert.Empty(t, h.Messages())
	h.Reset()
	assert.Empty(t, h.Messages())
	assert.Equal(t, 0, h.Len())
}

func TestHistory_SnapshotRestore(t *testing.T) {
	h := NewHistory(ports.UserMessage("q"), ports.AssistantMessage("a"))
	snap := h.Snapshot()

	h.Append(ports.UserMessage("dangling"))
	h.Restore(snap)

	assert.Equal(t, snap, h.Messages())
}

func TestFormatMessages(t *testing.T) {
	out := FormatMessages([]ports.Message{
		ports.UserMessage("What is France?"),
		ports.AssistantMessage("A country."),
	})
	assert.Equal(t, "user: What is France?\nassistant: A country.", out)
	assert.Equal(t, "", FormatMessages(nil))
}
