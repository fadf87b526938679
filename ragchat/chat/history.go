package chat

import (
	"strings"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
)

// History is the ordered message log of one conversation. It only grows, except on Reset.
// History is not safe for concurrent use; it belongs to exactly one engine.
type History struct {
	messages []ports.Message
}

// NewHistory returns a history seeded with a copy of initial.
func NewHistory(initial ...ports.Message) *History {
	h := &History{}
	h.Restore(initial)
	return h
}

// Append adds messages in order.
func (h *History) Append(msgs ...ports.Message) {
	h.messages = append(h.messages, msgs...)
}

// Messages returns a copy of the log.
func (h *History) Messages() []ports.Message {
	out := make([]ports.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int { return len(h.messages) }

// Reset empties the log. Calling it repeatedly has no further effect.
func (h *History) Reset() {
	h.messages = nil
}

// Snapshot captures the current log so a caller can Restore it after a failed turn.
func (h *History) Snapshot() []ports.Message {
	return h.Messages()
}

// Restore replaces the log with a copy of msgs.
func (h *History) Restore(msgs []ports.Message) {
	if len(msgs) == 0 {
		h.messages = nil
		return
	}
	h.messages = make([]ports.Message, len(msgs))
	copy(h.messages, msgs)
}

// FormatMessages renders messages as "role: content" lines joined by newlines.
func FormatMessages(msgs []ports.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.String()
	}
	return strings.Join(lines, "\n")
}
