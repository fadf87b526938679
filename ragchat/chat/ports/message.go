package chatports

import "fmt"

// Role tags who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is a single role-tagged utterance.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserMessage(content string) Message      { return Message{Role: RoleUser, Content: content} }
func AssistantMessage(content string) Message { return Message{Role: RoleAssistant, Content: content} }
func SystemMessage(content string) Message    { return Message{Role: RoleSystem, Content: content} }

// String renders the message as "role: content".
func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}
