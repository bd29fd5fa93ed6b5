// ABOUTME: Message and Role types for the chat transcript
// ABOUTME: Roles are a closed set; messages are values and never mutated after append

package transcript

import (
	"errors"
	"fmt"
)

// ErrInvalidRole is returned when a message carries a role outside the enumerated set.
var ErrInvalidRole = errors.New("invalid message role")

// Role identifies who authored a message.
type Role string

// Role constants
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// Message is one turn of the conversation. Sources is only set on assistant messages.
type Message struct {
	Role    Role       `json:"role"`
	Content string     `json:"content"`
	Sources []Citation `json:"sources,omitempty"`
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant turn with its citations.
func AssistantMessage(content string, sources []Citation) Message {
	return Message{Role: RoleAssistant, Content: content, Sources: sources}
}

// Validate checks the role. Empty content is allowed.
func (m Message) Validate() error {
	if !m.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}
	return nil
}

// SourceLabels returns the display label of every citation, in order.
func (m Message) SourceLabels() []string {
	if len(m.Sources) == 0 {
		return nil
	}
	labels := make([]string, len(m.Sources))
	for i, c := range m.Sources {
		labels[i] = c.Label()
	}
	return labels
}
