package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation transcript. Assistant
// messages may carry the raw suggestion payload that accompanied them so
// a reloaded session can re-render pending proposals.
type Message struct {
	ID          string          `json:"id"`
	Role        Role            `json:"role"`
	Content     string          `json:"content"`
	Timestamp   time.Time       `json:"timestamp"`
	Welcome     bool            `json:"welcome,omitempty"`
	Suggestions json.RawMessage `json:"suggestions,omitempty"`
}

// NewMessageID generates a unique message identifier.
func NewMessageID() string {
	return fmt.Sprintf("msg-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an assistant-authored message.
func NewAssistantMessage(content string) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewWelcomeMessage creates the canned opener shown before the human has
// said anything. Welcome messages are excluded from the history window
// sent to the collaborator.
func NewWelcomeMessage(content string) Message {
	m := NewAssistantMessage(content)
	m.Welcome = true
	return m
}

// IsEmpty reports whether the message has no visible content.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}

// HistoryWindow returns the most recent limit messages, excluding welcome
// messages, oldest first. This is the conversational context forwarded to
// the collaborator on each turn.
func HistoryWindow(messages []Message, limit int) []Message {
	filtered := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Welcome {
			continue
		}
		filtered = append(filtered, m)
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered
}
