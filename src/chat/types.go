// Package chat holds the conversation types shared by the session controller
// and the backend client.
package chat

import (
	"github.com/sashabaranov/go-openai"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = openai.ChatMessageRoleUser
	RoleAssistant Role = openai.ChatMessageRoleAssistant
)

// Conversation is a persisted chat thread. An empty ID marks a draft that has
// not been accepted by the backend yet.
type Conversation struct {
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title"`
	ModelUsed    string    `json:"model_used"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
	MessageCount int       `json:"message_count,omitempty"`
}

// IsDraft reports whether the conversation has no durable identifier.
func (c Conversation) IsDraft() bool {
	return c.ID == ""
}

// Message is one turn in a conversation.
type Message struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  Timestamp `json:"created_at"`
	Model      string    `json:"model,omitempty"`
	TokensUsed *int      `json:"tokens_used,omitempty"`
	// IsError marks locally synthesized failure notices. Never persisted.
	IsError bool `json:"-"`
}

// MessageRecord is the payload appended to a conversation's durable log.
type MessageRecord struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	Model      string `json:"model,omitempty"`
	TokensUsed *int   `json:"tokens_used,omitempty"`
}

// ConversationDraft is the payload used to create or update a conversation.
type ConversationDraft struct {
	Title  string `json:"title"`
	Model  string `json:"model,omitempty"`
	UserID string `json:"user_id"`
}

// ChatRequest is the inference request body.
type ChatRequest struct {
	Model       string                         `json:"model"`
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	MaxTokens   int                            `json:"max_tokens"`
	Temperature float32                        `json:"temperature"`
}

// ChatReply carries every response shape the inference endpoint is known to
// produce. Callers decide which shape applies.
type ChatReply struct {
	// OpenAI-style shape.
	Choices []openai.ChatCompletionChoice `json:"choices,omitempty"`
	Usage   *openai.Usage                 `json:"usage,omitempty"`

	// Flat shape.
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

// TotalTokens returns the reported token usage, if any.
func (r *ChatReply) TotalTokens() *int {
	if r == nil || r.Usage == nil || r.Usage.TotalTokens == 0 {
		return nil
	}
	total := r.Usage.TotalTokens
	return &total
}

// History converts a message log into role/content pairs for inference.
func History(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
