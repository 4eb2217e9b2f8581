package storage

import "time"

// ClientState is what the client remembers about a user between runs.
type ClientState struct {
	UserID                string          `json:"user_id" db:"user_id"`
	ActiveConversationID  *string         `json:"active_conversation_id,omitempty" db:"active_conversation_id"`
	SelectedModel         string          `json:"selected_model" db:"selected_model"`
	RecentConversationIDs JSONStringArray `json:"recent_conversation_ids" db:"recent_conversation_ids"`
	CreatedAt             time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at" db:"updated_at"`
}

// OutboxEntry is a message record that could not be persisted remotely.
type OutboxEntry struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	Model          string    `json:"model" db:"model"`
	TokensUsed     *int      `json:"tokens_used,omitempty" db:"tokens_used"`
	Attempts       int       `json:"attempts" db:"attempts"`
	LastError      string    `json:"last_error" db:"last_error"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
