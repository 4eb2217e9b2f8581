package chat

import (
	"context"
	"errors"
)

// Backend is the remote persistence and inference service.
type Backend interface {
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, []Message, error)
	CreateConversation(ctx context.Context, draft ConversationDraft) (*Conversation, error)
	UpdateConversation(ctx context.Context, id string, draft ConversationDraft) (*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, conversationID string, rec MessageRecord) error
	// Chat runs inference. conversationID may be empty.
	Chat(ctx context.Context, conversationID string, req ChatRequest) (*ChatReply, error)
}

// Rejection is implemented by errors that carry a well-formed answer from the
// server, as opposed to a transport or decoding failure.
type Rejection interface {
	error
	// ServerReason is the server-reported error text, possibly empty.
	ServerReason() string
}

// AsRejection unwraps err to a Rejection.
func AsRejection(err error) (Rejection, bool) {
	var rej Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsServerRejection reports whether err carries a server answer.
func IsServerRejection(err error) bool {
	_, ok := AsRejection(err)
	return ok
}
