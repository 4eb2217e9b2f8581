package session

import (
	"slices"

	"github.com/elee1766/playground/src/chat"
)

// State is the client-side view of the chat session.
type State struct {
	// Conversations is the most recently loaded list for the user.
	Conversations []chat.Conversation
	// ActiveConversation is nil when no conversation is open; messages are then
	// kept locally only.
	ActiveConversation *chat.Conversation
	Messages           []chat.Message
	// PendingSend is true from the optimistic user message until the reply
	// or error notice is appended.
	PendingSend bool
	// Input is the unsent text buffer.
	Input string
}

func (s State) clone() State {
	out := s
	out.Conversations = slices.Clone(s.Conversations)
	out.ActiveConversation = cloneConversation(s.ActiveConversation)
	out.Messages = make([]chat.Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = cloneMessage(m)
	}
	return out
}

// ActiveID returns the active conversation id, or empty.
func (s State) ActiveID() string {
	if s.ActiveConversation == nil {
		return ""
	}
	return s.ActiveConversation.ID
}

func cloneConversation(c *chat.Conversation) *chat.Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func cloneMessage(m chat.Message) chat.Message {
	if m.TokensUsed != nil {
		n := *m.TokensUsed
		m.TokensUsed = &n
	}
	return m
}
