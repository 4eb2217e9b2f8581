package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/elee1766/playground/src/chat"
)

type conversationListResponse struct {
	envelope
	Conversations []chat.Conversation `json:"conversations"`
}

type conversationResponse struct {
	envelope
	Conversation *chat.Conversation `json:"conversation"`
	Messages     []chat.Message     `json:"messages"`
}

// ListConversations returns the user's conversations, most recent first as
// ordered by the backend.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}

	var resp conversationListResponse
	query := url.Values{"user_id": []string{userID}}
	if err := c.callJSON(ctx, http.MethodGet, "/conversations", query, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, resp.rejection(http.StatusOK)
	}
	return resp.Conversations, nil
}

// GetConversation fetches a conversation together with its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*chat.Conversation, []chat.Message, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, nil, err
	}

	var resp conversationResponse
	if err := c.callJSON(ctx, http.MethodGet, "/conversations/"+escaped, nil, nil, &resp); err != nil {
		return nil, nil, err
	}
	if !resp.Success {
		return nil, nil, resp.rejection(http.StatusOK)
	}
	if resp.Conversation == nil {
		return nil, nil, &TransportError{Op: "GET /conversations/" + escaped, Err: errMissingField("conversation")}
	}
	return resp.Conversation, resp.Messages, nil
}

// CreateConversation creates a conversation and returns the server record.
func (c *Client) CreateConversation(ctx context.Context, draft chat.ConversationDraft) (*chat.Conversation, error) {
	var resp conversationResponse
	if err := c.callJSON(ctx, http.MethodPost, "/conversations", nil, draft, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, resp.rejection(http.StatusOK)
	}
	if resp.Conversation == nil || resp.Conversation.ID == "" {
		return nil, &TransportError{Op: "POST /conversations", Err: errMissingField("conversation.id")}
	}

	c.logger.Debug("conversation created", "conversation_id", resp.Conversation.ID)
	return resp.Conversation, nil
}

// UpdateConversation sets the title and model of a conversation.
func (c *Client) UpdateConversation(ctx context.Context, id string, draft chat.ConversationDraft) (*chat.Conversation, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var resp conversationResponse
	if err := c.callJSON(ctx, http.MethodPut, "/conversations/"+escaped, nil, draft, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, resp.rejection(http.StatusOK)
	}
	return resp.Conversation, nil
}

// DeleteConversation removes a conversation. Only the HTTP status matters;
// the response body is not inspected.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	escaped, err := pathID(id)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodDelete, "/conversations/"+escaped, nil, nil)
	return err
}

// AppendMessage persists one message in a conversation.
func (c *Client) AppendMessage(ctx context.Context, conversationID string, rec chat.MessageRecord) error {
	escaped, err := pathID(conversationID)
	if err != nil {
		return err
	}

	var resp envelope
	if err := c.callJSON(ctx, http.MethodPost, "/conversations/"+escaped+"/messages", nil, rec, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return resp.rejection(http.StatusOK)
	}
	return nil
}

type missingFieldError string

func (e missingFieldError) Error() string {
	return "response is missing " + string(e)
}

func errMissingField(name string) error {
	return missingFieldError(name)
}
