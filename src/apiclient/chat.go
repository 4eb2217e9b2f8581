package apiclient

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/elee1766/playground/src/chat"
)

// Chat asks the model for a reply. With an empty conversationID the request
// goes to the conversation-less endpoint. A 2xx reply is returned even when it
// reports success:false, since the caller decides how to render that.
func (c *Client) Chat(ctx context.Context, conversationID string, req chat.ChatRequest) (*chat.ChatReply, error) {
	path := "/chat"
	if conversationID != "" {
		escaped, err := pathID(conversationID)
		if err != nil {
			return nil, err
		}
		path += "/" + escaped
	}

	logger := c.logger.With("method", "Chat", "model", req.Model, "conversation_id", conversationID)
	logger.Debug("sending chat request", "history", len(req.Messages))

	var reply chat.ChatReply
	if err := c.callJSON(ctx, http.MethodPost, path, nil, req, &reply); err != nil {
		return nil, err
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		attrs := []any{"choices", len(reply.Choices), "success", reply.Success}
		if tokens := reply.TotalTokens(); tokens != nil {
			attrs = append(attrs, "usage_total", *tokens)
		}
		logger.Debug("chat reply received", attrs...)
	}
	return &reply, nil
}
