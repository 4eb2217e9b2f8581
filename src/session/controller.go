// Package session owns the client-side chat state: the active conversation,
// its message log and the single in-flight send.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/elee1766/playground/src/chat"
)

const (
	DefaultTitle       = "New Conversation"
	DefaultTitleLength = 50
	DefaultMaxTokens   = 500
	DefaultTemperature = float32(0.7)

	// ApologyText is shown when no reply could be obtained at all.
	ApologyText = "Sorry, I encountered an error. Please try again."

	genericFailure = "Something went wrong"
)

// ModelSelection exposes the currently selected model and lets a loaded
// conversation switch it.
type ModelSelection interface {
	Selected() string
	SelectModel(id string)
}

// Outbox receives message records whose persistence failed so they can be
// replayed later.
type Outbox interface {
	Enqueue(ctx context.Context, conversationID string, rec chat.MessageRecord, cause error) error
}

// Config holds configuration for a Controller.
type Config struct {
	Backend chat.Backend
	Models  ModelSelection
	Outbox  Outbox // optional
	Logger  *slog.Logger

	UserID       string
	MaxTokens    int
	Temperature  float32 // zero selects DefaultTemperature
	TitleLength  int
	DefaultTitle string

	// NewID generates message ids. Defaults to UUIDv7.
	NewID func() string
}

// Controller serializes conversation operations against the backend.
type Controller struct {
	backend chat.Backend
	models  ModelSelection
	outbox  Outbox
	logger  *slog.Logger
	cfg     Config

	// opMu orders mutating operations; a send holds it until its reply lands.
	opMu sync.Mutex

	mu    sync.RWMutex
	state State
	// sending is claimed before opMu so a second send is dropped rather than
	// queued. PendingSend only turns on once the user message is appended.
	sending bool
}

// NewController creates a controller with no active conversation.
func NewController(cfg Config) *Controller {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.TitleLength <= 0 {
		cfg.TitleLength = DefaultTitleLength
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultTitle
	}
	if cfg.NewID == nil {
		cfg.NewID = newMessageID
	}
	models := cfg.Models
	if models == nil {
		models = &localSelection{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		backend: cfg.Backend,
		models:  models,
		outbox:  cfg.Outbox,
		logger:  logger.With("component", "session"),
		cfg:     cfg,
	}
}

// State returns a copy of the current session state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Pending reports whether a send is in flight.
func (c *Controller) Pending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.PendingSend
}

// SelectedModel returns the model new requests will use.
func (c *Controller) SelectedModel() string {
	return c.models.Selected()
}

// SetInput replaces the input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Input = text
}

// Submit sends the input buffer.
func (c *Controller) Submit(ctx context.Context) (*chat.Message, error) {
	c.mu.RLock()
	text := c.state.Input
	c.mu.RUnlock()
	return c.SendMessage(ctx, text)
}

// LoadConversations refreshes the conversation list for the user.
func (c *Controller) LoadConversations(ctx context.Context) error {
	list, err := c.backend.ListConversations(ctx, c.cfg.UserID)
	if err != nil {
		c.logger.Warn("failed to load conversations", "error", err)
		return opError("load conversations", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Conversations = list
	return nil
}

// NewConversation creates an empty conversation on the backend and makes it
// active. It is refused while the active conversation has no messages.
func (c *Controller) NewConversation(ctx context.Context) (*chat.Conversation, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	emptyActive := c.state.ActiveConversation != nil && len(c.state.Messages) == 0
	c.mu.RUnlock()
	if emptyActive {
		return nil, rejected("new conversation", ErrEmptyConversationExists)
	}

	draft := chat.ConversationDraft{
		Title:  c.cfg.DefaultTitle,
		Model:  c.models.Selected(),
		UserID: c.cfg.UserID,
	}
	conv, err := c.backend.CreateConversation(ctx, draft)
	if err != nil {
		c.logger.Error("failed to create conversation", "error", err)
		return nil, opError("new conversation", err)
	}

	_ = c.LoadConversations(ctx)

	c.mu.Lock()
	c.state.ActiveConversation = cloneConversation(conv)
	c.state.Messages = nil
	c.mu.Unlock()

	c.logger.Info("conversation created", "conversation_id", conv.ID, "model", conv.ModelUsed)
	return cloneConversation(conv), nil
}

// SelectConversation loads ref and makes it active. When the fetch fails the
// list entry itself is used with an empty log, and a degraded OpError is
// returned.
func (c *Controller) SelectConversation(ctx context.Context, ref chat.Conversation) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	conv, messages, err := c.backend.GetConversation(ctx, ref.ID)
	if err != nil {
		c.logger.Warn("failed to load conversation, using list entry", "conversation_id", ref.ID, "error", err)

		c.mu.Lock()
		c.state.ActiveConversation = cloneConversation(&ref)
		c.state.Messages = nil
		c.mu.Unlock()

		c.selectModel(ref.ModelUsed)
		return &OpError{Op: "select conversation", Kind: classify(err), Degraded: true, Err: err}
	}

	c.mu.Lock()
	c.state.ActiveConversation = cloneConversation(conv)
	c.state.Messages = messages
	c.mu.Unlock()

	c.selectModel(conv.ModelUsed)
	return nil
}

// SelectConversationByID looks id up in the loaded list and selects it. An
// id missing from the list is fetched directly.
func (c *Controller) SelectConversationByID(ctx context.Context, id string) error {
	ref := chat.Conversation{ID: id}
	c.mu.RLock()
	for _, conv := range c.state.Conversations {
		if conv.ID == id {
			ref = conv
			break
		}
	}
	c.mu.RUnlock()
	return c.SelectConversation(ctx, ref)
}

// DeleteConversation removes a conversation. If it was active the session
// returns to having no active conversation.
func (c *Controller) DeleteConversation(ctx context.Context, id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.backend.DeleteConversation(ctx, id); err != nil {
		c.logger.Error("failed to delete conversation", "conversation_id", id, "error", err)
		return opError("delete conversation", err)
	}

	_ = c.LoadConversations(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.ActiveID() == id {
		c.state.ActiveConversation = nil
		c.state.Messages = nil
	}
	return nil
}

// SendMessage appends text as a user message, asks the model for a reply and
// appends the reply or an error notice. The returned message is the appended
// assistant message; its IsError flag tells a notice from a reply.
//
// Blank text and sends issued while another is pending are rejected with no
// effect.
func (c *Controller) SendMessage(ctx context.Context, text string) (*chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, rejected("send message", ErrBlankMessage)
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return nil, rejected("send message", ErrSendInProgress)
	}
	c.sending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.state.PendingSend = false
		c.mu.Unlock()
	}()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	model := c.models.Selected()
	userMsg := chat.Message{
		ID:        c.cfg.NewID(),
		Role:      chat.RoleUser,
		Content:   text,
		Timestamp: chat.Now(),
	}

	c.mu.Lock()
	c.state.Messages = append(c.state.Messages, userMsg)
	c.state.PendingSend = true
	c.state.Input = ""
	first := len(c.state.Messages) == 1
	active := cloneConversation(c.state.ActiveConversation)
	history := chat.History(c.state.Messages)
	c.mu.Unlock()

	conversationID := ""
	if active != nil {
		conversationID = active.ID
		c.persist(ctx, conversationID, chat.MessageRecord{
			Role:    chat.RoleUser,
			Content: text,
			Model:   model,
		})
		if first {
			c.rename(ctx, active, TitleFromMessage(text, c.cfg.TitleLength))
		}
	}

	reply, err := c.backend.Chat(ctx, conversationID, chat.ChatRequest{
		Model:       model,
		Messages:    history,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		c.logger.Warn("chat request failed", "conversation_id", conversationID, "model", model, "error", err)
	}

	content, ok := replyContent(reply, err)
	assistant := chat.Message{
		ID:        c.cfg.NewID(),
		Role:      chat.RoleAssistant,
		Content:   content,
		Timestamp: chat.Now(),
		IsError:   !ok,
	}
	if ok {
		assistant.Model = model
		assistant.TokensUsed = reply.TotalTokens()
	}

	c.mu.Lock()
	c.state.Messages = append(c.state.Messages, assistant)
	c.state.PendingSend = false
	c.mu.Unlock()

	if active != nil && ok {
		c.persist(ctx, conversationID, chat.MessageRecord{
			Role:       chat.RoleAssistant,
			Content:    content,
			Model:      model,
			TokensUsed: assistant.TokensUsed,
		})
	}

	out := cloneMessage(assistant)
	return &out, nil
}

func (c *Controller) rename(ctx context.Context, active *chat.Conversation, title string) {
	updated, err := c.backend.UpdateConversation(ctx, active.ID, chat.ConversationDraft{
		Title:  title,
		Model:  active.ModelUsed,
		UserID: c.cfg.UserID,
	})
	if err != nil {
		c.logger.Warn("failed to rename conversation", "conversation_id", active.ID, "error", err)
		return
	}
	if updated == nil {
		updated = cloneConversation(active)
		updated.Title = title
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.ActiveID() == active.ID {
		c.state.ActiveConversation = cloneConversation(updated)
	}
	for i := range c.state.Conversations {
		if c.state.Conversations[i].ID == active.ID {
			c.state.Conversations[i].Title = updated.Title
		}
	}
}

// persist appends rec to the conversation log. Failures leave the local log
// as is and go to the outbox when one is configured.
func (c *Controller) persist(ctx context.Context, conversationID string, rec chat.MessageRecord) {
	err := c.backend.AppendMessage(ctx, conversationID, rec)
	if err == nil {
		return
	}
	c.logger.Warn("failed to persist message", "conversation_id", conversationID, "role", rec.Role, "error", err)
	if c.outbox == nil {
		return
	}
	if err := c.outbox.Enqueue(ctx, conversationID, rec, err); err != nil {
		c.logger.Error("failed to queue message for retry", "conversation_id", conversationID, "error", err)
	}
}

func (c *Controller) selectModel(id string) {
	if id != "" {
		c.models.SelectModel(id)
	}
}

// TitleFromMessage derives a conversation title from its first message: the
// first n runes followed by "...".
func TitleFromMessage(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + "..."
}

// replyContent picks the assistant text out of a chat reply. ok is false when
// the content is an error notice.
func replyContent(reply *chat.ChatReply, err error) (string, bool) {
	if err != nil {
		if rej, isRejection := chat.AsRejection(err); isRejection {
			return errorNotice(rej.ServerReason()), false
		}
		return ApologyText, false
	}
	if reply == nil {
		return ApologyText, false
	}
	if len(reply.Choices) > 0 {
		return reply.Choices[0].Message.Content, true
	}
	if reply.Success && reply.Response != "" {
		return reply.Response, true
	}
	return errorNotice(reply.Error), false
}

func errorNotice(reason string) string {
	if reason == "" {
		reason = genericFailure
	}
	return "Error: " + reason
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// localSelection is used when no catalog is wired in.
type localSelection struct {
	mu sync.Mutex
	id string
}

func (s *localSelection) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *localSelection) SelectModel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}
