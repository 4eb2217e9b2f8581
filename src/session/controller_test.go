package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/playground/src/chat"
)

type rejection struct{ reason string }

func (r *rejection) Error() string        { return "rejected: " + r.reason }
func (r *rejection) ServerReason() string { return r.reason }

type fakeBackend struct {
	mu sync.Mutex

	conversations map[string]*chat.Conversation
	messages      map[string][]chat.Message
	order         []string
	nextID        int

	listErr, getErr, createErr, updateErr, deleteErr, appendErr error

	reply   *chat.ChatReply
	chatErr error
	// chatGate, when set, blocks Chat until it is closed.
	chatGate chan struct{}
	chatSeen chan struct{}

	chatCalls   []chat.ChatRequest
	chatConvIDs []string
	appended    []chat.MessageRecord
	updates     []chat.ConversationDraft
	creates     int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		conversations: map[string]*chat.Conversation{},
		messages:      map[string][]chat.Message{},
		reply:         choicesReply("Hi there", 0),
	}
}

func choicesReply(content string, tokens int) *chat.ChatReply {
	reply := &chat.ChatReply{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
	}
	if tokens > 0 {
		reply.Usage = &openai.Usage{TotalTokens: tokens}
	}
	return reply
}

func (f *fakeBackend) add(id, title, model string, msgs ...chat.Message) chat.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv := &chat.Conversation{ID: id, Title: title, ModelUsed: model}
	f.conversations[id] = conv
	f.messages[id] = msgs
	f.order = append(f.order, id)
	return *conv
}

func (f *fakeBackend) ListConversations(_ context.Context, userID string) ([]chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []chat.Conversation
	for _, id := range f.order {
		if conv, ok := f.conversations[id]; ok {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetConversation(_ context.Context, id string) (*chat.Conversation, []chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	conv, ok := f.conversations[id]
	if !ok {
		return nil, nil, &rejection{reason: "Conversation not found"}
	}
	cp := *conv
	return &cp, append([]chat.Message(nil), f.messages[id]...), nil
}

func (f *fakeBackend) CreateConversation(_ context.Context, draft chat.ConversationDraft) (*chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("conv-%d", f.nextID)
	conv := &chat.Conversation{ID: id, Title: draft.Title, ModelUsed: draft.Model}
	f.conversations[id] = conv
	f.order = append(f.order, id)
	cp := *conv
	return &cp, nil
}

func (f *fakeBackend) UpdateConversation(_ context.Context, id string, draft chat.ConversationDraft) (*chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, draft)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	conv := f.conversations[id]
	conv.Title = draft.Title
	cp := *conv
	return &cp, nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.conversations, id)
	return nil
}

func (f *fakeBackend) AppendMessage(_ context.Context, id string, rec chat.MessageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeBackend) Chat(ctx context.Context, id string, req chat.ChatRequest) (*chat.ChatReply, error) {
	f.mu.Lock()
	gate, seen := f.chatGate, f.chatSeen
	f.chatCalls = append(f.chatCalls, req)
	f.chatConvIDs = append(f.chatConvIDs, id)
	reply, err := f.reply, f.chatErr
	f.mu.Unlock()

	if seen != nil {
		close(seen)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return reply, err
}

func (f *fakeBackend) chatCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chatCalls)
}

type recordingOutbox struct {
	mu      sync.Mutex
	records []chat.MessageRecord
}

func (o *recordingOutbox) Enqueue(_ context.Context, _ string, rec chat.MessageRecord, _ error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
	return nil
}

func newController(b *fakeBackend, selected string) (*Controller, *localSelection) {
	models := &localSelection{id: selected}
	ids := 0
	c := NewController(Config{
		Backend: b,
		Models:  models,
		UserID:  "demo-user",
		NewID: func() string {
			ids++
			return fmt.Sprintf("m%d", ids)
		},
	})
	return c, models
}

func TestSendMessageBlankRejected(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		b := newFakeBackend()
		c, _ := newController(b, "phi")
		c.SetInput(text)
		before := c.State()

		msg, err := c.SendMessage(context.Background(), text)
		assert.Nil(t, msg)
		assert.ErrorIs(t, err, ErrBlankMessage)
		assert.True(t, IsValidation(err))

		assert.Equal(t, before, c.State())
		assert.Zero(t, b.chatCount())
	}
}

func TestSendMessageWithoutConversation(t *testing.T) {
	b := newFakeBackend()
	c, _ := newController(b, "phi-3-mini")
	c.SetInput("hello")

	msg, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hi there", msg.Content)
	assert.False(t, msg.IsError)

	state := c.State()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, chat.RoleUser, state.Messages[0].Role)
	assert.Equal(t, "hello", state.Messages[0].Content)
	assert.Equal(t, "Hi there", state.Messages[1].Content)
	assert.NotEqual(t, state.Messages[0].ID, state.Messages[1].ID)
	assert.Empty(t, state.Input)
	assert.False(t, state.PendingSend)

	require.Len(t, b.chatCalls, 1)
	assert.Equal(t, "", b.chatConvIDs[0])
	req := b.chatCalls[0]
	assert.Equal(t, "phi-3-mini", req.Model)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 0.0001)
	assert.Equal(t, []openai.ChatCompletionMessage{{Role: "user", Content: "hello"}}, req.Messages)
	assert.Empty(t, b.appended)
}

func TestSendMessageReplyShapes(t *testing.T) {
	tests := []struct {
		name      string
		reply     *chat.ChatReply
		err       error
		want      string
		wantError bool
	}{
		{name: "choices", reply: choicesReply("Hi there", 0), want: "Hi there"},
		{name: "flat response", reply: &chat.ChatReply{Success: true, Response: "flat"}, want: "flat"},
		{
			name:      "success without response",
			reply:     &chat.ChatReply{Success: true},
			want:      "Error: Something went wrong",
			wantError: true,
		},
		{
			name:      "server error field",
			reply:     &chat.ChatReply{Success: false, Error: "model not loaded"},
			want:      "Error: model not loaded",
			wantError: true,
		},
		{
			name:      "rejection",
			err:       &rejection{reason: "model crashed"},
			want:      "Error: model crashed",
			wantError: true,
		},
		{
			name:      "rejection without reason",
			err:       &rejection{},
			want:      "Error: Something went wrong",
			wantError: true,
		},
		{
			name:      "transport failure",
			err:       errors.New("connection refused"),
			want:      "Sorry, I encountered an error. Please try again.",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			b.reply, b.chatErr = tt.reply, tt.err
			c, _ := newController(b, "phi")

			msg, err := c.SendMessage(context.Background(), "hi")
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.Content)
			assert.Equal(t, tt.wantError, msg.IsError)

			state := c.State()
			require.Len(t, state.Messages, 2)
			assert.Equal(t, chat.RoleAssistant, state.Messages[1].Role)
			assert.Equal(t, tt.wantError, state.Messages[1].IsError)
			assert.False(t, state.PendingSend)
		})
	}
}

func TestSendMessagePersistsInActiveConversation(t *testing.T) {
	b := newFakeBackend()
	b.reply = choicesReply("Hi there", 12)
	conv := b.add("c1", "New Conversation", "phi")
	c, _ := newController(b, "phi")
	require.NoError(t, c.SelectConversation(context.Background(), conv))

	_, err := c.SendMessage(context.Background(), strings.Repeat("a", 60))
	require.NoError(t, err)

	require.Len(t, b.appended, 2)
	assert.Equal(t, chat.RoleUser, b.appended[0].Role)
	assert.Equal(t, "phi", b.appended[0].Model)
	assert.Equal(t, chat.RoleAssistant, b.appended[1].Role)
	assert.Equal(t, "Hi there", b.appended[1].Content)
	require.NotNil(t, b.appended[1].TokensUsed)
	assert.Equal(t, 12, *b.appended[1].TokensUsed)

	wantTitle := strings.Repeat("a", 50) + "..."
	require.Len(t, b.updates, 1)
	assert.Equal(t, wantTitle, b.updates[0].Title)
	assert.Equal(t, wantTitle, c.State().ActiveConversation.Title)
	assert.Equal(t, []string{"c1"}, b.chatConvIDs)

	// only the first message renames
	_, err = c.SendMessage(context.Background(), "again")
	require.NoError(t, err)
	assert.Len(t, b.updates, 1)
	assert.Len(t, b.chatCalls[1].Messages, 3)
}

func TestSendMessageErrorNoticeNotPersisted(t *testing.T) {
	b := newFakeBackend()
	b.chatErr = errors.New("timeout")
	conv := b.add("c1", "t", "phi")
	c, _ := newController(b, "phi")
	require.NoError(t, c.SelectConversation(context.Background(), conv))

	msg, err := c.SendMessage(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, msg.IsError)
	require.Len(t, b.appended, 1)
	assert.Equal(t, chat.RoleUser, b.appended[0].Role)
}

func TestSendMessagePersistFailureGoesToOutbox(t *testing.T) {
	b := newFakeBackend()
	b.appendErr = errors.New("database locked")
	b.updateErr = errors.New("database locked")
	conv := b.add("c1", "t", "phi")
	outbox := &recordingOutbox{}
	c := NewController(Config{Backend: b, Models: &localSelection{id: "phi"}, Outbox: outbox, UserID: "u"})
	require.NoError(t, c.SelectConversation(context.Background(), conv))

	msg, err := c.SendMessage(context.Background(), "hi")
	require.NoError(t, err)
	assert.False(t, msg.IsError)

	// the optimistic append stays
	state := c.State()
	assert.Len(t, state.Messages, 2)
	assert.Equal(t, "t", state.ActiveConversation.Title)

	require.Len(t, outbox.records, 2)
	assert.Equal(t, chat.RoleUser, outbox.records[0].Role)
	assert.Equal(t, chat.RoleAssistant, outbox.records[1].Role)
}

func TestSendMessageWhilePendingDropped(t *testing.T) {
	b := newFakeBackend()
	b.chatGate = make(chan struct{})
	b.chatSeen = make(chan struct{})
	c, _ := newController(b, "phi")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.SendMessage(context.Background(), "first")
		assert.NoError(t, err)
	}()

	select {
	case <-b.chatSeen:
	case <-time.After(5 * time.Second):
		t.Fatal("chat was never called")
	}
	assert.True(t, c.Pending())
	assert.True(t, c.State().PendingSend)

	msg, err := c.SendMessage(context.Background(), "second")
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, ErrSendInProgress)
	assert.Len(t, c.State().Messages, 1)

	close(b.chatGate)
	<-done

	assert.Equal(t, 1, b.chatCount())
	state := c.State()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "first", state.Messages[0].Content)
	assert.False(t, state.PendingSend)
}

func TestSendWaitingForOperationIsNotPendingYet(t *testing.T) {
	b := newFakeBackend()
	c, _ := newController(b, "phi")

	// stands in for a slow new/select/delete holding the operation lock
	c.opMu.Lock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.SendMessage(context.Background(), "first")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.sending
	}, 5*time.Second, time.Millisecond)

	state := c.State()
	assert.False(t, state.PendingSend)
	assert.Empty(t, state.Messages)

	msg, err := c.SendMessage(context.Background(), "second")
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, ErrSendInProgress)

	c.opMu.Unlock()
	<-done

	state = c.State()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "first", state.Messages[0].Content)
	assert.False(t, state.PendingSend)
	assert.Equal(t, 1, b.chatCount())
}

func TestSendMessageCanceledContext(t *testing.T) {
	b := newFakeBackend()
	b.chatGate = make(chan struct{})
	c, _ := newController(b, "phi")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg, err := c.SendMessage(ctx, "hi")
	require.NoError(t, err)
	assert.True(t, msg.IsError)
	assert.Equal(t, ApologyText, msg.Content)
	assert.False(t, c.Pending())
}

func TestNewConversation(t *testing.T) {
	b := newFakeBackend()
	c, _ := newController(b, "phi-3-mini")

	conv, err := c.NewConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "New Conversation", conv.Title)
	assert.Equal(t, "phi-3-mini", conv.ModelUsed)

	state := c.State()
	assert.Equal(t, conv.ID, state.ActiveID())
	assert.Empty(t, state.Messages)
	require.Len(t, state.Conversations, 1)

	// second request on the still-empty conversation is a no-op
	_, err = c.NewConversation(context.Background())
	assert.ErrorIs(t, err, ErrEmptyConversationExists)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 1, b.creates)
	assert.Equal(t, state, c.State())
}

func TestNewConversationClearsLocalLog(t *testing.T) {
	b := newFakeBackend()
	c, _ := newController(b, "phi")
	_, err := c.SendMessage(context.Background(), "scratch")
	require.NoError(t, err)

	_, err = c.NewConversation(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.State().Messages)
}

func TestNewConversationFailureLeavesState(t *testing.T) {
	b := newFakeBackend()
	b.createErr = &rejection{reason: "database locked"}
	c, _ := newController(b, "phi")
	_, err := c.SendMessage(context.Background(), "keep me")
	require.NoError(t, err)
	before := c.State()

	_, err = c.NewConversation(context.Background())
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindServerRejection, opErr.Kind)
	assert.False(t, opErr.Degraded)
	assert.Equal(t, before, c.State())
}

func TestSelectConversation(t *testing.T) {
	b := newFakeBackend()
	conv := b.add("c1", "Hello", "qwen-7b",
		chat.Message{ID: "1", Role: chat.RoleUser, Content: "hi"},
		chat.Message{ID: "2", Role: chat.RoleAssistant, Content: "hello"},
	)
	c, models := newController(b, "phi")

	require.NoError(t, c.SelectConversation(context.Background(), conv))
	state := c.State()
	assert.Equal(t, "c1", state.ActiveID())
	assert.Len(t, state.Messages, 2)
	assert.Equal(t, "qwen-7b", models.Selected())
}

func TestSelectConversationKeepsModelWhenUnset(t *testing.T) {
	b := newFakeBackend()
	conv := b.add("c1", "Hello", "")
	c, models := newController(b, "phi")

	require.NoError(t, c.SelectConversation(context.Background(), conv))
	assert.Equal(t, "phi", models.Selected())
}

func TestSelectConversationDegrades(t *testing.T) {
	b := newFakeBackend()
	b.getErr = errors.New("connection reset")
	c, models := newController(b, "phi")
	_, err := c.SendMessage(context.Background(), "local")
	require.NoError(t, err)

	ref := chat.Conversation{ID: "c9", Title: "From list", ModelUsed: "mistral-7b"}
	err = c.SelectConversation(context.Background(), ref)
	require.Error(t, err)
	assert.True(t, IsDegraded(err))
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindTransport, opErr.Kind)

	state := c.State()
	assert.Equal(t, "c9", state.ActiveID())
	assert.Equal(t, "From list", state.ActiveConversation.Title)
	assert.Empty(t, state.Messages)
	assert.Equal(t, "mistral-7b", models.Selected())
}

func TestSelectConversationByID(t *testing.T) {
	b := newFakeBackend()
	b.add("c1", "Hello", "qwen-7b")
	c, _ := newController(b, "phi")
	require.NoError(t, c.LoadConversations(context.Background()))

	require.NoError(t, c.SelectConversationByID(context.Background(), "c1"))
	assert.Equal(t, "Hello", c.State().ActiveConversation.Title)
}

func TestDeleteConversation(t *testing.T) {
	b := newFakeBackend()
	conv := b.add("c1", "Hello", "phi", chat.Message{ID: "1", Role: chat.RoleUser, Content: "hi"})
	b.add("c2", "Other", "phi")
	c, _ := newController(b, "phi")
	require.NoError(t, c.LoadConversations(context.Background()))
	require.NoError(t, c.SelectConversation(context.Background(), conv))

	require.NoError(t, c.DeleteConversation(context.Background(), "c2"))
	assert.Equal(t, "c1", c.State().ActiveID())
	assert.Len(t, c.State().Conversations, 1)

	require.NoError(t, c.DeleteConversation(context.Background(), "c1"))
	state := c.State()
	assert.Nil(t, state.ActiveConversation)
	assert.Empty(t, state.Messages)
	assert.Empty(t, state.Conversations)
}

func TestDeleteConversationFailureLeavesState(t *testing.T) {
	b := newFakeBackend()
	conv := b.add("c1", "Hello", "phi")
	b.deleteErr = errors.New("unreachable")
	c, _ := newController(b, "phi")
	require.NoError(t, c.LoadConversations(context.Background()))
	require.NoError(t, c.SelectConversation(context.Background(), conv))
	before := c.State()

	err := c.DeleteConversation(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, before, c.State())
}

func TestLoadConversationsFailure(t *testing.T) {
	b := newFakeBackend()
	b.listErr = errors.New("down")
	c, _ := newController(b, "phi")

	err := c.LoadConversations(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.State().Conversations)
}

func TestStateIsACopy(t *testing.T) {
	b := newFakeBackend()
	b.reply = choicesReply("ok", 3)
	c, _ := newController(b, "phi")
	_, err := c.SendMessage(context.Background(), "hi")
	require.NoError(t, err)

	state := c.State()
	state.Messages[0].Content = "tampered"
	*state.Messages[1].TokensUsed = 99
	fresh := c.State()
	assert.Equal(t, "hi", fresh.Messages[0].Content)
	assert.Equal(t, 3, *fresh.Messages[1].TokensUsed)
}

func TestTitleFromMessage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{strings.Repeat("a", 60), strings.Repeat("a", 50) + "..."},
		{"short", "short..."},
		{strings.Repeat("é", 55), strings.Repeat("é", 50) + "..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFromMessage(tt.text, 50))
	}
}

func TestNewMessageIDsAreTimeOrdered(t *testing.T) {
	a, b := newMessageID(), newMessageID()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}
