package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/playground/src/config"
)

type fakeServer struct {
	mu       sync.Mutex
	created  int
	deleted  []string
	chatDown bool
	lastChat string
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/models", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"models":[{"id":"phi-3:mini","name":"Phi 3 Mini","file_size":"2.3GB"}]}`)
	})
	mux.HandleFunc("GET /api/models/pull", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"models":["mistral:7b"]}`)
	})
	mux.HandleFunc("GET /api/models/all", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"models":[]}`)
	})
	mux.HandleFunc("GET /api/models/running", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"models":["phi-3:mini"]}`)
	})
	mux.HandleFunc("GET /api/conversations", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"conversations":[{"id":"c1","title":"Hello","model_used":"phi-3-mini","message_count":2}]}`)
	})
	mux.HandleFunc("GET /api/conversations/c9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	})
	mux.HandleFunc("GET /api/conversations/c1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"conversation":{"id":"c1","title":"Hello","model_used":"phi-3-mini"},
			"messages":[{"id":"1","role":"user","content":"hi"},{"id":"2","role":"assistant","content":"hello"}]}`)
	})
	mux.HandleFunc("POST /api/conversations", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.created++
		f.mu.Unlock()
		io.WriteString(w, `{"success":true,"conversation":{"id":"c2","title":"New Conversation"}}`)
	})
	mux.HandleFunc("PUT /api/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"conversation":{"id":"`+r.PathValue("id")+`","title":"renamed"}}`)
	})
	mux.HandleFunc("DELETE /api/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		f.mu.Unlock()
		io.WriteString(w, `{"success":true}`)
	})
	mux.HandleFunc("POST /api/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true}`)
	})
	chat := func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastChat = r.URL.Path
		if f.chatDown {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"success":false,"error":"model not loaded"}`)
			return
		}
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Hi there"}}]}`)
	}
	mux.HandleFunc("POST /api/chat", chat)
	mux.HandleFunc("POST /api/chat/{id}", chat)
	return mux
}

func newTestRuntime(t *testing.T, f *fakeServer) (*runtime, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.APIBase = srv.URL + "/api"
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "playground.db")
	cfg.Transport.RetryDelay = config.Duration(time.Millisecond)
	cfg.Logging.Level = "error"

	var out, stderr bytes.Buffer
	rt, err := openRuntime(context.Background(), cfg, &out, &stderr, true)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt, &out
}

func TestREPLSendsMessages(t *testing.T) {
	f := &fakeServer{}
	rt, out := newTestRuntime(t, f)

	r := &repl{rt: rt}
	require.NoError(t, r.run(context.Background(), strings.NewReader("hello\n\n/quit\nignored\n")))

	assert.Contains(t, out.String(), "model: phi-3-mini")
	assert.Contains(t, out.String(), "assistant: Hi there")
	assert.Equal(t, "/api/chat", f.lastChat)

	state := rt.app.Session.State()
	require.Len(t, state.Messages, 2)
	assert.Empty(t, state.Input)
}

func TestREPLCommands(t *testing.T) {
	f := &fakeServer{}
	rt, out := newTestRuntime(t, f)

	input := strings.Join([]string{
		"/open c1",
		"/new",
		"/new",
		"/list",
		"/models",
		"/model mistral:7b",
		"/model",
		"/delete c1",
		"/bogus",
	}, "\n")
	r := &repl{rt: rt}
	require.NoError(t, r.run(context.Background(), strings.NewReader(input)))

	text := out.String()
	assert.Contains(t, text, "you: hi")
	assert.Contains(t, text, "assistant: hello")
	assert.Contains(t, text, "Started New Conversation (c2)")
	assert.Contains(t, text, "Current conversation is still empty")
	assert.Contains(t, text, "Phi 3 Mini")
	assert.Contains(t, text, "running")
	assert.Contains(t, text, "Selected model: mistral-7b")
	assert.Contains(t, text, "Usage: /model ID")
	assert.Contains(t, text, "Deleted conversation c1")
	assert.Contains(t, text, "Unknown command /bogus")

	assert.Equal(t, 1, f.created)
	assert.Equal(t, []string{"c1"}, f.deleted)
	assert.Equal(t, "mistral-7b", rt.app.Catalog.Selected())
}

func TestSendIntoConversation(t *testing.T) {
	f := &fakeServer{}
	rt, out := newTestRuntime(t, f)

	cmd := &SendCmd{Conversation: "c1", Model: "mistral:7b"}
	require.NoError(t, cmd.send(context.Background(), rt, "and again"))
	assert.Equal(t, "/api/chat/c1", f.lastChat)
	assert.Contains(t, out.String(), "assistant: Hi there")
	assert.Equal(t, "mistral-7b", rt.app.Catalog.Selected())
}

func TestSendReportsFailedReply(t *testing.T) {
	f := &fakeServer{chatDown: true}
	rt, out := newTestRuntime(t, f)

	err := (&SendCmd{}).send(context.Background(), rt, "hello")
	assert.ErrorIs(t, err, errNoReply)
	assert.Contains(t, out.String(), "Error: model not loaded")
}

func TestSendRejectsConflictingTargets(t *testing.T) {
	rt, _ := newTestRuntime(t, &fakeServer{})
	err := (&SendCmd{Conversation: "c1", New: true}).send(context.Background(), rt, "hi")
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestSendMessageFromStdin(t *testing.T) {
	text, err := (&SendCmd{Text: []string{"-"}}).message(strings.NewReader("from a pipe\n"))
	require.NoError(t, err)
	assert.Equal(t, "from a pipe\n", text)

	text, err = (&SendCmd{Text: []string{"two", "words"}}).message(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "two words", text)

	_, err = (&SendCmd{}).message(strings.NewReader("   "))
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestSendIntoConversationThatFailsToLoad(t *testing.T) {
	f := &fakeServer{}
	rt, out := newTestRuntime(t, f)

	require.NoError(t, (&SendCmd{Conversation: "c9"}).send(context.Background(), rt, "still there?"))
	assert.Contains(t, out.String(), "warning: ")
	assert.Contains(t, out.String(), "assistant: Hi there")
	assert.Equal(t, "/api/chat/c9", f.lastChat)
	assert.Equal(t, "c9", rt.app.Session.State().ActiveID())
}
