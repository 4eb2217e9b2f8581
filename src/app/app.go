package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/elee1766/playground/src/apiclient"
	"github.com/elee1766/playground/src/catalog"
	"github.com/elee1766/playground/src/config"
	"github.com/elee1766/playground/src/session"
	"github.com/elee1766/playground/src/storage"
)

// ErrNoStorage is returned by operations that need the local database when it
// was not opened.
var ErrNoStorage = errors.New("local storage is not available")

// App represents the main application with all services
type App struct {
	Config  *config.Config
	Client  *apiclient.Client
	Catalog *catalog.Reconciler
	Session *session.Controller
	Store   *storage.DB
	Outbox  *storage.Outbox
	Logger  *slog.Logger

	state *storage.ClientState
}

// Options holds configuration for creating a new App instance
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// HTTPClient overrides the API transport, mainly for tests
	HTTPClient *http.Client
	// NoStorage skips opening the local database
	NoStorage bool
}

// New creates a new App instance with all services initialized
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	a := &App{Config: cfg, Logger: logger}

	// Initialize storage
	if !opts.NoStorage {
		store, err := storage.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		a.Store = store

		state, err := storage.GetClientState(ctx, store.DB(), cfg.UserID)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to load client state: %w", err)
		}
		a.state = state

		if !cfg.Storage.DisableOutbox {
			a.Outbox = storage.NewOutbox(store.DB(), cfg.UserID)
		}
	}

	a.Client = apiclient.NewClient(apiclient.Config{
		BaseURL:           cfg.APIBase,
		Logger:            logger,
		Timeout:           cfg.Transport.Timeout.Std(),
		RetryCount:        cfg.Transport.RetryCount,
		RetryDelay:        cfg.Transport.RetryDelay.Std(),
		RequestsPerMinute: cfg.Transport.RequestsPerMinute,
		BurstSize:         cfg.Transport.BurstSize,
		Headers:           cfg.Transport.Headers,
		HTTPClient:        opts.HTTPClient,
	})

	selected := cfg.Chat.DefaultModel
	if a.state != nil && a.state.SelectedModel != "" {
		selected = a.state.SelectedModel
	}
	a.Catalog = catalog.NewReconciler(catalog.Config{
		Source:   a.Client,
		Logger:   logger,
		Selected: selected,
	})

	sessionCfg := session.Config{
		Backend:      a.Client,
		Models:       a.Catalog,
		Logger:       logger,
		UserID:       cfg.UserID,
		MaxTokens:    cfg.Chat.MaxTokens,
		Temperature:  cfg.Chat.Temperature,
		TitleLength:  cfg.Chat.TitleLength,
		DefaultTitle: cfg.Chat.DefaultTitle,
	}
	// a nil *storage.Outbox must not become a non-nil interface
	if a.Outbox != nil {
		sessionCfg.Outbox = a.Outbox
	}
	a.Session = session.NewController(sessionCfg)

	return a, nil
}

// Restore reconciles the model catalog, loads the conversation list and
// reopens the conversation that was active last time when it still exists.
func (a *App) Restore(ctx context.Context) error {
	a.Catalog.Reconcile(ctx)

	if err := a.Session.LoadConversations(ctx); err != nil {
		return nil
	}
	if a.state == nil || a.state.ActiveConversationID == nil {
		return nil
	}

	id := *a.state.ActiveConversationID
	for _, conv := range a.Session.State().Conversations {
		if conv.ID == id {
			return a.Session.SelectConversation(ctx, conv)
		}
	}
	a.Logger.Debug("saved conversation no longer listed", "conversation_id", id)
	a.state.Forget(id)
	return nil
}

// DeleteConversation deletes a conversation and drops it from saved state.
func (a *App) DeleteConversation(ctx context.Context, id string) error {
	if err := a.Session.DeleteConversation(ctx, id); err != nil {
		return err
	}
	if a.state != nil {
		a.state.Forget(id)
	}
	return nil
}

// Save records the active conversation and model selection for next time.
func (a *App) Save(ctx context.Context) error {
	if a.Store == nil {
		return nil
	}
	if a.state == nil {
		a.state = &storage.ClientState{UserID: a.Config.UserID}
	}

	a.state.ActiveConversationID = nil
	if id := a.Session.State().ActiveID(); id != "" {
		a.state.ActiveConversationID = &id
		a.state.Touch(id)
	}
	a.state.SelectedModel = a.Catalog.Selected()

	if err := storage.SaveClientState(ctx, a.Store.DB(), a.state); err != nil {
		return fmt.Errorf("failed to save client state: %w", err)
	}
	return nil
}

// FlushOutbox replays queued message records against the backend.
func (a *App) FlushOutbox(ctx context.Context) (storage.FlushResult, error) {
	if a.Outbox == nil {
		return storage.FlushResult{}, ErrNoStorage
	}
	result, err := a.Outbox.Flush(ctx, a.Client.AppendMessage)
	if err != nil {
		return result, err
	}
	if result.Delivered > 0 || result.Failed > 0 {
		a.Logger.Info("outbox flushed", "delivered", result.Delivered, "failed", result.Failed)
	}
	return result, nil
}

// Close closes all resources held by the app
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
