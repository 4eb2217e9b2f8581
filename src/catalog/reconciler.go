package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Source fetches the raw model listings and drives model lifecycle actions.
// Listings are already normalized to ModelRef at this boundary.
type Source interface {
	InstalledModels(ctx context.Context) ([]ModelRef, error)
	PullableModels(ctx context.Context) ([]ModelRef, error)
	CatalogModels(ctx context.Context) ([]ModelRef, error)
	RunningModels(ctx context.Context) ([]ModelRef, error)
	PullModel(ctx context.Context, id string) (string, error)
	StopModel(ctx context.Context, id string) (string, error)
}

// Config holds configuration for a Reconciler.
type Config struct {
	Source Source
	Logger *slog.Logger
	// Selected seeds the sticky selection, e.g. from saved client state.
	Selected string
}

// Reconciler publishes the current Snapshot and owns the model selection.
type Reconciler struct {
	source Source
	logger *slog.Logger

	mu      sync.RWMutex
	current *Snapshot
}

// NewReconciler creates a reconciler with an empty snapshot.
func NewReconciler(cfg Config) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		source:  cfg.Source,
		logger:  logger.With("component", "catalog"),
		current: &Snapshot{selected: CanonicalID(cfg.Selected)},
	}
}

// Current returns the latest snapshot.
func (r *Reconciler) Current() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Selected returns the selected canonical model id.
func (r *Reconciler) Selected() string {
	return r.Current().Selected()
}

// SelectModel records the user's model choice. An empty id is ignored.
func (r *Reconciler) SelectModel(id string) {
	id = CanonicalID(id)
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = r.current.withSelected(id)
}

// Reconcile fetches every source and publishes a new snapshot. Source failures
// degrade that list to empty and are never returned.
func (r *Reconciler) Reconcile(ctx context.Context) *Snapshot {
	var installed, pullable, catalog, running []ModelRef

	var g errgroup.Group
	g.Go(func() error {
		installed = r.fetch(ctx, "installed", r.source.InstalledModels)
		return nil
	})
	g.Go(func() error {
		pullable = r.fetch(ctx, "pullable", r.source.PullableModels)
		return nil
	})
	g.Go(func() error {
		catalog = r.fetch(ctx, "catalog", r.source.CatalogModels)
		return nil
	})
	g.Go(func() error {
		running = r.fetch(ctx, "running", r.source.RunningModels)
		return nil
	})
	_ = g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	// selection is read at publish time so a concurrent SelectModel survives
	snap := buildSnapshot(installed, pullable, catalog, running, r.current.selected)
	r.current = snap

	r.logger.Debug("catalog reconciled",
		"installed", len(snap.installed),
		"pullable", len(snap.pullable),
		"catalog", len(snap.catalog),
		"running", len(snap.running),
		"selected", snap.selected)
	return snap
}

func (r *Reconciler) fetch(ctx context.Context, source string, fn func(context.Context) ([]ModelRef, error)) []ModelRef {
	refs, err := fn(ctx)
	if err != nil {
		r.logger.Warn("model source unavailable", "source", source, "error", err)
		return nil
	}
	return refs
}

// Pull asks the backend to download and start a model, then reconciles.
func (r *Reconciler) Pull(ctx context.Context, id string) (string, error) {
	msg, err := r.source.PullModel(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to pull model %s: %w", id, err)
	}
	r.Reconcile(ctx)
	return msg, nil
}

// Stop asks the backend to unload a model, then reconciles.
func (r *Reconciler) Stop(ctx context.Context, id string) (string, error) {
	msg, err := r.source.StopModel(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to stop model %s: %w", id, err)
	}
	r.Reconcile(ctx)
	return msg, nil
}
