package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// maxRecentConversations bounds the recent list kept per user.
const maxRecentConversations = 20

// GetClientState retrieves the saved state for a user
func GetClientState(ctx context.Context, db sqlscan.Querier, userID string) (*ClientState, error) {
	query := `SELECT user_id, active_conversation_id, selected_model, json(recent_conversation_ids) AS recent_conversation_ids, created_at, updated_at FROM client_state WHERE user_id = ?`
	var s ClientState
	err := sqlscan.Get(ctx, db, &s, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &s, nil
}

// SaveClientState inserts or replaces the state for state.UserID
func SaveClientState(ctx context.Context, db Execer, state *ClientState) error {
	now := time.Now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now
	if state.RecentConversationIDs == nil {
		state.RecentConversationIDs = JSONStringArray{}
	}

	query := `INSERT INTO client_state (user_id, active_conversation_id, selected_model, recent_conversation_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			active_conversation_id = excluded.active_conversation_id,
			selected_model = excluded.selected_model,
			recent_conversation_ids = excluded.recent_conversation_ids,
			updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		state.UserID,
		state.ActiveConversationID,
		state.SelectedModel,
		state.RecentConversationIDs,
		state.CreatedAt,
		state.UpdatedAt,
	)
	return err
}

// Touch moves id to the front of the recent list, dropping duplicates and
// anything past the cap.
func (s *ClientState) Touch(id string) {
	if id == "" {
		return
	}
	recent := JSONStringArray{id}
	for _, existing := range s.RecentConversationIDs {
		if existing != id && len(recent) < maxRecentConversations {
			recent = append(recent, existing)
		}
	}
	s.RecentConversationIDs = recent
}

// Forget removes id from the state, clearing it as active if needed.
func (s *ClientState) Forget(id string) {
	if s.ActiveConversationID != nil && *s.ActiveConversationID == id {
		s.ActiveConversationID = nil
	}
	kept := s.RecentConversationIDs[:0]
	for _, existing := range s.RecentConversationIDs {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	s.RecentConversationIDs = kept
}
