package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/elee1766/playground/src/chat"
)

// CreateOutboxEntry stores an undelivered message record
func CreateOutboxEntry(ctx context.Context, db Execer, entry *OutboxEntry) error {
	if entry.ID == "" {
		entry.ID = GenerateID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `INSERT INTO outbox (id, user_id, conversation_id, role, content, model, tokens_used, attempts, last_error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.ConversationID,
		entry.Role,
		entry.Content,
		entry.Model,
		entry.TokensUsed,
		entry.Attempts,
		entry.LastError,
		entry.CreatedAt,
	)
	return err
}

// ListOutboxEntries returns the user's queued entries oldest first. A limit
// of zero returns everything.
func ListOutboxEntries(ctx context.Context, db sqlscan.Querier, userID string, limit int) ([]OutboxEntry, error) {
	query := `SELECT id, user_id, conversation_id, role, content, model, tokens_used, attempts, last_error, created_at FROM outbox WHERE user_id = ? ORDER BY created_at, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var entries []OutboxEntry
	if err := sqlscan.Select(ctx, db, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteOutboxEntry removes a delivered entry
func DeleteOutboxEntry(ctx context.Context, db Execer, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id)
	return err
}

// RecordOutboxAttempt bumps the attempt counter and stores the failure text
func RecordOutboxAttempt(ctx context.Context, db Execer, id string, cause error) error {
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	_, err := db.ExecContext(ctx, `UPDATE outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`, lastError, id)
	return err
}

// Record converts the entry back to the payload that failed.
func (e OutboxEntry) Record() chat.MessageRecord {
	return chat.MessageRecord{
		Role:       chat.Role(e.Role),
		Content:    e.Content,
		Model:      e.Model,
		TokensUsed: e.TokensUsed,
	}
}

// Outbox queues failed message appends in the database.
type Outbox struct {
	db     ExecQuerier
	userID string
}

// NewOutbox returns an outbox writing entries tagged with userID.
func NewOutbox(db ExecQuerier, userID string) *Outbox {
	return &Outbox{db: db, userID: userID}
}

// Enqueue stores rec for later delivery.
func (o *Outbox) Enqueue(ctx context.Context, conversationID string, rec chat.MessageRecord, cause error) error {
	entry := &OutboxEntry{
		UserID:         o.userID,
		ConversationID: conversationID,
		Role:           string(rec.Role),
		Content:        rec.Content,
		Model:          rec.Model,
		TokensUsed:     rec.TokensUsed,
		Attempts:       1,
	}
	if cause != nil {
		entry.LastError = cause.Error()
	}
	if err := CreateOutboxEntry(ctx, o.db, entry); err != nil {
		return fmt.Errorf("failed to queue message: %w", err)
	}
	return nil
}

// Entries lists this user's queued entries oldest first.
func (o *Outbox) Entries(ctx context.Context) ([]OutboxEntry, error) {
	return ListOutboxEntries(ctx, o.db, o.userID, 0)
}

// FlushResult summarizes one Flush pass.
type FlushResult struct {
	Delivered int
	Failed    int
}

// Flush delivers queued entries in order through deliver. Delivered entries
// are removed; failures stay queued with their attempt count bumped.
func (o *Outbox) Flush(ctx context.Context, deliver func(ctx context.Context, conversationID string, rec chat.MessageRecord) error) (FlushResult, error) {
	var result FlushResult
	entries, err := o.Entries(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list outbox: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if derr := deliver(ctx, entry.ConversationID, entry.Record()); derr != nil {
			result.Failed++
			if err := RecordOutboxAttempt(ctx, o.db, entry.ID, derr); err != nil {
				return result, fmt.Errorf("failed to record attempt: %w", err)
			}
			continue
		}
		if err := DeleteOutboxEntry(ctx, o.db, entry.ID); err != nil {
			return result, fmt.Errorf("failed to remove delivered entry: %w", err)
		}
		result.Delivered++
	}
	return result, nil
}
