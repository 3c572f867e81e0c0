package experts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/casebrief/internal/db"
)

// Record is a persisted expert selection.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Selection
	CreatedAt time.Time `json:"created_at"`
}

// Store persists selections and how many meetings each session has convened.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save stores a selection and increments the session's meeting count in one
// transaction. It returns the new meeting count.
func (s *Store) Save(ctx context.Context, sessionID string, sel Selection) (int, error) {
	raw, err := json.Marshal(sel.Experts)
	if err != nil {
		return 0, fmt.Errorf("marshalling experts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO expert_selections (id, session_id, experts, fallback) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), sessionID, string(raw), sel.Fallback,
	); err != nil {
		return 0, fmt.Errorf("inserting expert selection: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meeting_counts (session_id, meetings, updated_at) VALUES (?, 1, datetime('now'))
		ON CONFLICT(session_id) DO UPDATE SET meetings = meetings + 1, updated_at = datetime('now')`,
		sessionID,
	); err != nil {
		return 0, fmt.Errorf("incrementing meeting count: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT meetings FROM meeting_counts WHERE session_id = ?`, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("reading meeting count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing expert selection: %w", err)
	}
	return count, nil
}

// Latest returns the most recent selection for a session, or nil if none exists.
func (s *Store) Latest(ctx context.Context, sessionID string) (*Record, error) {
	var (
		rec      Record
		raw      string
		fallback bool
		created  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, experts, fallback, created_at FROM expert_selections
		WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, sessionID,
	).Scan(&rec.ID, &rec.SessionID, &raw, &fallback, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying expert selection: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &rec.Experts); err != nil {
		return nil, fmt.Errorf("decoding experts: %w", err)
	}
	rec.Fallback = fallback
	rec.CreatedAt = parseTime(created)
	return &rec, nil
}

// MeetingCount returns how many panels a session has convened.
func (s *Store) MeetingCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT meetings FROM meeting_counts WHERE session_id = ?`, sessionID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying meeting count: %w", err)
	}
	return count, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
