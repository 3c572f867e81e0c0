package intake

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/casebrief/internal/collector"
	"github.com/ziadkadry99/casebrief/internal/db"
)

// Store persists intake sessions and their transcripts.
type Store struct {
	db *db.DB
}

// NewStore creates a new intake store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateSession inserts a new incomplete session with an empty state.
func (s *Store) CreateSession(ctx context.Context, userID string) (*Snapshot, error) {
	now := time.Now().UTC()
	snap := &Snapshot{
		Session: Session{
			ID:        uuid.New().String(),
			UserID:    userID,
			Status:    collector.StatusIncomplete,
			CreatedAt: now,
			UpdatedAt: now,
		},
		State: collector.State{
			Answers:  map[string]string{},
			Asked:    map[string]int{},
			Complete: map[string]bool{},
		},
	}

	state, err := json.Marshal(snap.State)
	if err != nil {
		return nil, fmt.Errorf("marshalling state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO intake_sessions (id, user_id, status, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Session.ID, snap.Session.UserID, string(snap.Session.Status), string(state), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return snap, nil
}

// GetSnapshot loads a session and its collector state.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	var (
		snap   Snapshot
		status string
		reason string
		state  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, reason, state, turns_used, created_at, updated_at
		 FROM intake_sessions WHERE id = ?`, id,
	).Scan(&snap.Session.ID, &snap.Session.UserID, &status, &reason, &state,
		&snap.Session.TurnsUsed, &snap.Session.CreatedAt, &snap.Session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	snap.Session.Status = collector.Status(status)
	snap.Session.Reason = collector.Reason(reason)
	if err := json.Unmarshal([]byte(state), &snap.State); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	return &snap, nil
}

// SaveSnapshot writes the session header and state back.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}
	snap.Session.UpdatedAt = time.Now().UTC()
	snap.Session.TurnsUsed = snap.State.TurnsUsed

	res, err := s.db.ExecContext(ctx,
		`UPDATE intake_sessions SET status = ?, reason = ?, state = ?, turns_used = ?, updated_at = ? WHERE id = ?`,
		string(snap.Session.Status), string(snap.Session.Reason), string(state),
		snap.Session.TurnsUsed, snap.Session.UpdatedAt, snap.Session.ID,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListSessions returns sessions, most recently updated first. A non-positive
// limit defaults to 50.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, status, reason, turns_used, created_at, updated_at
		 FROM intake_sessions ORDER BY updated_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess           Session
			status, reason string
		)
		if err := rows.Scan(&sess.ID, &sess.UserID, &status, &reason, &sess.TurnsUsed, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.Status = collector.Status(status)
		sess.Reason = collector.Reason(reason)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// AddMessage appends a message to a session transcript.
func (s *Store) AddMessage(ctx context.Context, msg Message) (*Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now().UTC()

	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM intake_messages WHERE session_id = ?`, msg.SessionID,
	).Scan(&msg.Seq)
	if err != nil {
		return nil, fmt.Errorf("allocating message sequence: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO intake_messages (id, session_id, seq, role, slot, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Seq, msg.Role, msg.Slot, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("adding message: %w", err)
	}
	return &msg, nil
}

// GetMessages returns a session transcript in order.
func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, seq, role, slot, content, created_at
		 FROM intake_messages WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &m.Role, &m.Slot, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountSessions returns the total number of intake sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM intake_sessions`).Scan(&count)
	return count, err
}

// DeleteBefore removes sessions last updated before the cutoff, together
// with their transcripts and expert selections. It returns the removed ids.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning prune: %w", err)
	}
	defer tx.Rollback()

	cutoff := before.UTC()
	rows, err := tx.QueryContext(ctx, `SELECT id FROM intake_sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying stale sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	const stale = `(SELECT id FROM intake_sessions WHERE updated_at < ?)`
	for _, table := range []string{"intake_messages", "expert_selections", "meeting_counts"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id IN `+stale, cutoff); err != nil {
			return nil, fmt.Errorf("pruning %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM intake_sessions WHERE updated_at < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("pruning sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing prune: %w", err)
	}
	return ids, nil
}
