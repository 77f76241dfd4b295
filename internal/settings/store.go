package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store reads and writes board state. It is safe for concurrent use
// because database/sql is.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a Store on an open, migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Save replaces the stored state for boardID.
func (s *Store) Save(ctx context.Context, boardID string, state State) error {
	if boardID == "" {
		return ErrBoardIDRequired
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO board_state (board_id, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(board_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		boardID, string(data), s.timestamp())
	if err != nil {
		return fmt.Errorf("saving board state: %w", err)
	}
	return nil
}

// Load returns the stored state for boardID and when it was saved.
//
// Returns:
//   - State: The stored state
//   - time.Time: When it was saved (UTC)
//   - error: ErrNotFound if nothing was saved
func (s *Store) Load(ctx context.Context, boardID string) (State, time.Time, error) {
	if boardID == "" {
		return State{}, time.Time{}, ErrBoardIDRequired
	}

	var data, updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT state, updated_at FROM board_state WHERE board_id = ?", boardID,
	).Scan(&data, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, time.Time{}, ErrNotFound
	}
	if err != nil {
		return State{}, time.Time{}, fmt.Errorf("loading board state: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return State{}, time.Time{}, fmt.Errorf("unmarshalling state: %w", err)
	}
	at, err := time.Parse(timeLayout, updated)
	if err != nil {
		return State{}, time.Time{}, fmt.Errorf("parsing updated_at %q: %w", updated, err)
	}
	return state, at, nil
}

// RecordStateChange appends a history entry. An empty source is
// recorded as SourceAPI.
func (s *Store) RecordStateChange(ctx context.Context, boardID string, state State, source string) error {
	if boardID == "" {
		return ErrBoardIDRequired
	}
	if source == "" {
		source = SourceAPI
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO state_history (board_id, state, source, created_at) VALUES (?, ?, ?, ?)",
		boardID, string(data), source, s.timestamp())
	if err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}
	return nil
}

// GetHistory returns up to limit entries for boardID, newest first.
// limit defaults to 50 and is capped at 200.
func (s *Store) GetHistory(ctx context.Context, boardID string, limit int) ([]HistoryEntry, error) {
	if boardID == "" {
		return nil, ErrBoardIDRequired
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, board_id, state, source, created_at
		 FROM state_history
		 WHERE board_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		boardID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var e HistoryEntry
		var data, created string
		if err := rows.Scan(&e.ID, &e.BoardID, &data, &e.Source, &created); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.State); err != nil {
			return nil, fmt.Errorf("unmarshalling state: %w", err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}
	return entries, nil
}

// PruneHistory deletes entries older than olderThan across all boards and
// returns how many were removed.
func (s *Store) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-olderThan).Format(timeLayout)
	res, err := s.db.ExecContext(ctx, "DELETE FROM state_history WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning state history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}
