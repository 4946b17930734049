// Package history logs which mocks were extracted, for /status.
package history

import (
	"context"
	"fmt"
	"time"
)

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

type Extraction struct {
	UserID    int64
	MockID    string
	MockName  string
	Status    Status
	CreatedAt time.Time
}

type Stats struct {
	Total   int
	ForUser int
	Failed  int
}

func (d *DB) Record(ctx context.Context, e Extraction) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := d.ExecContext(ctx,
		`INSERT INTO extractions (user_id, mock_id, mock_name, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.MockID, e.MockName, string(e.Status), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record extraction: %w", err)
	}
	return nil
}

// Stats counts successful extractions overall and for userID, plus failures
// for userID.
func (d *DB) Stats(ctx context.Context, userID int64) (Stats, error) {
	var s Stats
	err := d.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'sent' AND user_id = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' AND user_id = ? THEN 1 ELSE 0 END), 0)
		FROM extractions`, userID, userID).Scan(&s.Total, &s.ForUser, &s.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return s, nil
}

// Recent returns the user's latest extractions, newest first.
func (d *DB) Recent(ctx context.Context, userID int64, limit int) ([]Extraction, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT user_id, mock_id, mock_name, status, created_at
		FROM extractions WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		var e Extraction
		var status string
		if err := rows.Scan(&e.UserID, &e.MockID, &e.MockName, &status, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Status = Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
