package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/tradejournal/id"
)

// SaveReflection creates or replaces the reflection for r.AccountID on r.Day.
// Blocks without an ID are assigned one.
func (j *SQLite) SaveReflection(ctx context.Context, r Reflection) (Reflection, error) {
	if _, err := time.Parse(DayLayout, r.Day); err != nil {
		return Reflection{}, fmt.Errorf("reflection day %q: %w", r.Day, err)
	}
	for i := range r.Blocks {
		if r.Blocks[i].ID == "" {
			r.Blocks[i].ID = id.New()
		}
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}

	blocks, err := json.Marshal(r.Blocks)
	if err != nil {
		return Reflection{}, fmt.Errorf("encode blocks: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO reflections (account_id, day, mood, summary, blocks, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, day) DO UPDATE SET
			mood = excluded.mood,
			summary = excluded.summary,
			blocks = excluded.blocks,
			updated_at = excluded.updated_at`,
		r.AccountID, r.Day, r.Mood, r.Summary, string(blocks), r.UpdatedAt.UTC(),
	)
	if err != nil {
		return Reflection{}, err
	}
	return r, nil
}

// GetReflection returns the reflection for one account and day.
func (j *SQLite) GetReflection(ctx context.Context, accountID, day string) (Reflection, error) {
	var (
		r      Reflection
		blocks string
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT account_id, day, mood, summary, blocks, updated_at
		FROM reflections WHERE account_id = ? AND day = ?`, accountID, day).
		Scan(&r.AccountID, &r.Day, &r.Mood, &r.Summary, &blocks, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return Reflection{}, fmt.Errorf("reflection %s/%s: %w", accountID, day, ErrNotFound)
	}
	if err != nil {
		return Reflection{}, err
	}
	if err := json.Unmarshal([]byte(blocks), &r.Blocks); err != nil {
		return Reflection{}, fmt.Errorf("decode blocks: %w", err)
	}
	return r, nil
}

func (j *SQLite) AddNote(ctx context.Context, n Note) (Note, error) {
	if _, err := time.Parse(DayLayout, n.Day); err != nil {
		return Note{}, fmt.Errorf("note day %q: %w", n.Day, err)
	}
	if n.ID == "" {
		n.ID = id.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO notes (note_id, account_id, day, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.AccountID, n.Day, n.Body, n.CreatedAt.UTC(),
	)
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

// ListNotes returns the notes of one day, oldest first.
func (j *SQLite) ListNotes(ctx context.Context, accountID, day string) ([]Note, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT note_id, account_id, day, body, created_at
		FROM notes WHERE account_id = ? AND day = ?
		ORDER BY created_at ASC, note_id ASC`, accountID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Day, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
