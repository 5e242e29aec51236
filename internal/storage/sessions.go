package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ SessionStore = (*Store)(nil)

func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, mode, canvas, undo, checklist, created_at, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.Mode, &sess.Canvas, &sess.UndoJSON, &sess.ChecklistJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("querying session: %w", err)
	}
	if sess.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return Session{}, err
	}
	if sess.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// SaveSession inserts or replaces the session. A zero CreatedAt is set to
// now on first insert and is preserved on later saves.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	now := time.Now()
	created := sess.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := sess.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	undo := sess.UndoJSON
	if undo == "" {
		undo = "[]"
	}
	checklist := sess.ChecklistJSON
	if checklist == "" {
		checklist = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, canvas, undo, checklist, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			canvas = excluded.canvas,
			undo = excluded.undo,
			checklist = excluded.checklist,
			updated_at = excluded.updated_at`,
		sess.ID, sess.Mode, sess.Canvas, undo, checklist, formatTime(created), formatTime(updated))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// DeleteSession removes the session together with its history and uploads.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM uploads WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting uploads: %w", err)
	}
	return tx.Commit()
}
