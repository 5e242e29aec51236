package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *Store) SaveUpload(ctx context.Context, u Upload) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	status := u.Status
	if status == "" {
		status = UploadPending
	}
	data := u.Data
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (id, session_id, filename, content_type, size, data, text, status, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.SessionID, u.Filename, u.ContentType, u.Size, data, u.Text, status, u.LastError, formatTime(created))
	if err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	return nil
}

// GetUpload returns an upload including its raw bytes.
func (s *Store) GetUpload(ctx context.Context, id string) (Upload, error) {
	var u Upload
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, filename, content_type, size, data, text, status, last_error, created_at
		FROM uploads WHERE id = ?`, id).
		Scan(&u.ID, &u.SessionID, &u.Filename, &u.ContentType, &u.Size, &u.Data, &u.Text, &u.Status, &u.LastError, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Upload{}, ErrNotFound
	}
	if err != nil {
		return Upload{}, fmt.Errorf("querying upload: %w", err)
	}
	if u.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return Upload{}, err
	}
	return u, nil
}

// ListUploads returns a session's uploads, oldest first, without their data.
func (s *Store) ListUploads(ctx context.Context, sessionID string) ([]Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, filename, content_type, size, text, status, last_error, created_at
		FROM uploads WHERE session_id = ? ORDER BY rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var u Upload
		var createdAt string
		if err := rows.Scan(&u.ID, &u.SessionID, &u.Filename, &u.ContentType, &u.Size, &u.Text, &u.Status, &u.LastError, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		if u.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetUploadResult records the outcome of text extraction.
func (s *Store) SetUploadResult(ctx context.Context, id, status, text, lastError string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE uploads SET status = ?, text = ?, last_error = ? WHERE id = ?`, status, text, lastError, id)
	if err != nil {
		return fmt.Errorf("updating upload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
