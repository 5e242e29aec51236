package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/devfolio/internal/chat"
)

var _ HistoryStore = (*Store)(nil)

// GetHistory returns the messages of a session in append order.
func (s *Store) GetHistory(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var role, content, createdAt string
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		ts, err := parseTime("created_at", createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, chat.Message{Role: chat.Role(role), Content: content, Timestamp: ts})
	}
	return out, rows.Err()
}

func (s *Store) AppendMessage(ctx context.Context, sessionID string, role chat.Role, content string) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, string(role), content, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

func (s *Store) ResetSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("resetting history: %w", err)
	}
	return nil
}
