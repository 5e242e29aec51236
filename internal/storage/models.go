package storage

import (
	"context"
	"errors"
	"time"

	"github.com/kalambet/devfolio/internal/chat"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// HistoryStore is the append-only chat log of each session.
type HistoryStore interface {
	// GetHistory returns the session's messages in the order they were
	// appended. An unknown session has an empty history.
	GetHistory(ctx context.Context, sessionID string) ([]chat.Message, error)
	AppendMessage(ctx context.Context, sessionID string, role chat.Role, content string) error
	// ResetSession drops the session's whole history.
	ResetSession(ctx context.Context, sessionID string) error
}

// SessionStore persists per-session canvas state.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (Session, error)
	SaveSession(ctx context.Context, s Session) error
	DeleteSession(ctx context.Context, id string) error
}

// Session is the stored form of a session's state.
type Session struct {
	ID            string
	Mode          string
	Canvas        string
	UndoJSON      string // JSON array of prior canvases, oldest first
	ChecklistJSON string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Upload statuses.
const (
	UploadPending   = "pending"
	UploadExtracted = "extracted"
	UploadFailed    = "failed"
)

type Upload struct {
	ID          string
	SessionID   string
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
	Text        string
	Status      string
	LastError   string
	CreatedAt   time.Time
}

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
