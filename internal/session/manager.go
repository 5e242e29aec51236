// Package session loads, locks and persists the per-session canvas state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/devfolio/internal/canvas"
	"github.com/kalambet/devfolio/internal/checklist"
	"github.com/kalambet/devfolio/internal/mode"
	"github.com/kalambet/devfolio/internal/storage"
)

// ErrNotFound is returned by Get and Delete for an unknown session.
var ErrNotFound = storage.ErrNotFound

// State is everything a turn may read or change besides the chat history.
type State struct {
	ID        string
	Mode      mode.Mode
	Canvas    string
	Undo      *canvas.History
	Checklist checklist.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot returns a copy of s that shares nothing with it.
func (s *State) Snapshot() State {
	out := *s
	out.Undo = canvas.RestoreHistory(s.Undo.Depth(), s.Undo.States())
	out.Checklist = s.Checklist.Clone()
	return out
}

// SwitchMode moves the session to m: the current canvas is pushed onto the
// undo stack, the canvas becomes m's starter document and the checklist is
// reset. Switching to the current mode is a no-op.
func (s *State) SwitchMode(m mode.Mode) bool {
	if m == s.Mode {
		return false
	}
	s.Undo.Push(s.Canvas)
	s.Mode = m
	s.Canvas = m.DefaultCanvas()
	s.Checklist = checklist.New(m)
	return true
}

// Replace records the current canvas for undo and installs next. It reports
// whether anything changed.
func (s *State) Replace(next string) bool {
	if next == s.Canvas {
		return false
	}
	s.Undo.Push(s.Canvas)
	s.Canvas = next
	return true
}

// Manager serialises access to each session. Distinct sessions proceed
// independently.
type Manager struct {
	store     storage.SessionStore
	undoDepth int

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is removed from Manager.locks once refs drops to zero, so
// every holder and waiter of one id shares the same mutex.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a Manager. undoDepth <= 0 selects canvas.DefaultUndoDepth.
func NewManager(store storage.SessionStore, undoDepth int) *Manager {
	if undoDepth <= 0 {
		undoDepth = canvas.DefaultUndoDepth
	}
	return &Manager{store: store, undoDepth: undoDepth, locks: make(map[string]*sessionLock)}
}

// acquire blocks until the caller holds id's lock. Pair with release.
func (m *Manager) acquire(id string) *sessionLock {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return l
}

func (m *Manager) release(id string, l *sessionLock) {
	l.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, id)
	}
}

// New returns a fresh, unsaved state for m.
func (m *Manager) New(id string, md mode.Mode) *State {
	now := time.Now().UTC()
	return &State{
		ID:        id,
		Mode:      md,
		Canvas:    md.DefaultCanvas(),
		Undo:      canvas.NewHistory(m.undoDepth),
		Checklist: checklist.New(md),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Create starts a new session in md with a generated id.
func (m *Manager) Create(ctx context.Context, md mode.Mode) (State, error) {
	if !md.Valid() {
		return State{}, fmt.Errorf("invalid mode %d", int(md))
	}
	st := m.New(uuid.New().String(), md)
	if err := m.save(ctx, st); err != nil {
		return State{}, err
	}
	return *st, nil
}

// With runs fn on the session's state while holding its lock, and saves the
// state when fn succeeds. An unknown id starts a Personal Bio session. When
// fn returns an error nothing is saved.
func (m *Manager) With(ctx context.Context, id string, fn func(*State) error) error {
	l := m.acquire(id)
	defer m.release(id, l)

	st, err := m.load(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		st = m.New(id, mode.PersonalBio)
	} else if err != nil {
		return err
	}

	if err := fn(st); err != nil {
		return err
	}
	st.UpdatedAt = time.Now().UTC()
	return m.save(ctx, st)
}

// Get returns a copy of the stored state.
func (m *Manager) Get(ctx context.Context, id string) (State, error) {
	l := m.acquire(id)
	defer m.release(id, l)

	st, err := m.load(ctx, id)
	if err != nil {
		return State{}, err
	}
	return *st, nil
}

// Delete drops the session's stored state.
func (m *Manager) Delete(ctx context.Context, id string) error {
	l := m.acquire(id)
	defer m.release(id, l)

	return m.store.DeleteSession(ctx, id)
}

func (m *Manager) load(ctx context.Context, id string) (*State, error) {
	rec, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	md, err := mode.Parse(rec.Mode)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var undo []string
	if rec.UndoJSON != "" {
		if err := json.Unmarshal([]byte(rec.UndoJSON), &undo); err != nil {
			return nil, fmt.Errorf("decoding undo stack for %s: %w", id, err)
		}
	}

	cl := checklist.New(md)
	if rec.ChecklistJSON != "" && rec.ChecklistJSON != "{}" {
		var stored checklist.State
		if err := json.Unmarshal([]byte(rec.ChecklistJSON), &stored); err != nil {
			return nil, fmt.Errorf("decoding checklist for %s: %w", id, err)
		}
		if stored.Mode == md {
			for k, v := range stored.Slots {
				if _, ok := cl.Slots[k]; ok {
					cl.Slots[k] = v
				}
			}
		}
	}

	return &State{
		ID:        rec.ID,
		Mode:      md,
		Canvas:    rec.Canvas,
		Undo:      canvas.RestoreHistory(m.undoDepth, undo),
		Checklist: cl,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (m *Manager) save(ctx context.Context, st *State) error {
	undo, err := json.Marshal(st.Undo.States())
	if err != nil {
		return fmt.Errorf("encoding undo stack: %w", err)
	}
	cl, err := json.Marshal(st.Checklist)
	if err != nil {
		return fmt.Errorf("encoding checklist: %w", err)
	}
	return m.store.SaveSession(ctx, storage.Session{
		ID:            st.ID,
		Mode:          st.Mode.Key(),
		Canvas:        st.Canvas,
		UndoJSON:      string(undo),
		ChecklistJSON: string(cl),
		CreatedAt:     st.CreatedAt,
		UpdatedAt:     st.UpdatedAt,
	})
}
