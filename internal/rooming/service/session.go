package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
	"github.com/1imo/rooming-service/internal/rooming/models"
)

// ============================================================
// Session Manager
// ============================================================

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRoomMismatch    = errors.New("session edits a different room")
)

// Session owns one engine. All access goes through SessionManager.Do, which
// holds mu for the whole edit.
type Session struct {
	Token    string
	RoomID   int64
	Resumed  bool
	OpenedAt time.Time

	mu     sync.Mutex
	engine *geometry.Engine
	base   time.Time // room.UpdatedAt when the session opened
	closed bool
}

// State is a copy of a session's outline taken under its lock.
type State struct {
	Token             string                      `json:"token"`
	RoomID            int64                       `json:"room_id"`
	Resumed           bool                        `json:"resumed"`
	Points            []geometry.Point            `json:"points"`
	AngleConstraints  []geometry.AngleConstraint  `json:"angleConstraints"`
	LengthConstraints []geometry.LengthConstraint `json:"lengthConstraints"`
	Measurements      geometry.Measurements       `json:"measurements"`
}

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session // token -> session
	drafts   *DraftStore
	log      *zap.SugaredLogger
}

// NewSessionManager creates a manager. drafts may be nil, in which case
// edits are not persisted between sessions.
func NewSessionManager(drafts *DraftStore, log *zap.SugaredLogger) *SessionManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		drafts:   drafts,
		log:      log,
	}
}

// Open starts a session on room. A draft taken from the same saved version of
// the room is resumed instead of the saved outline; older drafts are dropped.
func (m *SessionManager) Open(room *models.Room, opts geometry.Options) (State, error) {
	engine, resumed, err := m.initialEngine(room, opts)
	if err != nil {
		return State{}, err
	}

	s := &Session{
		Token:    uuid.NewString(),
		RoomID:   room.ID,
		Resumed:  resumed,
		OpenedAt: time.Now(),
		engine:   engine,
		base:     room.UpdatedAt,
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	m.log.Infow("session opened", "token", s.Token, "room", room.ID, "resumed", resumed)
	return s.state(), nil
}

func (m *SessionManager) initialEngine(room *models.Room, opts geometry.Options) (*geometry.Engine, bool, error) {
	if m.drafts != nil {
		d, err := m.drafts.Load(room.ID)
		switch {
		case err == nil && !d.RoomUpdatedAt.Equal(room.UpdatedAt):
			m.log.Infow("discarding stale draft", "room", room.ID,
				"draft_base", d.RoomUpdatedAt, "room_updated", room.UpdatedAt)
			m.DiscardDraft(room.ID)
		case err == nil:
			e, err := geometry.Load(d.Points, d.AngleConstraints, d.LengthConstraints, opts)
			if err == nil {
				return e, true, nil
			}
			m.log.Warnw("discarding unusable draft", "room", room.ID, "error", err)
			m.DiscardDraft(room.ID)
		case !errors.Is(err, ErrDraftNotFound):
			m.log.Warnw("loading draft failed", "room", room.ID, "error", err)
		}
	}
	e, err := room.Engine(opts)
	return e, false, err
}

func (m *SessionManager) lookup(token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *SessionManager) Get(token string) (State, error) {
	s, err := m.lookup(token)
	if err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(), nil
}

// Do runs one edit against the session's engine. Accepted edits are written
// to the draft store; a failing draft write is logged, not returned.
func (m *SessionManager) Do(token string, edit func(e *geometry.Engine) (geometry.Result, error)) (geometry.Result, error) {
	s, err := m.lookup(token)
	if err != nil {
		return geometry.Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return geometry.Result{}, ErrSessionNotFound
	}

	res, err := edit(s.engine)
	if err != nil {
		return res, err
	}
	if res.Reason != nil {
		m.log.Infow("edit settled softly", "token", token, "accepted", res.Accepted, "reason", res.Reason)
	}
	if res.Accepted && m.drafts != nil {
		if err := m.drafts.Save(models.DraftFromEngine(s.RoomID, s.base, s.engine)); err != nil {
			m.log.Errorw("saving draft failed", "room", s.RoomID, "error", err)
		}
	}
	return res, nil
}

// Commit copies the session's outline into room. The session stays open
// until the caller has persisted room and calls Close.
func (m *SessionManager) Commit(token string, room *models.Room) error {
	s, err := m.lookup(token)
	if err != nil {
		return err
	}
	if s.RoomID != room.ID {
		return fmt.Errorf("session room %d, got room %d: %w", s.RoomID, room.ID, ErrRoomMismatch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionNotFound
	}
	room.ApplyEngine(s.engine)
	return nil
}

// Close ends the session and drops its draft.
func (m *SessionManager) Close(token string) error {
	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	// An edit already inside Do finishes before the draft goes.
	s.mu.Lock()
	s.closed = true
	m.DiscardDraft(s.RoomID)
	s.mu.Unlock()

	m.log.Infow("session closed", "token", token, "room", s.RoomID)
	return nil
}

// DiscardDraft drops any draft kept for roomID. Failures are logged.
func (m *SessionManager) DiscardDraft(roomID int64) {
	if m.drafts == nil {
		return
	}
	if err := m.drafts.Delete(roomID); err != nil {
		m.log.Errorw("deleting draft failed", "room", roomID, "error", err)
	}
}

func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RoomID reports which room a session edits.
func (m *SessionManager) RoomID(token string) (int64, error) {
	s, err := m.lookup(token)
	if err != nil {
		return 0, err
	}
	return s.RoomID, nil
}

// state must be called with s.mu held, or before s is shared.
func (s *Session) state() State {
	return State{
		Token:             s.Token,
		RoomID:            s.RoomID,
		Resumed:           s.Resumed,
		Points:            s.engine.Points(),
		AngleConstraints:  s.engine.AngleConstraints(),
		LengthConstraints: s.engine.LengthConstraints(),
		Measurements:      s.engine.Measure(),
	}
}
