package service

import (
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"secureplan/internal/planner/models"
	"secureplan/internal/planner/placement"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBusy            = errors.New("an AI request is already running for this session")
	ErrEmptyMessage    = errors.New("message is empty")
)

// ============================================================
// Session
// ============================================================

// Session один открытый план: изображение, расстановка, переписка.
type Session struct {
	ID string

	mu               sync.Mutex
	image            models.FloorPlanImage
	base64Data       string
	strategy         models.Strategy
	store            *placement.Store
	chat             []models.ChatMessage
	analysis         string
	name             string
	libraryTimestamp string
	busy             bool
	touchedAt        time.Time
}

func newSession(img models.FloorPlanImage) *Session {
	return &Session{
		ID:         uuid.NewString(),
		image:      img,
		base64Data: base64.StdEncoding.EncodeToString(img.Data),
		strategy:   models.StrategyHighestSecurity,
		store:      placement.NewStore(),
		chat:       []models.ChatMessage{},
		touchedAt:  time.Now(),
	}
}

// begin помечает сессию занятой запросом к модели.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	s.busy = true
	s.touchedAt = time.Now()
	return nil
}

// end снимает флаг занятости, в том числе если вызов модели упал с паникой.
func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

func (s *Session) appendChat(msgs ...models.ChatMessage) {
	s.chat = append(s.chat, msgs...)
}

func (s *Session) chatCopy() []models.ChatMessage {
	out := make([]models.ChatMessage, len(s.chat))
	copy(out, s.chat)
	return out
}

// ============================================================
// Session Manager
// ============================================================

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

func (m *SessionManager) Issue(img models.FloorPlanImage) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := newSession(img)
	m.sessions[s.ID] = s
	return s
}

func (m *SessionManager) Resolve(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	s.touchedAt = time.Now()
	s.mu.Unlock()
	return s, nil
}

func (m *SessionManager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Prune удаляет сессии, к которым не обращались дольше idle.
// Занятые сессии не трогает.
func (m *SessionManager) Prune(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := !s.busy && s.touchedAt.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
