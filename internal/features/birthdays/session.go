// Package birthdays - session.go хранит состояние диалога для каждого чата.
package birthdays

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// State - состояние диалога в чате.
type State int

const (
	StateIdle State = iota
	StateAwaitingAdd
	StateAwaitingDelete
)

func (s State) String() string {
	switch s {
	case StateAwaitingAdd:
		return "awaiting_add"
	case StateAwaitingDelete:
		return "awaiting_delete"
	default:
		return "idle"
	}
}

// Session - состояние одного чата. Пока сессия захвачена через
// SessionStore.Lock, её может менять только один обработчик.
type Session struct {
	mu        sync.Mutex
	state     State
	expiresAt time.Time
}

// SessionStore - сессии по chat_id.
// Ожидающее состояние без ответа дольше ttl сбрасывается в Idle.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	clock    clock.Clock
}

// NewSessionStore создаёт хранилище сессий.
func NewSessionStore(ttl time.Duration, clk clock.Clock) *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		clock:    clk,
	}
}

// Lock захватывает сессию чата и возвращает её вместе с функцией освобождения.
// Сообщения одного чата обрабатываются строго по очереди.
func (s *SessionStore) Lock(chatID int64) (*Session, func()) {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[chatID]
		if !ok {
			sess = &Session{}
			s.sessions[chatID] = sess
		}
		s.mu.Unlock()

		sess.mu.Lock()

		// Cleanup мог удалить сессию, пока мы ждали её мьютекс
		s.mu.Lock()
		current := s.sessions[chatID]
		s.mu.Unlock()
		if current == sess {
			return sess, sess.mu.Unlock
		}
		sess.mu.Unlock()
	}
}

// State возвращает текущее состояние с учётом истечения TTL.
// Вызывать только под Lock.
func (s *SessionStore) State(sess *Session) State {
	if sess.state != StateIdle && s.ttl > 0 && !s.clock.Now().Before(sess.expiresAt) {
		sess.state = StateIdle
	}
	return sess.state
}

// Set меняет состояние сессии и продлевает её срок. Вызывать только под Lock.
func (s *SessionStore) Set(sess *Session, st State) {
	sess.state = st
	sess.expiresAt = s.clock.Now().Add(s.ttl)
}

// Cleanup удаляет простаивающие сессии, которые сейчас никем не захвачены.
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for chatID, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.state == StateIdle || (s.ttl > 0 && !now.Before(sess.expiresAt)) {
			delete(s.sessions, chatID)
			removed++
		}
		sess.mu.Unlock()
	}
	return removed
}

// Len возвращает количество сессий.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
