package bot

import (
	"sync"
	"time"

	"staffbot-backend/internal/domain"
)

// Step is the profile-collection state for one chat.
type Step int

const (
	StepNone Step = iota
	StepFirstName
	StepLastName
	StepPhone
	StepLoginID
	StepPassword
)

// Session is an in-flight profile conversation. Only transient collection
// state lives here; anything durable is in the database.
type Session struct {
	JoinRequestID int32
	Role          domain.Role
	Step          Step
	FirstName     string
	LastName      string
	Phone         string
	LoginID       string
	UpdatedOn     time.Time
}

// SessionStore keeps per-chat sessions with a TTL so abandoned
// conversations do not pile up.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
	}
}

func (s *SessionStore) Get(chatID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, false
	}
	if time.Since(sess.UpdatedOn) > s.ttl {
		delete(s.sessions, chatID)
		return nil, false
	}
	return sess, true
}

func (s *SessionStore) Put(chatID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedOn = time.Now()
	s.sessions[chatID] = sess
	s.prune()
}

func (s *SessionStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// prune drops expired sessions. Called with the lock held.
func (s *SessionStore) prune() {
	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedOn) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
