package onboarding

import (
	"sync"

	"github.com/google/uuid"
)

// Step identifies where in the onboarding dialog a channel currently is.
type Step int

const (
	StepAwaitingAssist Step = iota
	StepCollectingTeamName
	StepCollectingBotAccounts
)

// Session is the in-memory state of one channel's onboarding dialog, pinned
// to a single conversation thread. Sessions are never persisted; a process
// restart abandons them and the next mention starts over.
type Session struct {
	ChannelID string
	Step      Step
	ThreadTS  string
	TeamID    uuid.UUID
}

// SessionStore holds active sessions keyed by channel id. It is owned by the
// live event listener and scoped to process uptime.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the active session for a channel, if any.
func (s *SessionStore) Get(channelID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[channelID]
	return sess, ok
}

// GetOrCreate returns the channel's session, creating one pinned to threadTS
// at the initial step when none exists.
func (s *SessionStore) GetOrCreate(channelID, threadTS string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[channelID]; ok {
		return sess
	}
	sess := &Session{
		ChannelID: channelID,
		Step:      StepAwaitingAssist,
		ThreadTS:  threadTS,
	}
	s.sessions[channelID] = sess
	return sess
}

// Delete discards a channel's session.
func (s *SessionStore) Delete(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, channelID)
}
