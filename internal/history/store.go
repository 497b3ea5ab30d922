// Package history keeps conversation transcripts in memory, keyed by
// session id and scenario id.  Nothing is persisted; transcripts live as
// long as the process.
package history

import (
	"sync"

	"ai-patient/pkg"
)

// Conversation is the transcript of one (session, scenario) pair.
type Conversation struct {
	mu       sync.Mutex
	messages []pkg.Message
	cap      int
}

// Append adds messages in order.  When the store has a cap, only the most
// recent cap messages are retained.
func (c *Conversation) Append(msgs ...pkg.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msgs...)
	if c.cap > 0 && len(c.messages) > c.cap {
		trimmed := make([]pkg.Message, c.cap)
		copy(trimmed, c.messages[len(c.messages)-c.cap:])
		c.messages = trimmed
	}
}

// Messages returns a snapshot of the transcript.
func (c *Conversation) Messages() []pkg.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]pkg.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of stored messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Store maps session id → scenario id → Conversation.
//
// The store lock only guards the map structure.  Each Conversation has its
// own lock, and no lock is held while a caller waits on the model, so two
// concurrent chats on the same key may interleave their turns.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Conversation
	cap      int
}

// NewStore creates an empty store.  maxMessages <= 0 means unbounded.
func NewStore(maxMessages int) *Store {
	if maxMessages < 0 {
		maxMessages = 0
	}
	return &Store{
		sessions: make(map[string]map[string]*Conversation),
		cap:      maxMessages,
	}
}

// GetOrCreate returns the conversation for the key, creating empty entries
// for unseen session or scenario ids.
func (s *Store) GetOrCreate(sessionID, scenarioID string) *Conversation {
	if c := s.lookup(sessionID, scenarioID); c != nil {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scenarios, ok := s.sessions[sessionID]
	if !ok {
		scenarios = make(map[string]*Conversation)
		s.sessions[sessionID] = scenarios
	}
	c, ok := scenarios[scenarioID]
	if !ok {
		c = &Conversation{cap: s.cap}
		scenarios[scenarioID] = c
	}
	return c
}

func (s *Store) lookup(sessionID, scenarioID string) *Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID][scenarioID]
}

// Append adds messages to the conversation for the key.
func (s *Store) Append(sessionID, scenarioID string, msgs ...pkg.Message) {
	s.GetOrCreate(sessionID, scenarioID).Append(msgs...)
}

// Read returns the transcript for the key, or an empty slice.  It does not
// create entries.
func (s *Store) Read(sessionID, scenarioID string) []pkg.Message {
	c := s.lookup(sessionID, scenarioID)
	if c == nil {
		return []pkg.Message{}
	}
	return c.Messages()
}

// Sessions returns the number of distinct session ids seen.
func (s *Store) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
