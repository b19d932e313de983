package session

import (
	"sync"
	"time"
)

// Mode tells whether a visitor is chatting normally or walking through
// the guided lead-capture dialogue.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCollecting
)

// Step is the current field the lead-capture dialogue is waiting on.
// StepNone holds exactly while Mode is ModeIdle.
type Step int

const (
	StepNone Step = iota
	StepAwaitName
	StepAwaitPhone
	StepAwaitEmail
	StepAwaitLocation
)

// Draft holds the partially collected lead fields for one visitor.
type Draft struct {
	Name     string
	Phone    string
	Email    string
	Location string
}

// Session is the per-visitor dialogue state. All field access must happen
// between Store.Acquire and Release so concurrent turns for the same
// identity never interleave.
type Session struct {
	mu      sync.Mutex
	evicted bool

	Identity     string
	TurnCount    int
	Mode         Mode
	Step         Step
	Draft        Draft
	LastActivity time.Time
}

func newSession(identity string) *Session {
	return &Session{Identity: identity, LastActivity: time.Now()}
}

// Release unlocks the session acquired from the store.
func (s *Session) Release() {
	s.mu.Unlock()
}

// Touch records activity so the TTL sweep keeps the session alive.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}

// BeginCapture switches the session into the guided dialogue, starting
// with the name field. The ordinary-turn counter starts over.
func (s *Session) BeginCapture() {
	s.Mode = ModeCollecting
	s.Step = StepAwaitName
	s.TurnCount = 0
	s.Draft = Draft{}
}

// ClearCapture abandons the guided dialogue without touching TurnCount.
// Used when the session is found in an unrecognized step.
func (s *Session) ClearCapture() {
	s.Mode = ModeIdle
	s.Step = StepNone
	s.Draft = Draft{}
}

// Reset returns the session to the state of a freshly created one.
// Runs after every commit attempt, successful or not.
func (s *Session) Reset() {
	s.Mode = ModeIdle
	s.Step = StepNone
	s.Draft = Draft{}
	s.TurnCount = 0
}
