package lead

import (
	"context"
	"regexp"
	"strings"
	"time"

	"ibt_connect/internal/session"
)

// Visitor-facing prompts for the guided dialogue.
const (
	PromptName       = "Before we continue, may I have your name?"
	PromptPhone      = "Thanks! What is the best phone number to reach you?"
	PromptEmail      = "Got it. Could you share your email address? (required)"
	PromptEmailRetry = "That doesn't look like a valid email address. Could you share it again? (e.g. name@example.com)"
	PromptLocation   = "Almost done! What city or area are you located in? (optional, reply \"skip\" to skip)"
	ReplySaved       = "Thank you! Your details have been saved and our team will reach out shortly."
	ReplySaveIssue   = "Thank you! We received your details, though we had trouble saving them. Our team will follow up."
)

// Coarse syntactic shape only: something@something.something.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether text looks like an email address. No
// deliverability check is attempted.
func ValidEmail(text string) bool {
	return emailPattern.MatchString(strings.TrimSpace(text))
}

// SkipWord empties the optional location field when the visitor sends it.
const SkipWord = "skip"

// StepResult is the outcome of feeding one message to the machine.
type StepResult struct {
	Reply string
	// Fallthrough means the session was found in an unrecognized step,
	// capture state was cleared, and the turn should be handled as an
	// ordinary chat turn instead.
	Fallthrough bool
	// SinkErr reports a failed commit delivery. The session is already
	// reset and Reply already apologizes; the caller only logs it.
	SinkErr error
}

// Machine drives the guided lead-capture dialogue one field at a time
// and commits the completed record exactly once.
type Machine struct {
	sink Sink
	now  func() time.Time
}

func NewMachine(sink Sink) *Machine {
	return &Machine{sink: sink, now: time.Now}
}

// Step advances the dialogue with the visitor's message. The caller
// holds the session for the whole turn.
func (m *Machine) Step(ctx context.Context, sess *session.Session, text string) StepResult {
	text = strings.TrimSpace(text)

	switch sess.Step {
	case session.StepAwaitName:
		sess.Draft.Name = text
		sess.Step = session.StepAwaitPhone
		return StepResult{Reply: PromptPhone}

	case session.StepAwaitPhone:
		sess.Draft.Phone = text
		sess.Step = session.StepAwaitEmail
		return StepResult{Reply: PromptEmail}

	case session.StepAwaitEmail:
		if !ValidEmail(text) {
			return StepResult{Reply: PromptEmailRetry}
		}
		sess.Draft.Email = text
		sess.Step = session.StepAwaitLocation
		return StepResult{Reply: PromptLocation}

	case session.StepAwaitLocation:
		if strings.EqualFold(text, SkipWord) {
			sess.Draft.Location = ""
		} else {
			sess.Draft.Location = text
		}
		return m.commit(ctx, sess)

	default:
		// Unrecognized step, including StepNone while collecting.
		// Drop the capture state and let the dispatcher treat this
		// message as an ordinary turn.
		sess.ClearCapture()
		return StepResult{Fallthrough: true}
	}
}

func (m *Machine) commit(ctx context.Context, sess *session.Session) StepResult {
	// The flow guarantees a valid email before this point; if the draft
	// somehow lacks one, go back and ask rather than commit without it.
	if sess.Draft.Email == "" {
		sess.Step = session.StepAwaitEmail
		return StepResult{Reply: PromptEmailRetry}
	}

	rec := NewRecord(m.now(), sess.Draft)
	err := m.sink.Save(ctx, rec)

	// The session resets no matter what; a sink outage must not wedge
	// the visitor in the dialogue.
	sess.Reset()

	if err != nil {
		return StepResult{Reply: ReplySaveIssue, SinkErr: err}
	}
	return StepResult{Reply: ReplySaved}
}
