// Package dispatch orchestrates one inbound turn against one visitor
// session: guided lead capture when collecting, otherwise ordinary chat
// with optional speech rendering.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"ibt_connect/internal/chat"
	"ibt_connect/internal/lead"
	"ibt_connect/internal/logger"
	"ibt_connect/internal/session"
	"ibt_connect/internal/speech"
)

// DefaultThreshold is the number of ordinary turns before lead capture
// auto-triggers.
const DefaultThreshold = 3

// Result is the successful outcome of one turn.
type Result struct {
	Reply    string
	AudioRef string
}

// Dispatcher routes turns between the lead-capture machine and the chat
// responder. At most one of the two runs per turn.
type Dispatcher struct {
	store     *session.Store
	machine   *lead.Machine
	responder chat.Responder
	renderer  speech.Renderer // nil disables audio output
	threshold int
	now       func() time.Time
}

// New wires a dispatcher. A nil renderer means voice requests get a
// text-only reply.
func New(store *session.Store, machine *lead.Machine, responder chat.Responder, renderer speech.Renderer, threshold int) *Dispatcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Dispatcher{
		store:     store,
		machine:   machine,
		responder: responder,
		renderer:  renderer,
		threshold: threshold,
		now:       time.Now,
	}
}

// HandleTurn processes one non-empty message for the resolved identity
// key. The session is held exclusively for the whole turn, so two
// concurrent turns for the same visitor never interleave. On a
// collaborator error the session is left unchanged and the same turn
// can be retried.
func (d *Dispatcher) HandleTurn(ctx context.Context, key, message string, voice bool) (Result, error) {
	now := d.now()
	d.store.MaybeSweep(now)

	sess := d.store.Acquire(key)
	defer sess.Release()
	sess.Touch(now)

	if sess.Mode == session.ModeCollecting {
		res := d.machine.Step(ctx, sess, message)
		if res.SinkErr != nil {
			logger.Error().
				Err(res.SinkErr).
				Str("identity", key).
				Msg("lead sink failed, record dropped")
		}
		if !res.Fallthrough {
			return Result{Reply: res.Reply}, nil
		}
		// Capture state was unrecognized and has been cleared; handle
		// this message as an ordinary turn below.
	}

	next := sess.TurnCount + 1
	if next >= d.threshold {
		sess.BeginCapture()
		return Result{Reply: lead.PromptName}, nil
	}

	reply, err := d.responder.Reply(ctx, message)
	if err != nil {
		return Result{}, fmt.Errorf("chat responder: %w", err)
	}

	result := Result{Reply: reply}
	if voice && d.renderer != nil {
		ref, err := d.renderer.Render(ctx, reply)
		if err != nil {
			return Result{}, fmt.Errorf("speech renderer: %w", err)
		}
		result.AudioRef = ref
	}

	// Count the turn only once everything above succeeded.
	sess.TurnCount = next
	return result, nil
}
