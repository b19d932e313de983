package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibt_connect/internal/lead"
	"ibt_connect/internal/session"
)

type fakeResponder struct {
	calls   int
	reply   string
	err     error
	lastMsg string
}

func (f *fakeResponder) Reply(ctx context.Context, message string) (string, error) {
	f.calls++
	f.lastMsg = message
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeRenderer struct {
	calls int
	ref   string
	err   error
}

func (f *fakeRenderer) Render(ctx context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

type fakeSink struct {
	records []lead.Record
	err     error
}

func (f *fakeSink) Save(ctx context.Context, rec lead.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newDispatcher(responder *fakeResponder, renderer *fakeRenderer, sink lead.Sink, threshold int) (*Dispatcher, *session.Store) {
	store := session.NewStore(time.Hour)
	machine := lead.NewMachine(sink)
	if renderer == nil {
		return New(store, machine, responder, nil, threshold), store
	}
	return New(store, machine, responder, renderer, threshold), store
}

func TestOrdinaryTurnForwardsToChat(t *testing.T) {
	responder := &fakeResponder{reply: "hello there"}
	d, store := newDispatcher(responder, nil, &fakeSink{}, 3)

	res, err := d.HandleTurn(context.Background(), "v1", "hi", false)
	require.NoError(t, err)
	assert.Equal(t, "hello there", res.Reply)
	assert.Empty(t, res.AudioRef)
	assert.Equal(t, 1, responder.calls)

	sess := store.Acquire("v1")
	defer sess.Release()
	assert.Equal(t, 1, sess.TurnCount)
	assert.Equal(t, session.ModeIdle, sess.Mode)
}

func TestThresholdTurnStartsCaptureWithoutChatCall(t *testing.T) {
	responder := &fakeResponder{reply: "chat"}
	renderer := &fakeRenderer{ref: "/audio/x.mp3"}
	d, store := newDispatcher(responder, renderer, &fakeSink{}, 3)

	ctx := context.Background()
	for _, msg := range []string{"hi", "how are you"} {
		_, err := d.HandleTurn(ctx, "v1", msg, false)
		require.NoError(t, err)
	}
	require.Equal(t, 2, responder.calls)

	// Third turn triggers capture; neither collaborator is invoked,
	// even with voice requested.
	res, err := d.HandleTurn(ctx, "v1", "tell me more", true)
	require.NoError(t, err)
	assert.Equal(t, lead.PromptName, res.Reply)
	assert.Empty(t, res.AudioRef)
	assert.Equal(t, 2, responder.calls)
	assert.Equal(t, 0, renderer.calls)

	sess := store.Acquire("v1")
	defer sess.Release()
	assert.Equal(t, session.ModeCollecting, sess.Mode)
	assert.Equal(t, session.StepAwaitName, sess.Step)
	assert.Equal(t, 0, sess.TurnCount)
}

func TestCollectingTurnNeverCallsChat(t *testing.T) {
	responder := &fakeResponder{reply: "chat"}
	d, store := newDispatcher(responder, nil, &fakeSink{}, 3)

	sess := store.Acquire("v1")
	sess.BeginCapture()
	sess.Release()

	res, err := d.HandleTurn(context.Background(), "v1", "Alice", false)
	require.NoError(t, err)
	assert.Equal(t, lead.PromptPhone, res.Reply)
	assert.Equal(t, 0, responder.calls)
}

func TestVoiceTurnAttachesAudioRef(t *testing.T) {
	responder := &fakeResponder{reply: "bienvenido"}
	renderer := &fakeRenderer{ref: "/audio/abc.mp3"}
	d, _ := newDispatcher(responder, renderer, &fakeSink{}, 5)

	res, err := d.HandleTurn(context.Background(), "v1", "hola", true)
	require.NoError(t, err)
	assert.Equal(t, "bienvenido", res.Reply)
	assert.Equal(t, "/audio/abc.mp3", res.AudioRef)
	assert.Equal(t, 1, renderer.calls)
}

func TestChatFailureLeavesSessionUnchanged(t *testing.T) {
	responder := &fakeResponder{err: errors.New("upstream 500")}
	d, store := newDispatcher(responder, nil, &fakeSink{}, 3)

	_, err := d.HandleTurn(context.Background(), "v1", "hi", false)
	require.Error(t, err)

	sess := store.Acquire("v1")
	defer sess.Release()
	assert.Equal(t, 0, sess.TurnCount)
	assert.Equal(t, session.ModeIdle, sess.Mode)
}

func TestSpeechFailureLeavesSessionUnchanged(t *testing.T) {
	responder := &fakeResponder{reply: "ok"}
	renderer := &fakeRenderer{err: errors.New("tts down")}
	d, store := newDispatcher(responder, renderer, &fakeSink{}, 5)

	_, err := d.HandleTurn(context.Background(), "v1", "hi", true)
	require.Error(t, err)

	sess := store.Acquire("v1")
	defer sess.Release()
	assert.Equal(t, 0, sess.TurnCount)
}

func TestVoiceWithoutRendererReturnsTextOnly(t *testing.T) {
	responder := &fakeResponder{reply: "ok"}
	d, _ := newDispatcher(responder, nil, &fakeSink{}, 5)

	res, err := d.HandleTurn(context.Background(), "v1", "hi", true)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Reply)
	assert.Empty(t, res.AudioRef)
}

func TestDistinctVisitorsDoNotShareCounters(t *testing.T) {
	responder := &fakeResponder{reply: "chat"}
	d, store := newDispatcher(responder, nil, &fakeSink{}, 3)

	ctx := context.Background()
	_, err := d.HandleTurn(ctx, "a", "hi", false)
	require.NoError(t, err)
	_, err = d.HandleTurn(ctx, "b", "hi", false)
	require.NoError(t, err)

	sa := store.Acquire("a")
	assert.Equal(t, 1, sa.TurnCount)
	sa.Release()
	sb := store.Acquire("b")
	assert.Equal(t, 1, sb.TurnCount)
	sb.Release()
}

// Full guided flow from a fresh session with the default threshold.
func TestEndToEndLeadCapture(t *testing.T) {
	responder := &fakeResponder{reply: "chat reply"}
	sink := &fakeSink{}
	d, store := newDispatcher(responder, nil, sink, 3)
	ctx := context.Background()

	steps := []struct {
		message string
		reply   string
	}{
		{"hi", "chat reply"},
		{"how are you", "chat reply"},
		{"tell me more", lead.PromptName},
		{"Alice", lead.PromptPhone},
		{"555-1234", lead.PromptEmail},
		{"bad-email", lead.PromptEmailRetry},
		{"alice@example.com", lead.PromptLocation},
		{"skip", lead.ReplySaved},
	}
	for _, step := range steps {
		res, err := d.HandleTurn(ctx, "visitor", step.message, false)
		require.NoError(t, err, step.message)
		assert.Equal(t, step.reply, res.Reply, step.message)
	}

	assert.Equal(t, 2, responder.calls)
	require.Len(t, sink.records, 1)
	row := sink.records[0].Row()
	assert.Equal(t, []string{row[0], "Alice", "555-1234", "alice@example.com", "-"}, row)

	sess := store.Acquire("visitor")
	defer sess.Release()
	assert.Equal(t, session.ModeIdle, sess.Mode)
	assert.Equal(t, session.StepNone, sess.Step)
	assert.Equal(t, session.Draft{}, sess.Draft)
	assert.Equal(t, 0, sess.TurnCount)
}

func TestUnrecognizedStepFallsThroughToChat(t *testing.T) {
	responder := &fakeResponder{reply: "chat reply"}
	d, store := newDispatcher(responder, nil, &fakeSink{}, 5)

	sess := store.Acquire("v1")
	sess.Mode = session.ModeCollecting
	sess.Step = session.Step(42)
	sess.TurnCount = 1
	sess.Release()

	res, err := d.HandleTurn(context.Background(), "v1", "hello", false)
	require.NoError(t, err)
	assert.Equal(t, "chat reply", res.Reply)
	assert.Equal(t, 1, responder.calls)

	sess = store.Acquire("v1")
	defer sess.Release()
	assert.Equal(t, session.ModeIdle, sess.Mode)
	assert.Equal(t, 2, sess.TurnCount)
}
