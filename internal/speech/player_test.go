package speech_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velym/backend/internal/speech"
)

type fakeUtterance struct {
	text string

	mu      sync.Mutex
	paused  bool
	stopped bool
	done    chan struct{}
	once    sync.Once
}

func (u *fakeUtterance) Pause() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paused = true
	return nil
}

func (u *fakeUtterance) Resume() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paused = false
	return nil
}

func (u *fakeUtterance) Stop() error {
	u.mu.Lock()
	u.stopped = true
	u.mu.Unlock()
	u.finish()
	return nil
}

func (u *fakeUtterance) finish() { u.once.Do(func() { close(u.done) }) }

func (u *fakeUtterance) Done() <-chan struct{} { return u.done }

type fakeEngine struct {
	mu     sync.Mutex
	spoken []*fakeUtterance
	err    error
}

func (e *fakeEngine) Speak(_ context.Context, text string) (speech.Utterance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	u := &fakeUtterance{text: text, done: make(chan struct{})}
	e.spoken = append(e.spoken, u)
	return u, nil
}

func TestPlayer_ToggleSameMessage(t *testing.T) {
	// ARRANGE
	engine := &fakeEngine{}
	p := speech.NewPlayer(engine)
	ctx := context.Background()

	// ACT / ASSERT: speak, pause, resume.
	state, err := p.Toggle(ctx, "m1", "Drink water regularly.")
	require.NoError(t, err)
	assert.Equal(t, speech.Speaking, state)

	state, err = p.Toggle(ctx, "m1", "Drink water regularly.")
	require.NoError(t, err)
	assert.Equal(t, speech.Paused, state)
	assert.True(t, engine.spoken[0].paused)

	state, err = p.Toggle(ctx, "m1", "Drink water regularly.")
	require.NoError(t, err)
	assert.Equal(t, speech.Speaking, state)
	assert.False(t, engine.spoken[0].paused)
	assert.Len(t, engine.spoken, 1)
}

func TestPlayer_ToggleOtherMessageCancelsPrevious(t *testing.T) {
	engine := &fakeEngine{}
	p := speech.NewPlayer(engine)
	ctx := context.Background()

	_, err := p.Toggle(ctx, "m1", "first")
	require.NoError(t, err)
	state, err := p.Toggle(ctx, "m2", "second")
	require.NoError(t, err)

	assert.Equal(t, speech.Speaking, state)
	require.Len(t, engine.spoken, 2)
	assert.True(t, engine.spoken[0].stopped)
	assert.False(t, engine.spoken[1].stopped)
	id, _ := p.Status()
	assert.Equal(t, "m2", id)
}

func TestPlayer_EndedThenReplay(t *testing.T) {
	// ARRANGE
	engine := &fakeEngine{}
	p := speech.NewPlayer(engine)
	ctx := context.Background()
	_, err := p.Toggle(ctx, "m1", "text")
	require.NoError(t, err)

	// ACT: playback finishes on its own.
	engine.spoken[0].finish()

	// ASSERT
	require.Eventually(t, func() bool {
		_, s := p.Status()
		return s == speech.Ended
	}, time.Second, 5*time.Millisecond)

	state, err := p.Toggle(ctx, "m1", "text")
	require.NoError(t, err)
	assert.Equal(t, speech.Speaking, state)
	assert.Len(t, engine.spoken, 2)
}

func TestPlayer_EngineFailure(t *testing.T) {
	p := speech.NewPlayer(&fakeEngine{err: errors.New("no audio device")})

	state, err := p.Toggle(context.Background(), "m1", "text")

	assert.Error(t, err)
	assert.Equal(t, speech.Idle, state)
}

func TestPlayer_Stop(t *testing.T) {
	engine := &fakeEngine{}
	p := speech.NewPlayer(engine)
	_, err := p.Toggle(context.Background(), "m1", "text")
	require.NoError(t, err)

	p.Stop()

	id, state := p.Status()
	assert.Empty(t, id)
	assert.Equal(t, speech.Idle, state)
	assert.True(t, engine.spoken[0].stopped)
}
