// Package speech reads assistant messages aloud. One utterance plays at a
// time; toggling the same message pauses and resumes it.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrUnsupported is returned by engines that cannot pause on this platform.
var ErrUnsupported = errors.New("speech control not supported on this platform")

// State of the player.
type State int

const (
	Idle State = iota
	Speaking
	Paused
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Speaking:
		return "speaking"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Utterance is one text being spoken.
type Utterance interface {
	Pause() error
	Resume() error
	Stop() error
	// Done is closed when playback finishes or is stopped.
	Done() <-chan struct{}
}

// Engine starts utterances.
type Engine interface {
	Speak(ctx context.Context, text string) (Utterance, error)
}

// Player controls a single active utterance, keyed by message id.
type Player struct {
	engine Engine

	mu      sync.Mutex
	id      string
	current Utterance
	state   State
}

func NewPlayer(engine Engine) *Player {
	return &Player{engine: engine}
}

// Status returns the id of the last toggled message and the player state.
func (p *Player) Status() (string, State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id, p.state
}

// Toggle controls playback of message id. For the message already playing
// it pauses or resumes. Any other id stops the current utterance and starts
// speaking text.
func (p *Player) Toggle(ctx context.Context, id, text string) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id == p.id && p.current != nil {
		switch p.state {
		case Speaking:
			if err := p.current.Pause(); err != nil {
				return p.state, fmt.Errorf("could not pause speech: %w", err)
			}
			p.state = Paused
			return p.state, nil
		case Paused:
			if err := p.current.Resume(); err != nil {
				return p.state, fmt.Errorf("could not resume speech: %w", err)
			}
			p.state = Speaking
			return p.state, nil
		}
		// Ended: speak it again from the start.
	}

	p.stopLocked()
	u, err := p.engine.Speak(ctx, text)
	if err != nil {
		p.id, p.state = "", Idle
		return Idle, fmt.Errorf("could not start speech: %w", err)
	}
	p.id, p.current, p.state = id, u, Speaking
	go p.watch(u)
	return Speaking, nil
}

// Stop cancels the current utterance, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.id, p.state = "", Idle
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	if err := p.current.Stop(); err != nil {
		slog.Debug("Failed to stop utterance", "id", p.id, "error", err)
	}
	p.current = nil
}

// watch marks the utterance ended when it finishes on its own.
func (p *Player) watch(u Utterance) {
	<-u.Done()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == u {
		p.state = Ended
	}
}
