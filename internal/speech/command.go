package speech

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// DefaultCommand is the speech synthesiser used when none is configured.
const DefaultCommand = "espeak"

// CommandEngine speaks through an external synthesiser binary that takes the
// text as its last argument.
type CommandEngine struct {
	path string
	args []string
}

// NewCommandEngine resolves name on PATH. Extra args go before the text.
func NewCommandEngine(name string, args ...string) (*CommandEngine, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("speech synthesiser %q not found: %w", name, err)
	}
	return &CommandEngine{path: path, args: args}, nil
}

func (e *CommandEngine) Speak(ctx context.Context, text string) (Utterance, error) {
	ctx, cancel := context.WithCancel(ctx)
	args := append(append([]string{}, e.args...), text)
	cmd := exec.CommandContext(ctx, e.path, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("could not start %s: %w", e.path, err)
	}
	u := &process{cmd: cmd, cancel: cancel, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(u.done)
	}()
	return u, nil
}

type process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (p *process) Pause() error  { return suspend(p.cmd.Process) }
func (p *process) Resume() error { return resume(p.cmd.Process) }

func (p *process) Stop() error {
	p.once.Do(func() {
		// A stopped process must be continued to receive the kill.
		_ = resume(p.cmd.Process)
		p.cancel()
	})
	<-p.done
	return nil
}

func (p *process) Done() <-chan struct{} { return p.done }
