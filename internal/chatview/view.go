package chatview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/model"
	"velym/backend/internal/realtime"
)

// ErrNotOwned means the conversation does not exist for the current user.
// The view is closed and the caller should navigate away.
var ErrNotOwned = errors.New("conversation not found or not owned by the current user")

// Backend is the part of the chat API a view needs.
type Backend interface {
	CreateConversation(ctx context.Context) (*model.FullConversation, error)
	GetConversation(ctx context.Context, conversationID string) (*model.FullConversation, error)
	SendMessage(ctx context.Context, conversationID string, req model.SendMessageRequest) (*model.SendResult, error)
}

// Stream is an open change subscription.
type Stream interface {
	Events() <-chan realtime.ChangeEvent
	Close() error
}

// Resyncer is implemented by streams that can lose events. A signal means
// the view reloads the conversation and merges what it missed.
type Resyncer interface {
	Resync() <-chan struct{}
}

// Subscriber opens change subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, f realtime.Filter) (Stream, error)
}

// View is one open conversation. Exactly one message subscription is held
// from Open until Close.
type View struct {
	backend Backend

	mu    sync.Mutex
	state *Reconciler

	stream  Stream
	updates chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	closing sync.Once
}

// Open loads a conversation, creating one when conversationID is empty. It
// returns ErrNotOwned when the conversation is missing or belongs to someone
// else.
func Open(ctx context.Context, backend Backend, sub Subscriber, conversationID string) (*View, error) {
	if conversationID == "" {
		full, err := backend.CreateConversation(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not create conversation: %w", err)
		}
		conversationID = full.ID
	}

	filter := realtime.Filter{Table: realtime.TableMessages, Column: "conversation_id", Value: conversationID}
	stream, err := sub.Subscribe(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to messages: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	v := &View{
		backend: backend,
		state:   NewReconciler(conversationID),
		stream:  stream,
		updates: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	// Listen before loading so nothing pushed during the load is lost.
	go v.listen(loopCtx)

	full, err := backend.GetConversation(ctx, conversationID)
	if err != nil {
		v.mu.Lock()
		v.state.Terminate()
		v.mu.Unlock()
		_ = v.Close()
		if errors.Is(err, app_errors.ErrNotFound) || errors.Is(err, app_errors.ErrPermission) {
			return nil, ErrNotOwned
		}
		return nil, fmt.Errorf("could not load conversation: %w", err)
	}

	v.mu.Lock()
	v.state.Ready(full.Messages)
	v.mu.Unlock()
	v.notify()
	return v, nil
}

func (v *View) listen(ctx context.Context) {
	defer close(v.done)
	events := v.stream.Events()
	var resync <-chan struct{}
	if r, ok := v.stream.(Resyncer); ok {
		resync = r.Resync()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-resync:
			v.reload(ctx)
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != realtime.Insert {
				continue
			}
			var m model.Message
			if err := ev.Decode(&m); err != nil {
				slog.Warn("Ignoring undecodable message event", "event_id", ev.ID, "error", err)
				continue
			}
			v.mu.Lock()
			changed := v.state.ApplyRemote(m)
			v.mu.Unlock()
			if changed {
				v.notify()
			}
		}
	}
}

// reload fetches the conversation and merges messages whose notifications
// were missed. A conversation that is gone closes the view.
func (v *View) reload(ctx context.Context) {
	v.mu.Lock()
	convID := v.state.ConversationID()
	v.mu.Unlock()

	full, err := v.backend.GetConversation(ctx, convID)
	if err != nil {
		if errors.Is(err, app_errors.ErrNotFound) || errors.Is(err, app_errors.ErrPermission) {
			v.mu.Lock()
			v.state.Terminate()
			v.mu.Unlock()
			v.notify()
			return
		}
		slog.Warn("Could not reload conversation after missed events", "conversation_id", convID, "error", err)
		return
	}

	v.mu.Lock()
	changed := v.state.Reconcile(full.Messages)
	v.mu.Unlock()
	if changed {
		v.notify()
	}
}

func (v *View) notify() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}

// Updates signals that the transcript or composer changed. Signals
// coalesce; read the state after each one.
func (v *View) Updates() <-chan struct{} { return v.updates }

func (v *View) ConversationID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.ConversationID()
}

func (v *View) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Phase()
}

func (v *View) Messages() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Messages()
}

func (v *View) Composer() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Composer()
}

func (v *View) SetComposer(s string) {
	v.mu.Lock()
	v.state.SetComposer(s)
	v.mu.Unlock()
}

func (v *View) Notice() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Notice()
}

// Send posts the composer content. The message shows immediately as pending.
// If the write fails the entry is removed and the composer restored. If only
// the assistant reply fails, the stored message stays and a notice is set.
func (v *View) Send(ctx context.Context) error {
	v.mu.Lock()
	entry, ok := v.state.Send()
	convID := v.state.ConversationID()
	v.mu.Unlock()
	if !ok {
		return nil
	}
	v.notify()

	res, err := v.backend.SendMessage(ctx, convID, model.SendMessageRequest{ID: entry.ID, Content: entry.Content})
	v.mu.Lock()
	defer func() {
		v.mu.Unlock()
		v.notify()
	}()

	if err != nil && errors.Is(err, app_errors.ErrCompletion) && res != nil && res.UserMessage != nil {
		v.state.Confirm(*res.UserMessage)
		v.state.SetNotice("Failed to get AI response. Please try again.")
		return err
	}
	if err != nil {
		v.state.Rollback(entry.ID)
		v.state.SetNotice("Failed to send message. Please try again.")
		return err
	}
	if res.UserMessage != nil {
		v.state.Confirm(*res.UserMessage)
	}
	if res.AssistantMessage != nil {
		v.state.Confirm(*res.AssistantMessage)
	}
	return nil
}

// Close detaches the subscription and waits for the listener to stop. It is
// safe to call more than once.
func (v *View) Close() error {
	var err error
	v.closing.Do(func() {
		v.cancel()
		err = v.stream.Close()
		<-v.done
	})
	return err
}
