package chatview_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velym/backend/internal/chatview"
	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/model"
	"velym/backend/internal/realtime"
)

const owner = "user-1"

type hubSubscriber struct{ hub *realtime.Hub }

func (s hubSubscriber) Subscribe(_ context.Context, f realtime.Filter) (chatview.Stream, error) {
	return s.hub.Subscribe(owner, f), nil
}

// lossyStream is a hub subscription whose resync signal the test controls.
type lossyStream struct {
	*realtime.Subscription
	resync chan struct{}
}

func (s lossyStream) Resync() <-chan struct{} { return s.resync }

type lossySubscriber struct {
	hub    *realtime.Hub
	resync chan struct{}
}

func (s lossySubscriber) Subscribe(_ context.Context, f realtime.Filter) (chatview.Stream, error) {
	return lossyStream{Subscription: s.hub.Subscribe(owner, f), resync: s.resync}, nil
}

// fakeBackend stores messages in memory and publishes them on the hub the
// way the chat service does.
type fakeBackend struct {
	hub *realtime.Hub

	mu       sync.Mutex
	convs    map[string][]model.Message
	sendErr  error
	failAI   bool
	clock    time.Time
	getHook  func()
	requests []model.SendMessageRequest
}

func newFakeBackend(hub *realtime.Hub) *fakeBackend {
	return &fakeBackend{hub: hub, convs: map[string][]model.Message{}, clock: t0}
}

func (b *fakeBackend) tick() time.Time {
	b.clock = b.clock.Add(time.Second)
	return b.clock
}

func (b *fakeBackend) publish(m model.Message) {
	ev, _ := realtime.NewChangeEvent(realtime.TableMessages, realtime.Insert, owner,
		map[string]string{"conversation_id": m.ConversationID}, m)
	_ = b.hub.Publish(context.Background(), ev)
}

func (b *fakeBackend) CreateConversation(_ context.Context) (*model.FullConversation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := fmt.Sprintf("conv-%d", len(b.convs)+1)
	welcome := model.Message{ID: id + "-welcome", ConversationID: id, Content: model.WelcomeMessage, CreatedAt: b.tick()}
	b.convs[id] = []model.Message{welcome}
	return &model.FullConversation{Conversation: model.Conversation{ID: id}, Messages: []model.Message{welcome}}, nil
}

func (b *fakeBackend) GetConversation(_ context.Context, id string) (*model.FullConversation, error) {
	if b.getHook != nil {
		b.getHook()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs, ok := b.convs[id]
	if !ok {
		return nil, app_errors.ErrNotFound
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return &model.FullConversation{Conversation: model.Conversation{ID: id}, Messages: out}, nil
}

func (b *fakeBackend) SendMessage(_ context.Context, id string, req model.SendMessageRequest) (*model.SendResult, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	if b.sendErr != nil {
		b.mu.Unlock()
		return nil, b.sendErr
	}
	user := model.Message{ID: req.ID, ConversationID: id, Content: req.Content, IsUser: true, CreatedAt: b.tick()}
	b.convs[id] = append(b.convs[id], user)
	b.mu.Unlock()
	b.publish(user)

	if b.failAI {
		return &model.SendResult{UserMessage: &user}, fmt.Errorf("%w: model offline", app_errors.ErrCompletion)
	}

	b.mu.Lock()
	reply := model.Message{ID: "reply-" + req.ID, ConversationID: id, Content: "Try to keep a regular schedule.", CreatedAt: b.tick()}
	b.convs[id] = append(b.convs[id], reply)
	b.mu.Unlock()
	b.publish(reply)
	return &model.SendResult{UserMessage: &user, AssistantMessage: &reply}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestView_OpenCreatesConversation(t *testing.T) {
	// ARRANGE
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)

	// ACT
	view, err := chatview.Open(context.Background(), backend, hubSubscriber{hub}, "")
	require.NoError(t, err)
	defer func() { _ = view.Close() }()

	// ASSERT
	assert.Equal(t, "conv-1", view.ConversationID())
	assert.Equal(t, chatview.Ready, view.Phase())
	require.Len(t, view.Messages(), 1)
	assert.Equal(t, model.WelcomeMessage, view.Messages()[0].Content)
	assert.Equal(t, 1, hub.Len())
}

func TestView_NotOwnedClosesAndDetaches(t *testing.T) {
	// ARRANGE
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)

	// ACT
	view, err := chatview.Open(context.Background(), backend, hubSubscriber{hub}, "someone-elses")

	// ASSERT
	assert.Nil(t, view)
	assert.ErrorIs(t, err, chatview.ErrNotOwned)
	assert.Equal(t, 0, hub.Len(), "the subscription must be released")
}

func TestView_SendDeduplicatesEcho(t *testing.T) {
	// ARRANGE
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)
	view, err := chatview.Open(context.Background(), backend, hubSubscriber{hub}, "")
	require.NoError(t, err)
	defer func() { _ = view.Close() }()

	// ACT
	view.SetComposer("How can I sleep better?")
	require.NoError(t, view.Send(context.Background()))

	// ASSERT: the echo of both writes arrives on the subscription too, but
	// every message is shown once.
	time.Sleep(50 * time.Millisecond)
	got := view.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, "How can I sleep better?", got[1].Content)
	assert.False(t, got[1].Pending)
	assert.Equal(t, "Try to keep a regular schedule.", got[2].Content)
	assert.Equal(t, got[1].ID, backend.requests[0].ID, "the client id is sent as the message id")
}

func TestView_SendFailureRollsBack(t *testing.T) {
	// ARRANGE
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)
	backend.sendErr = app_errors.ErrSaveFailed
	view, err := chatview.Open(context.Background(), backend, hubSubscriber{hub}, "")
	require.NoError(t, err)
	defer func() { _ = view.Close() }()

	// ACT
	view.SetComposer("Is coffee bad for me?")
	err = view.Send(context.Background())

	// ASSERT
	assert.ErrorIs(t, err, app_errors.ErrSaveFailed)
	assert.Len(t, view.Messages(), 1)
	assert.Equal(t, "Is coffee bad for me?", view.Composer())
	assert.NotEmpty(t, view.Notice())
}

func TestView_CompletionFailureKeepsMessage(t *testing.T) {
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)
	backend.failAI = true
	view, err := chatview.Open(context.Background(), backend, hubSubscriber{hub}, "")
	require.NoError(t, err)
	defer func() { _ = view.Close() }()

	view.SetComposer("Hello")
	err = view.Send(context.Background())

	assert.True(t, errors.Is(err, app_errors.ErrCompletion))
	got := view.Messages()
	require.Len(t, got, 2)
	assert.False(t, got[1].Pending)
	assert.Empty(t, view.Composer())
	assert.Equal(t, "Failed to get AI response. Please try again.", view.Notice())
}

func TestView_MergesOtherSessionsInOrder(t *testing.T) {
	// ARRANGE
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)
	full, _ := backend.CreateConversation(context.Background())
	view, err := chatview.Open(context.Background(), backend, hubSubscriber{hub}, full.ID)
	require.NoError(t, err)
	defer func() { _ = view.Close() }()

	// ACT: a second session writes two messages that arrive newest first.
	later := model.Message{ID: "c", ConversationID: full.ID, Content: "second", CreatedAt: t0.Add(time.Minute)}
	earlier := model.Message{ID: "b", ConversationID: full.ID, Content: "first", CreatedAt: t0.Add(30 * time.Second)}
	backend.publish(later)
	backend.publish(earlier)

	// ASSERT
	waitFor(t, func() bool { return len(view.Messages()) == 3 })
	assert.Equal(t, []string{full.ID + "-welcome", "b", "c"}, ids(view.Messages()))
}

func TestView_BuffersEventsDuringLoad(t *testing.T) {
	// ARRANGE: a message is pushed while the history query is in flight and
	// is not part of the history it returns.
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)
	full, _ := backend.CreateConversation(context.Background())
	pushed := model.Message{ID: "late", ConversationID: full.ID, Content: "from elsewhere", CreatedAt: t0.Add(time.Hour)}
	backend.getHook = func() {
		backend.publish(pushed)
		time.Sleep(20 * time.Millisecond)
	}

	// ACT
	view, err := chatview.Open(context.Background(), backend, hubSubscriber{hub}, full.ID)
	require.NoError(t, err)
	defer func() { _ = view.Close() }()

	// ASSERT
	waitFor(t, func() bool { return len(view.Messages()) == 2 })
	assert.Equal(t, "late", view.Messages()[1].ID)
}

func TestView_CloseDetaches(t *testing.T) {
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)
	view, err := chatview.Open(context.Background(), backend, hubSubscriber{hub}, "")
	require.NoError(t, err)
	require.Equal(t, 1, hub.Len())

	require.NoError(t, view.Close())
	require.NoError(t, view.Close())

	assert.Equal(t, 0, hub.Len())
}

func TestView_ResyncReloadsMissedMessages(t *testing.T) {
	// ARRANGE: a message is stored without its notification reaching the view.
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)
	sub := lossySubscriber{hub: hub, resync: make(chan struct{}, 1)}
	view, err := chatview.Open(context.Background(), backend, sub, "")
	require.NoError(t, err)
	defer func() { _ = view.Close() }()

	backend.mu.Lock()
	missed := model.Message{ID: "missed", ConversationID: view.ConversationID(), Content: "sent elsewhere", IsUser: true, CreatedAt: backend.tick()}
	backend.convs[view.ConversationID()] = append(backend.convs[view.ConversationID()], missed)
	backend.mu.Unlock()
	require.Len(t, view.Messages(), 1)

	// ACT
	sub.resync <- struct{}{}

	// ASSERT
	waitFor(t, func() bool { return len(view.Messages()) == 2 })
	assert.Equal(t, "missed", view.Messages()[1].ID)
}

func TestView_ResyncClosesDeletedConversation(t *testing.T) {
	hub := realtime.NewHub(0)
	backend := newFakeBackend(hub)
	sub := lossySubscriber{hub: hub, resync: make(chan struct{}, 1)}
	view, err := chatview.Open(context.Background(), backend, sub, "")
	require.NoError(t, err)
	defer func() { _ = view.Close() }()

	backend.mu.Lock()
	delete(backend.convs, view.ConversationID())
	backend.mu.Unlock()
	sub.resync <- struct{}{}

	waitFor(t, func() bool { return view.Phase() == chatview.Closed })
	assert.Empty(t, view.Messages())
}
