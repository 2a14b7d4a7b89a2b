package realtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velym/backend/internal/realtime"
)

func recvEvent(t *testing.T, sub *realtime.Subscription) realtime.ChangeEvent {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for change event")
	}
	return realtime.ChangeEvent{}
}

func assertNoEvent(t *testing.T, sub *realtime.Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func messageEvent(t *testing.T, owner, conversationID string) realtime.ChangeEvent {
	ev, err := realtime.NewChangeEvent(realtime.TableMessages, realtime.Insert, owner,
		map[string]string{"conversation_id": conversationID}, map[string]string{"id": "m1"})
	require.NoError(t, err)
	return ev
}

func TestHub_DeliversOnlyToOwnerAndFilter(t *testing.T) {
	hub := realtime.NewHub(4)
	ctx := context.Background()

	mine := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages, Column: "conversation_id", Value: "c1"})
	otherConversation := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages, Column: "conversation_id", Value: "c2"})
	otherUser := hub.Subscribe("bob", realtime.Filter{Table: realtime.TableMessages, Column: "conversation_id", Value: "c1"})
	wholeTable := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages})
	defer func() {
		for _, s := range []*realtime.Subscription{mine, otherConversation, otherUser, wholeTable} {
			_ = s.Close()
		}
	}()

	require.NoError(t, hub.Publish(ctx, messageEvent(t, "alice", "c1")))

	ev := recvEvent(t, mine)
	assert.Equal(t, realtime.Insert, ev.Type)
	var record map[string]string
	require.NoError(t, ev.Decode(&record))
	assert.Equal(t, "m1", record["id"])

	recvEvent(t, wholeTable)
	assertNoEvent(t, otherConversation)
	assertNoEvent(t, otherUser)
}

func TestHub_CloseDetaches(t *testing.T) {
	hub := realtime.NewHub(4)
	sub := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages})
	assert.Equal(t, 1, hub.Len())

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close(), "closing twice is harmless")
	assert.Equal(t, 0, hub.Len())

	_, ok := <-sub.Events()
	assert.False(t, ok, "events channel is closed")

	// Publishing after close must not panic.
	hub.Broadcast(messageEvent(t, "alice", "c1"))
}

func TestHub_CloseEndsAllSubscriptions(t *testing.T) {
	hub := realtime.NewHub(4)
	a := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages})
	b := hub.Subscribe("bob", realtime.Filter{Table: realtime.TableAssessments})

	hub.Close()
	hub.Close()

	assert.Equal(t, 0, hub.Len())
	for _, sub := range []*realtime.Subscription{a, b} {
		_, ok := <-sub.Events()
		assert.False(t, ok)
		require.NoError(t, sub.Close())
	}

	late := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages})
	_, ok := <-late.Events()
	assert.False(t, ok, "subscriptions after close end immediately")
	assert.Equal(t, 0, hub.Len())
}

func TestHub_DropsWhenSubscriberIsFull(t *testing.T) {
	hub := realtime.NewHub(1)
	sub := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages})
	defer func() { _ = sub.Close() }()

	hub.Broadcast(messageEvent(t, "alice", "c1"))
	hub.Broadcast(messageEvent(t, "alice", "c1"))

	recvEvent(t, sub)
	assertNoEvent(t, sub)

	select {
	case <-sub.Resync():
	default:
		t.Fatal("dropped event did not signal a resync")
	}
}

func TestHub_NoResyncWithoutDrops(t *testing.T) {
	hub := realtime.NewHub(4)
	sub := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages})
	defer func() { _ = sub.Close() }()

	hub.Broadcast(messageEvent(t, "alice", "c1"))
	recvEvent(t, sub)

	select {
	case <-sub.Resync():
		t.Fatal("unexpected resync signal")
	default:
	}
}

// loopbackBus stands in for Redis: published events are forwarded back.
type loopbackBus struct {
	mu      sync.Mutex
	onEvent func(realtime.ChangeEvent)
	fail    bool
	sent    int
}

func (b *loopbackBus) Publish(_ context.Context, ev realtime.ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("bus down")
	}
	b.sent++
	go b.onEvent(ev)
	return nil
}

func (b *loopbackBus) StartForwarder(_ context.Context, onEvent func(realtime.ChangeEvent)) error {
	b.onEvent = onEvent
	return nil
}

func (b *loopbackBus) Close() error { return nil }

func TestHub_UseBus(t *testing.T) {
	ctx := context.Background()

	t.Run("Events travel through the bus", func(t *testing.T) {
		hub := realtime.NewHub(4)
		bus := &loopbackBus{}
		require.NoError(t, hub.UseBus(ctx, bus))
		sub := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages})
		defer func() { _ = sub.Close() }()

		require.NoError(t, hub.Publish(ctx, messageEvent(t, "alice", "c1")))
		recvEvent(t, sub)
		assert.Equal(t, 1, bus.sent)
	})

	t.Run("Bus failure falls back to local delivery", func(t *testing.T) {
		hub := realtime.NewHub(4)
		require.NoError(t, hub.UseBus(ctx, &loopbackBus{fail: true}))
		sub := hub.Subscribe("alice", realtime.Filter{Table: realtime.TableMessages})
		defer func() { _ = sub.Close() }()

		require.NoError(t, hub.Publish(ctx, messageEvent(t, "alice", "c1")))
		recvEvent(t, sub)
	})
}

func TestParseFilter(t *testing.T) {
	f, err := realtime.ParseFilter(realtime.TableMessages, "conversation_id=eq.abc")
	require.NoError(t, err)
	assert.Equal(t, realtime.Filter{Table: realtime.TableMessages, Column: "conversation_id", Value: "abc"}, f)
	assert.Equal(t, "conversation_id=eq.abc", f.Expr())

	f, err = realtime.ParseFilter(realtime.TableProfiles, "")
	require.NoError(t, err)
	assert.Empty(t, f.Column)

	for _, bad := range []string{"conversation_id", "conversation_id=abc", "=eq.abc", "conversation_id=eq."} {
		_, err := realtime.ParseFilter(realtime.TableMessages, bad)
		assert.Error(t, err, bad)
	}

	_, err = realtime.ParseFilter("", "")
	assert.Error(t, err)
}

func TestNewRedisBus_RequiresAddress(t *testing.T) {
	_, err := realtime.NewRedisBus(context.Background(), "", "")
	assert.Error(t, err)
}
