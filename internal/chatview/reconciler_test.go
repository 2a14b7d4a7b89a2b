package chatview_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velym/backend/internal/chatview"
	"velym/backend/internal/model"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func msg(id string, offset time.Duration, isUser bool) model.Message {
	return model.Message{ID: id, ConversationID: "c1", Content: "content " + id, IsUser: isUser, CreatedAt: t0.Add(offset)}
}

func ids(entries []chatview.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func readyReconciler(history ...model.Message) *chatview.Reconciler {
	r := chatview.NewReconciler("c1")
	r.Ready(history)
	return r
}

func TestReconciler_LoadingBuffersRemote(t *testing.T) {
	// ARRANGE
	r := chatview.NewReconciler("c1")
	require.Equal(t, chatview.Loading, r.Phase())

	// ACT: a push arrives before the history query returns, and the history
	// already contains it.
	assert.False(t, r.ApplyRemote(msg("b", 2*time.Second, false)))
	r.Ready([]model.Message{msg("a", time.Second, true), msg("b", 2*time.Second, false)})

	// ASSERT
	assert.Equal(t, chatview.Ready, r.Phase())
	assert.Equal(t, []string{"a", "b"}, ids(r.Messages()))
}

func TestReconciler_OrdersByCreationTime(t *testing.T) {
	// ARRANGE: A is loaded, then C and B arrive out of order from another
	// session.
	r := readyReconciler(msg("A", time.Second, true))

	// ACT
	assert.True(t, r.ApplyRemote(msg("C", 3*time.Second, false)))
	assert.True(t, r.ApplyRemote(msg("B", 2*time.Second, true)))

	// ASSERT
	assert.Equal(t, []string{"A", "B", "C"}, ids(r.Messages()))
}

func TestReconciler_EqualTimestampsKeepArrivalOrder(t *testing.T) {
	r := readyReconciler()

	r.ApplyRemote(msg("x", time.Second, true))
	r.ApplyRemote(msg("y", time.Second, false))

	assert.Equal(t, []string{"x", "y"}, ids(r.Messages()))
}

func TestReconciler_DeduplicatesRemoteEcho(t *testing.T) {
	// ARRANGE
	r := readyReconciler(msg("welcome", 0, false))
	r.SetComposer("  How much water should I drink?  ")

	// ACT: send locally, then receive the echo of the same write twice.
	pending, ok := r.Send()
	require.True(t, ok)
	assert.Equal(t, "", r.Composer())
	require.Len(t, r.Messages(), 2)
	assert.True(t, r.Messages()[1].Pending)

	stored := pending.Message
	stored.CreatedAt = t0.Add(5 * time.Second)
	assert.True(t, r.ApplyRemote(stored))
	assert.False(t, r.ApplyRemote(stored))

	// ASSERT
	got := r.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, pending.ID, got[1].ID)
	assert.False(t, got[1].Pending)
	assert.Equal(t, "How much water should I drink?", got[1].Content)
	assert.Equal(t, stored.CreatedAt, got[1].CreatedAt)
}

func TestReconciler_ConfirmAfterEchoIsNoop(t *testing.T) {
	r := readyReconciler()
	r.SetComposer("hi")
	pending, _ := r.Send()

	r.ApplyRemote(pending.Message)
	r.Confirm(pending.Message)

	require.Len(t, r.Messages(), 1)
	assert.False(t, r.Messages()[0].Pending)
}

func TestReconciler_RollbackRestoresComposer(t *testing.T) {
	// ARRANGE
	r := readyReconciler(msg("welcome", 0, false))
	r.SetComposer("I slept badly")
	pending, ok := r.Send()
	require.True(t, ok)

	// ACT
	assert.True(t, r.Rollback(pending.ID))

	// ASSERT
	assert.Equal(t, []string{"welcome"}, ids(r.Messages()))
	assert.Equal(t, "I slept badly", r.Composer())
	assert.False(t, r.Rollback(pending.ID), "a second rollback finds nothing")
}

func TestReconciler_RollbackRestoresUntrimmedComposer(t *testing.T) {
	// ARRANGE: the typed text has surrounding whitespace and newlines.
	typed := "  line one\n  indented line two\n"
	r := readyReconciler()
	r.SetComposer(typed)
	pending, ok := r.Send()
	require.True(t, ok)
	assert.Equal(t, "line one\n  indented line two", pending.Content, "the sent content is trimmed")

	// ACT
	require.True(t, r.Rollback(pending.ID))

	// ASSERT
	assert.Equal(t, typed, r.Composer())
	assert.Empty(t, r.Messages())
}

func TestReconciler_RemoteBetweenLocalSends(t *testing.T) {
	// ARRANGE: two local sends with a remote message created between them.
	r := readyReconciler()
	r.SetComposer("A")
	a, ok := r.Send()
	require.True(t, ok)
	time.Sleep(time.Millisecond)
	middle := time.Now()
	time.Sleep(time.Millisecond)
	r.SetComposer("B")
	b, ok := r.Send()
	require.True(t, ok)

	// ACT
	c := model.Message{ID: "C", ConversationID: "c1", Content: "from another session", CreatedAt: middle}
	assert.True(t, r.ApplyRemote(c))

	// ASSERT
	assert.Equal(t, []string{a.ID, "C", b.ID}, ids(r.Messages()))
	assert.True(t, r.Messages()[0].Pending)
	assert.False(t, r.Messages()[1].Pending)
	assert.True(t, r.Messages()[2].Pending)
}

func TestReconciler_ReconcileMergesMissedMessages(t *testing.T) {
	// ARRANGE: B was never pushed and the local send is still pending.
	r := readyReconciler(msg("A", time.Second, true))
	r.SetComposer("D")
	pending, ok := r.Send()
	require.True(t, ok)
	stored := pending.Message
	stored.CreatedAt = t0.Add(4 * time.Second)

	// ACT
	changed := r.Reconcile([]model.Message{
		msg("A", time.Second, true),
		msg("B", 2*time.Second, false),
		stored,
	})

	// ASSERT
	assert.True(t, changed)
	assert.Equal(t, []string{"A", "B", pending.ID}, ids(r.Messages()))
	for _, e := range r.Messages() {
		assert.False(t, e.Pending, e.ID)
	}
	assert.False(t, r.Reconcile([]model.Message{msg("A", time.Second, true)}), "nothing new")
}

func TestReconciler_ReconcileIgnoredWhileLoading(t *testing.T) {
	r := chatview.NewReconciler("c1")

	assert.False(t, r.Reconcile([]model.Message{msg("A", time.Second, true)}))
	assert.Empty(t, r.Messages())
}

func TestReconciler_RollbackIgnoresConfirmed(t *testing.T) {
	r := readyReconciler()
	r.SetComposer("hello")
	pending, _ := r.Send()
	r.Confirm(pending.Message)

	assert.False(t, r.Rollback(pending.ID))
	assert.Len(t, r.Messages(), 1)
}

func TestReconciler_IgnoresOtherConversations(t *testing.T) {
	r := readyReconciler()
	other := msg("z", time.Second, false)
	other.ConversationID = "c2"

	assert.False(t, r.ApplyRemote(other))
	assert.Empty(t, r.Messages())
}

func TestReconciler_SendRequiresContentAndReady(t *testing.T) {
	loading := chatview.NewReconciler("c1")
	loading.SetComposer("hi")
	_, ok := loading.Send()
	assert.False(t, ok)

	r := readyReconciler()
	r.SetComposer("   ")
	_, ok = r.Send()
	assert.False(t, ok)
	assert.Empty(t, r.Messages())
}

func TestReconciler_Terminate(t *testing.T) {
	r := readyReconciler(msg("a", 0, true))
	r.SetComposer("draft")

	r.Terminate()

	assert.Equal(t, chatview.Closed, r.Phase())
	assert.Empty(t, r.Messages())
	assert.Empty(t, r.Composer())
	assert.False(t, r.ApplyRemote(msg("b", time.Second, false)))
	r.Ready([]model.Message{msg("c", 0, false)})
	assert.Equal(t, chatview.Closed, r.Phase())
	assert.Empty(t, r.Messages())
}
