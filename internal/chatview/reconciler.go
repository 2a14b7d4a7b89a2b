// Package chatview keeps a client's copy of one conversation transcript
// consistent while messages arrive from three sources: the initial load, the
// user's own optimistic sends, and pushed change notifications.
package chatview

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"velym/backend/internal/model"
)

// Phase is the lifecycle state of a conversation view.
type Phase int

const (
	Loading Phase = iota
	Ready
	Closed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Entry is a message as displayed. Pending entries were created locally and
// have not been confirmed by the server yet.
type Entry struct {
	model.Message
	Pending bool `json:"pending"`
}

// Reconciler is the transcript state of one conversation. It is not safe
// for concurrent use; View serialises access to it.
type Reconciler struct {
	conversationID string
	phase          Phase
	entries        []Entry
	buffered       []model.Message
	composer       string
	notice         string
	// drafts holds the composer text, untrimmed, behind each pending entry.
	drafts map[string]string

	now   func() time.Time
	newID func() string
}

func NewReconciler(conversationID string) *Reconciler {
	return &Reconciler{
		conversationID: conversationID,
		phase:          Loading,
		drafts:         make(map[string]string),
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

func (r *Reconciler) ConversationID() string { return r.conversationID }

func (r *Reconciler) Phase() Phase { return r.phase }

// Messages returns a copy of the displayed sequence.
func (r *Reconciler) Messages() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Reconciler) Composer() string { return r.composer }

func (r *Reconciler) SetComposer(s string) {
	if r.phase == Closed {
		return
	}
	r.composer = s
}

// Notice is the last non-fatal problem to show the user, if any.
func (r *Reconciler) Notice() string { return r.notice }

func (r *Reconciler) SetNotice(s string) { r.notice = s }

// Ready installs the loaded history and merges notifications that arrived
// while loading.
func (r *Reconciler) Ready(history []model.Message) {
	if r.phase != Loading {
		return
	}
	r.phase = Ready
	r.entries = r.entries[:0]
	for _, m := range history {
		r.merge(m)
	}
	for _, m := range r.buffered {
		r.merge(m)
	}
	r.buffered = nil
	r.sort()
}

// Send moves the composer content into a pending entry and clears the
// composer. It reports false when there is nothing to send or the view is
// not ready.
func (r *Reconciler) Send() (Entry, bool) {
	if r.phase != Ready || strings.TrimSpace(r.composer) == "" {
		return Entry{}, false
	}
	e := Entry{
		Message: model.Message{
			ID:             r.newID(),
			ConversationID: r.conversationID,
			Content:        strings.TrimSpace(r.composer),
			IsUser:         true,
			CreatedAt:      r.now(),
		},
		Pending: true,
	}
	r.drafts[e.ID] = r.composer
	r.composer = ""
	r.notice = ""
	r.entries = append(r.entries, e)
	r.sort()
	return e, true
}

// Reconcile merges a freshly loaded history into a ready view. Entries
// already shown are kept; stored copies confirm pending ones. It reports
// whether the displayed sequence changed.
func (r *Reconciler) Reconcile(history []model.Message) bool {
	if r.phase != Ready {
		return false
	}
	changed := false
	for _, m := range history {
		if m.ConversationID != "" && m.ConversationID != r.conversationID {
			continue
		}
		if r.merge(m) {
			changed = true
		}
	}
	if changed {
		r.sort()
	}
	return changed
}

// Confirm replaces the pending entry with the stored record.
func (r *Reconciler) Confirm(m model.Message) {
	if r.phase != Ready {
		return
	}
	r.merge(m)
	r.sort()
}

// Rollback removes a pending entry whose write failed and puts the text
// exactly as typed back into the composer.
func (r *Reconciler) Rollback(id string) bool {
	for i, e := range r.entries {
		if e.ID != id || !e.Pending {
			continue
		}
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
		r.composer = e.Content
		if draft, ok := r.drafts[id]; ok {
			r.composer = draft
			delete(r.drafts, id)
		}
		return true
	}
	return false
}

// ApplyRemote merges a pushed message. It reports whether the displayed
// sequence changed.
func (r *Reconciler) ApplyRemote(m model.Message) bool {
	if m.ConversationID != r.conversationID {
		return false
	}
	switch r.phase {
	case Loading:
		r.buffered = append(r.buffered, m)
		return false
	case Ready:
		changed := r.merge(m)
		if changed {
			r.sort()
		}
		return changed
	default:
		return false
	}
}

// Terminate closes the view and drops its state. A closed reconciler
// ignores every further event.
func (r *Reconciler) Terminate() {
	r.phase = Closed
	r.entries = nil
	r.buffered = nil
	r.drafts = make(map[string]string)
	r.composer = ""
	r.notice = ""
}

// merge inserts m or confirms the pending entry with the same id.
func (r *Reconciler) merge(m model.Message) bool {
	for i := range r.entries {
		if r.entries[i].ID != m.ID {
			continue
		}
		if !r.entries[i].Pending {
			return false
		}
		r.entries[i] = Entry{Message: m}
		delete(r.drafts, m.ID)
		return true
	}
	r.entries = append(r.entries, Entry{Message: m})
	return true
}

func (r *Reconciler) sort() {
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].CreatedAt.Before(r.entries[j].CreatedAt)
	})
}
