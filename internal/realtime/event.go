// Package realtime delivers row-level change notifications to subscribers,
// scoped to the row owner.
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType is the kind of change a notification describes.
type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Tables that publish change notifications. TableAuth carries session
// changes rather than row changes.
const (
	TableMessages      = "messages"
	TableConversations = "conversations"
	TableAssessments   = "health_assessments"
	TableProfiles      = "profiles"
	TableAuth          = "auth"
)

// ChangeEvent is a committed change to one row. Record holds the row after
// the change (before it, for deletes).
type ChangeEvent struct {
	ID         string            `json:"id"`
	Table      string            `json:"table"`
	Type       EventType         `json:"type"`
	OwnerID    string            `json:"owner_id"`
	Scope      map[string]string `json:"scope,omitempty"`
	Record     json.RawMessage   `json:"record,omitempty"`
	CommitTime time.Time         `json:"commit_time"`
}

// NewChangeEvent marshals record and stamps the event with an id and time.
func NewChangeEvent(table string, typ EventType, ownerID string, scope map[string]string, record any) (ChangeEvent, error) {
	ev := ChangeEvent{
		ID:         uuid.NewString(),
		Table:      table,
		Type:       typ,
		OwnerID:    ownerID,
		Scope:      scope,
		CommitTime: time.Now().UTC(),
	}
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return ChangeEvent{}, fmt.Errorf("could not marshal change record: %w", err)
		}
		ev.Record = raw
	}
	return ev, nil
}

// Decode unmarshals the event record into v.
func (e ChangeEvent) Decode(v any) error {
	if len(e.Record) == 0 {
		return fmt.Errorf("change event %s has no record", e.ID)
	}
	return json.Unmarshal(e.Record, v)
}

// Filter selects events of one table, optionally narrowed to a scope column
// equal to a value.
type Filter struct {
	Table  string `json:"table"`
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
}

// ParseFilter reads a filter expression of the form "column=eq.value". An
// empty expression matches the whole table.
func ParseFilter(table, expr string) (Filter, error) {
	if table == "" {
		return Filter{}, fmt.Errorf("filter table is required")
	}
	f := Filter{Table: table}
	if expr == "" {
		return f, nil
	}
	column, rest, ok := strings.Cut(expr, "=")
	value, isEq := strings.CutPrefix(rest, "eq.")
	if !ok || !isEq || column == "" || value == "" {
		return Filter{}, fmt.Errorf("unsupported filter %q, expected column=eq.value", expr)
	}
	f.Column = column
	f.Value = value
	return f, nil
}

// Expr renders the column part of the filter in ParseFilter syntax.
func (f Filter) Expr() string {
	if f.Column == "" {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

// Matches reports whether ev passes the filter.
func (f Filter) Matches(ev ChangeEvent) bool {
	if f.Table != ev.Table {
		return false
	}
	if f.Column == "" {
		return true
	}
	return ev.Scope[f.Column] == f.Value
}
