package service

import (
	"context"
	"log/slog"

	"velym/backend/internal/realtime"
)

// publishChange emits a change event after a successful write. Delivery
// problems are logged; the write itself has already committed.
func publishChange(ctx context.Context, p realtime.Publisher, table string, typ realtime.EventType, ownerID string, scope map[string]string, record any) {
	if p == nil {
		return
	}
	ev, err := realtime.NewChangeEvent(table, typ, ownerID, scope, record)
	if err != nil {
		slog.Error("Failed to build change event", "table", table, "error", err)
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.Warn("Failed to publish change event", "table", table, "owner", ownerID, "error", err)
	}
}
