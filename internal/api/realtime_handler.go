package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/realtime"
)

// HeartbeatInterval keeps idle change streams open through proxies.
const HeartbeatInterval = 15 * time.Second

// ChangeFeed is the subscribe side of the realtime hub.
type ChangeFeed interface {
	Subscribe(ownerID string, f realtime.Filter) *realtime.Subscription
}

// RealtimeHandler streams change events for the caller's rows, over
// Server-Sent Events or a WebSocket.
type RealtimeHandler struct {
	feed          ChangeFeed
	heartbeat     time.Duration
	allowedOrigin string
}

func NewRealtimeHandler(feed ChangeFeed, allowedOrigin string) *RealtimeHandler {
	return &RealtimeHandler{feed: feed, heartbeat: HeartbeatInterval, allowedOrigin: allowedOrigin}
}

func subscriptionFilter(r *http.Request) (realtime.Filter, error) {
	q := r.URL.Query()
	f, err := realtime.ParseFilter(q.Get("table"), q.Get("filter"))
	if err != nil {
		return realtime.Filter{}, fmt.Errorf("%w: %v", app_errors.ErrValidation, err)
	}
	switch f.Table {
	case realtime.TableMessages, realtime.TableConversations, realtime.TableAssessments,
		realtime.TableProfiles, realtime.TableAuth:
		return f, nil
	}
	return realtime.Filter{}, fmt.Errorf("%w: unknown table %q", app_errors.ErrValidation, f.Table)
}

// Stream godoc
// @Summary      Subscribe to row changes (SSE)
// @Description  Streams `change` events for one table, optionally filtered with `column=eq.value`. Only changes to the caller's rows are delivered. A `resync` event means events were dropped and the client should reload.
// @Tags         Realtime
// @Produce      text/event-stream
// @Param        table   query  string  true   "messages, conversations, health_assessments, profiles or auth"
// @Param        filter  query  string  false  "e.g. conversation_id=eq.<id>"
// @Success      200     {object}  realtime.ChangeEvent
// @Failure      400     {object}  ErrorResponse
// @Router       /v1/realtime [get]
func (h *RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	f, err := subscriptionFilter(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, fmt.Errorf("%w: streaming is not supported", app_errors.ErrUnavailable))
		return
	}

	sub := h.feed.Subscribe(id.UserID, f)
	defer func() { _ = sub.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := writeStreamEvent(w, "subscribed", f); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Change stream closed by client", "user_id", id.UserID, "table", f.Table)
			return
		case <-ticker.C:
			if err := writeStreamComment(w, "ping"); err != nil {
				return
			}
		case <-sub.Resync():
			if err := writeStreamEvent(w, "resync", f); err != nil {
				return
			}
		case ev, open := <-sub.Events():
			if !open {
				sendStreamError(w, "The server closed the subscription. Please reconnect.")
				return
			}
			if err := writeStreamEvent(w, "change", ev); err != nil {
				slog.Debug("Change stream write failed", "user_id", id.UserID, "error", err)
				return
			}
		}
	}
}

// StreamWebSocket godoc
// @Summary      Subscribe to row changes (WebSocket)
// @Description  Same feed as /v1/realtime, delivered as JSON text frames.
// @Tags         Realtime
// @Param        table   query  string  true   "Table name"
// @Param        filter  query  string  false  "column=eq.value"
// @Router       /v1/realtime/ws [get]
func (h *RealtimeHandler) StreamWebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	f, err := subscriptionFilter(r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	opts := &websocket.AcceptOptions{}
	if h.allowedOrigin != "" {
		opts.OriginPatterns = []string{h.allowedOrigin}
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", id.UserID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "subscription ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", id.UserID)
		}
	}()

	sub := h.feed.Subscribe(id.UserID, f)
	defer func() { _ = sub.Close() }()

	// Clients never send; CloseRead cancels ctx when they go away.
	ctx := ws.CloseRead(r.Context())

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.Debug("WebSocket ping failed", "user_id", id.UserID, "error", err)
				return
			}
		case ev, open := <-sub.Events():
			if !open {
				_ = ws.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Error("Failed to marshal change event", "error", err)
				continue
			}
			if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
				slog.Debug("WebSocket write error", "user_id", id.UserID, "error", err)
				return
			}
		}
	}
}
