package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"velym/backend/internal/chatview"
	"velym/backend/internal/realtime"
)

// maxEventSize bounds one SSE data line.
const maxEventSize = 1 << 20

// EventStream is a change subscription over Server-Sent Events. It
// reconnects with exponential backoff when the connection drops.
type EventStream struct {
	events chan realtime.ChangeEvent
	resync chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *EventStream) Events() <-chan realtime.ChangeEvent { return s.events }

// Resync signals that events may have been missed: the server dropped some
// or the connection was re-established. Signals coalesce.
func (s *EventStream) Resync() <-chan struct{} { return s.resync }

func (s *EventStream) signalResync() {
	select {
	case s.resync <- struct{}{}:
	default:
	}
}

// Close stops the stream and waits for its reader to exit.
func (s *EventStream) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// Subscribe opens a change stream for f. The first connection is made before
// Subscribe returns so a rejected filter or session fails fast.
func (c *Client) Subscribe(ctx context.Context, f realtime.Filter) (chatview.Stream, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)
	body, err := c.connect(streamCtx, f)
	stop()
	if err != nil {
		cancel()
		return nil, err
	}
	s := &EventStream{
		events: make(chan realtime.ChangeEvent, realtime.DefaultBuffer),
		resync: make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(streamCtx, s, f, body)
	return s, nil
}

func (c *Client) connect(ctx context.Context, f realtime.Filter) (io.ReadCloser, error) {
	q := url.Values{}
	q.Set("table", f.Table)
	if expr := f.Expr(); expr != "" {
		q.Set("filter", expr)
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/realtime?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not open change stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, &apiError{Status: resp.StatusCode, Message: e.Error, kind: errorKind(resp.StatusCode, e.Error)}
	}
	return resp.Body, nil
}

func (c *Client) run(ctx context.Context, s *EventStream, f realtime.Filter, body io.ReadCloser) {
	defer close(s.done)
	defer close(s.events)

	for {
		err := readEvents(ctx, body, s.events, s.signalResync)
		_ = body.Close()
		if ctx.Err() != nil {
			return
		}
		slog.Debug("Change stream dropped, reconnecting", "table", f.Table, "error", err)

		body, err = backoff.Retry(ctx, func() (io.ReadCloser, error) {
			rc, err := c.connect(ctx, f)
			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
				return nil, backoff.Permanent(err)
			}
			return rc, err
		}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(2*time.Minute))
		if err != nil {
			slog.Warn("Giving up on change stream", "table", f.Table, "error", err)
			return
		}
		s.signalResync()
	}
}

// readEvents forwards `change` events until the body ends or ctx is done.
// A `resync` event calls onResync.
func readEvents(ctx context.Context, body io.Reader, out chan<- realtime.ChangeEvent, onResync func()) error {
	stop := context.AfterFunc(ctx, func() {
		if rc, ok := body.(io.Closer); ok {
			_ = rc.Close()
		}
	})
	defer stop()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var name, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if name == "resync" {
				onResync()
			}
			if name == "change" && data != "" {
				var ev realtime.ChangeEvent
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					slog.Warn("Ignoring malformed change event", "error", err)
				} else {
					select {
					case out <- ev:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			name, data = "", ""
		case strings.HasPrefix(line, ":"):
			// heartbeat
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
