package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velym/backend/internal/api"
	"velym/backend/internal/interfaces/mocks"
	"velym/backend/internal/realtime"
	"velym/backend/internal/session"
)

type tokenResolver map[string]*session.Identity

func (r tokenResolver) ResolveSession(_ context.Context, token string) (*session.Identity, error) {
	if id, ok := r[token]; ok {
		return id, nil
	}
	return nil, errors.New("unknown token")
}

func setupRouter(t *testing.T, hub *realtime.Hub) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>velym</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))

	if hub == nil {
		hub = realtime.NewHub(0)
	}
	handlers := api.Handlers{
		Auth:       api.NewAuthHandler(mocks.NewMockAuthService(t), false),
		Assessment: api.NewAssessmentHandler(mocks.NewMockAssessmentService(t)),
		Chat:       api.NewChatHandler(mocks.NewMockChatService(t)),
		Profile:    api.NewProfileHandler(mocks.NewMockProfileService(t)),
		Resource:   api.NewResourceHandler(mocks.NewMockResourceService(t)),
		Model:      api.NewModelHandler(mocks.NewMockModelService(t)),
		Realtime:   api.NewRealtimeHandler(hub, ""),
	}
	resolver := tokenResolver{"good": {UserID: testUserID, SessionID: "sess-1"}}
	return api.NewRouter(handlers, resolver, dir), dir
}

func TestRouter_Healthz(t *testing.T) {
	router, _ := setupRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestRouter_ProtectedAPI(t *testing.T) {
	router, _ := setupRouter(t, nil)

	t.Run("No token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"Authentication required."}`, rr.Body.String())
	})

	t.Run("Unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRouter_Pages(t *testing.T) {
	router, _ := setupRouter(t, nil)

	t.Run("Gated page redirects anonymous visitors", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/auth", rr.Header().Get("Location"))
	})

	t.Run("Gated page renders for a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/chat/c1", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "good"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "velym")
	})

	t.Run("Public page falls back to index", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/forgot-password", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "velym")
	})

	t.Run("Static asset", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/app.js", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "console.log")
	})
}

func TestRealtimeHandler_Stream(t *testing.T) {
	// ARRANGE: a live server so the event stream can be read while open.
	hub := realtime.NewHub(0)
	router, _ := setupRouter(t, hub)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/api/v1/realtime?table=messages&filter=conversation_id=eq.c1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer good")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "" && name != "":
				return name, data
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	name, _ := readEvent()
	require.Equal(t, "subscribed", name)

	// ACT: one event for another conversation, one for another user, one match.
	for _, ev := range []struct {
		owner, conv string
	}{{testUserID, "c2"}, {"user-2", "c1"}, {testUserID, "c1"}} {
		change, err := realtime.NewChangeEvent(realtime.TableMessages, realtime.Insert, ev.owner,
			map[string]string{"conversation_id": ev.conv}, map[string]string{"content": ev.owner + "/" + ev.conv})
		require.NoError(t, err)
		require.NoError(t, hub.Publish(ctx, change))
	}

	// ASSERT: only the matching event arrives.
	name, data := readEvent()
	require.Equal(t, "change", name)
	var got realtime.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, testUserID, got.OwnerID)
	assert.Equal(t, "c1", got.Scope["conversation_id"])

	// Closing the hub ends the stream with an error event.
	hub.Close()
	name, data = readEvent()
	assert.Equal(t, "error", name)
	assert.Contains(t, data, "reconnect")
}

func TestRealtimeHandler_BadFilter(t *testing.T) {
	router, _ := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/realtime?table=users", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
