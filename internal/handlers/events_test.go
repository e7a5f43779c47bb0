package handlers

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/barter-engine/internal/events"
)

// readEvent reads SSE lines until a complete event and returns its type
// and data.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var eventType, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
}

func TestEventsHandler_StreamsTraderEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(NewEventsHandler(client, logger))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/events/traders/smith", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	eventType, data := readEvent(t, reader)
	assert.Equal(t, "connected", eventType)
	assert.Contains(t, data, `"trader_id":"smith"`)

	b := events.NewBroadcaster(client, logger)
	require.NoError(t, b.PublishTradeCancelled(ctx, "baker", "other-session"))
	require.NoError(t, b.PublishTradeCommitted(ctx, "smith", "session-1", 2, 1, 300))

	eventType, data = readEvent(t, reader)
	assert.Equal(t, string(events.EventTypeTradeCommitted), eventType)
	assert.Contains(t, data, `"session_id":"session-1"`)
	assert.Contains(t, data, `"owed":300`)
}

func TestEventsHandler_BadRequests(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	h := NewEventsHandler(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{"post", http.MethodPost, "/v1/events/traders/smith", http.StatusMethodNotAllowed},
		{"missing trader", http.MethodGet, "/v1/events/traders", http.StatusBadRequest},
		{"wrong resource", http.MethodGet, "/v1/events/games/smith", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, tt.method, tt.target)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}
