package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/rando-engine/internal/services/events"
)

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && ev.name != "":
			return ev
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsHandler_StreamsUntilSeedFinishes(t *testing.T) {
	f := setup(t)
	server := httptest.NewServer(NewEventsHandler(f.client.GetRedisClient(), testLogger()))
	defer server.Close()

	seedID := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/events/seeds/"+seedID.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	connected := readEvent(t, reader)
	assert.Equal(t, "connected", connected.name)
	assert.Contains(t, connected.data, seedID.String())

	channel := events.Channel(seedID)
	require.Eventually(t, func() bool {
		return f.mr.PubSubNumSub(channel)[channel] == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, f.broadcaster.PublishSeedProcessing(ctx, seedID, "req-1", "worker-a"))
	require.NoError(t, f.broadcaster.PublishSeedCompleted(ctx, seedID, "req-1", map[string]any{"map": "tiny"}))

	processing := readEvent(t, reader)
	assert.Equal(t, string(events.EventTypeSeedProcessing), processing.name)
	var ev events.Event
	require.NoError(t, json.Unmarshal([]byte(processing.data), &ev))
	assert.Equal(t, seedID.String(), ev.SeedID)
	assert.Equal(t, "worker-a", ev.Data["worker_id"])

	completed := readEvent(t, reader)
	assert.Equal(t, string(events.EventTypeSeedCompleted), completed.name)

	// The stream ends after a terminal event.
	_, err = reader.ReadString('\n')
	assert.Error(t, err)
}

func TestEventsHandler_BadRequests(t *testing.T) {
	f := setup(t)
	handler := NewEventsHandler(f.client.GetRedisClient(), testLogger())

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "wrong method", method: http.MethodPost, path: "/v1/events/seeds/" + uuid.New().String(), expectedStatus: http.StatusMethodNotAllowed},
		{name: "wrong path", method: http.MethodGet, path: "/v1/events/games/" + uuid.New().String(), expectedStatus: http.StatusBadRequest},
		{name: "invalid id", method: http.MethodGet, path: "/v1/events/seeds/abc", expectedStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
