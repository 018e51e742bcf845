package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/rando-engine/pkg/storage"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(f *fixture)
		expectedStatus int
		expectedHealth string
		expectedStore  string
		expectedMaps   string
		expectedQueue  string
	}{
		{
			name:           "all healthy",
			setup:          func(f *fixture) {},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedStore:  "healthy",
			expectedMaps:   "healthy",
			expectedQueue:  "healthy",
		},
		{
			name: "unhealthy storage",
			setup: func(f *fixture) {
				f.store.SetPingError(errors.New("connection failed"))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedStore:  "unhealthy",
			expectedMaps:   "healthy",
			expectedQueue:  "healthy",
		},
		{
			name: "no maps",
			setup: func(f *fixture) {
				f.store = storage.NewMockStorage()
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedStore:  "healthy",
			expectedMaps:   "empty",
			expectedQueue:  "healthy",
		},
		{
			name: "queue down",
			setup: func(f *fixture) {
				_ = f.client.Close()
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedStore:  "healthy",
			expectedMaps:   "healthy",
			expectedQueue:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			tt.setup(f)
			handler := NewHealthHandler(f.store, f.queue, testLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var response HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
			assert.Equal(t, tt.expectedHealth, response.Status)
			assert.Equal(t, "rando-engine", response.Service)
			assert.Equal(t, tt.expectedStore, response.Components["storage"])

			maps, ok := response.Components["maps"].(map[string]any)
			require.True(t, ok, "maps component is an object")
			assert.Equal(t, tt.expectedMaps, maps["status"])

			queue, ok := response.Components["queue"].(map[string]any)
			require.True(t, ok, "queue component is an object")
			assert.Equal(t, tt.expectedQueue, queue["status"])

			assert.WithinDuration(t, time.Now(), response.Timestamp, time.Second)
		})
	}
}

func TestHealthHandler_ReportsCounts(t *testing.T) {
	f := setup(t)
	_, err := f.queue.Enqueue(t.Context(), uuid.New(), 5, "")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	NewHealthHandler(f.store, f.queue, testLogger()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var response HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	maps := response.Components["maps"].(map[string]any)
	queue := response.Components["queue"].(map[string]any)
	assert.EqualValues(t, 1, maps["count"])
	assert.EqualValues(t, 1, queue["depth"])
}
