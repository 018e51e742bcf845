package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/rando-engine/internal/handlers"
	"github.com/jwebster45206/rando-engine/internal/services/events"
)

// apiClient talks to a running rando API.
type apiClient struct {
	client  *http.Client
	baseURL string
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{client: &http.Client{}, baseURL: strings.TrimRight(baseURL, "/")}
}

// do sends a request and returns the body when the status matches want.
func (c *apiClient) do(req *http.Request, want int) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		var errorResp handlers.ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, errorResp.Error)
	}
	return body, nil
}

func (c *apiClient) createSeed(ctx context.Context, seedReq handlers.CreateSeedRequest) (*handlers.CreateSeedResponse, error) {
	jsonData, err := json.Marshal(seedReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/seeds", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, http.StatusAccepted)
	if err != nil {
		return nil, err
	}
	var created handlers.CreateSeedResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &created, nil
}

func (c *apiClient) getSeed(ctx context.Context, id uuid.UUID) (*handlers.SeedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/seeds/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var seed handlers.SeedResponse
	if err := json.Unmarshal(body, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed response: %w", err)
	}
	return &seed, nil
}

func (c *apiClient) getSpoiler(ctx context.Context, id uuid.UUID, width int) (string, error) {
	url := fmt.Sprintf("%s/v1/seeds/%s/spoiler?width=%d", c.baseURL, id, width)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// listenToSSE streams the events of a seed job until the server closes the
// stream or ctx ends. The initial "connected" event carries only its type.
func (c *apiClient) listenToSSE(ctx context.Context, id uuid.UUID, eventChan chan<- events.Event) error {
	url := fmt.Sprintf("%s/v1/events/seeds/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var current events.Event
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			// Empty line ends an event
			if current.Type == "" {
				continue
			}
			select {
			case eventChan <- current:
			case <-ctx.Done():
				return ctx.Err()
			}
			current = events.Event{}
		case strings.HasPrefix(line, "event: "):
			current.Type = events.EventType(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			var ev events.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err == nil {
				ev.Type = current.Type
				current = ev
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
