package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/rando-engine/internal/handlers"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

// PollInterval is how often to check a seed job for updates
var PollInterval = 500 * time.Millisecond

// PostSeed posts a seed request. On a status other than 202 the response is
// nil and the status and body are returned for the caller to check.
func PostSeed(ctx context.Context, client *http.Client, baseURL string, seedReq handlers.CreateSeedRequest) (*handlers.CreateSeedResponse, int, string, error) {
	reqBody, err := json.Marshal(seedReq)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to marshal seed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/v1/seeds", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to create seed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to send seed request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, "", fmt.Errorf("failed to read seed response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return nil, resp.StatusCode, string(body), nil
	}

	var created handlers.CreateSeedResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, resp.StatusCode, string(body), fmt.Errorf("failed to parse seed response: %w", err)
	}
	return &created, resp.StatusCode, string(body), nil
}

// GetSeed retrieves the status and result of a seed job
func GetSeed(ctx context.Context, client *http.Client, baseURL string, seedID uuid.UUID) (*handlers.SeedResponse, error) {
	url := fmt.Sprintf("%s/v1/seeds/%s", baseURL, seedID.String())
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create seed request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send seed request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("seed endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var seed handlers.SeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return &seed, nil
}

// GetSpoiler retrieves the rendered spoiler of a completed seed
func GetSpoiler(ctx context.Context, client *http.Client, baseURL string, seedID uuid.UUID) (string, error) {
	url := fmt.Sprintf("%s/v1/seeds/%s/spoiler", baseURL, seedID.String())
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create spoiler request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send spoiler request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read spoiler: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spoiler endpoint returned %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

// PollForSeed polls a seed job until it completes or fails
func PollForSeed(ctx context.Context, client *http.Client, baseURL string, seedID uuid.UUID, timeout time.Duration) (*handlers.SeedResponse, error) {
	deadline := time.After(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("timeout waiting for seed %s (waited %v)", seedID, timeout)
		case <-ticker.C:
			seed, err := GetSeed(ctx, client, baseURL, seedID)
			if err != nil {
				// Log error but continue polling
				continue
			}
			if seed.Status == nil {
				continue
			}
			switch seed.Status.State {
			case storage.SeedCompleted, storage.SeedFailed:
				return seed, nil
			}
		}
	}
}
