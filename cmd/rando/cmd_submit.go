package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/rando-engine/internal/handlers"
	"github.com/jwebster45206/rando-engine/internal/services/events"
	"github.com/jwebster45206/rando-engine/pkg/storage"
)

// runSubmit queues a seed through the API, follows its event stream and
// prints the spoiler once the job is done.
func runSubmit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(waitTimeout)*time.Second)
	defer cancel()

	client := newAPIClient(apiURL)
	out := cmd.OutOrStdout()

	var req handlers.CreateSeedRequest
	if cmd.Flags().Changed("seed") {
		seed := seedFlag
		req.Seed = &seed
	}
	// Without --tier the API applies its own default.
	if cmd.Flags().Changed("tier") {
		req.Tier = cfg.Tier
	}

	created, err := client.createSeed(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Queued seed %d as %s\n", created.Seed, created.ID)

	streamCtx, stopStream := context.WithCancel(ctx)
	defer stopStream()
	eventChan := make(chan events.Event, 16)
	errChan := make(chan error, 1)
	go func() {
		defer close(eventChan)
		errChan <- client.listenToSSE(streamCtx, created.ID, eventChan)
	}()

	for ev := range eventChan {
		done := false
		switch ev.Type {
		case "connected":
			// The job may have finished before the subscription started.
			seed, err := client.getSeed(ctx, created.ID)
			done = err == nil && finished(seed.Status)
		case events.EventTypeSeedAttempt:
			log.Info("Attempt failed", "map", ev.Data["map"], "reason", ev.Data["reason"])
		case events.EventTypeSeedCompleted, events.EventTypeSeedFailed:
			done = true
		default:
			log.Debug("Seed event", "type", ev.Type)
		}
		if done {
			stopStream()
			break
		}
	}
	for range eventChan {
	}
	if err := <-errChan; err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Event stream ended", "error", err)
	}

	// Fall back to polling when the stream closed early.
	seed, err := client.getSeed(ctx, created.ID)
	for err == nil && !finished(seed.Status) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for seed %s", created.ID)
		case <-time.After(500 * time.Millisecond):
		}
		seed, err = client.getSeed(ctx, created.ID)
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("timed out waiting for seed %s", created.ID)
		}
		return err
	}
	if seed.Status.State == storage.SeedFailed {
		return fmt.Errorf("seed %s failed: %s", created.ID, seed.Status.Error)
	}

	spoiler, err := client.getSpoiler(ctx, created.ID, spoilerWidth)
	if err != nil {
		return err
	}
	fmt.Fprint(out, spoiler)
	return nil
}

func finished(status *storage.SeedStatus) bool {
	return status != nil && (status.State == storage.SeedCompleted || status.State == storage.SeedFailed)
}
