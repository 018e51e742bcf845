package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/jwebster45206/rando-engine/internal/services/queue"
)

func main() {
	redisURL := flag.String("redis", "redis://localhost:6379", "Redis URL")
	count := flag.Int("n", 3, "number of seed jobs to enqueue")
	seed := flag.Uint64("seed", 1, "seed of the first job; later jobs count up from it")
	tier := flag.String("tier", "", "difficulty tier (empty for the worker default)")
	flag.Parse()

	quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client, err := queue.NewClient(*redisURL, quiet)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer client.Close()

	fmt.Println("Connected to Redis successfully!")

	ctx := context.Background()
	seedQueue := queue.NewSeedQueue(client)
	for i := range *count {
		req, err := seedQueue.Enqueue(ctx, uuid.New(), *seed+uint64(i), *tier)
		if err != nil {
			log.Fatal("Failed to enqueue request: ", err)
		}
		fmt.Printf("✅ Enqueued seed %d as %s\n", req.Seed, req.SeedID)
	}

	depth, err := seedQueue.RequestQueueDepth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth: ", err)
	}

	fmt.Printf("\n📊 Queue depth: %d requests\n", depth)
	fmt.Println("\n💡 Now start the worker to see it process these requests!")
	fmt.Println("   Run: go run ./cmd/worker")
}
