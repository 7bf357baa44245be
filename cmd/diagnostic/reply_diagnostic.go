// File: cmd/diagnostic/reply_diagnostic.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kailassh/refine-chat/internal/services"
	"github.com/kailassh/refine-chat/internal/services/reply"
)

// Exercises the configured reply backend from the command line: a health
// check followed by a few timed generations. Useful when pointing the app
// at a new LLM endpoint.
func main() {
	const testRuns = 3

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := services.NewLogger("diagnostic")

	var generator reply.Generator
	apiKey := os.Getenv("REPLY_API_KEY")
	if apiKey == "" {
		log.Println("REPLY_API_KEY not set, exercising the canned engine instead")
		generator = reply.NewCannedGenerator(100*time.Millisecond, 400*time.Millisecond, time.Now().UnixNano(), logger)
	} else {
		cfg := reply.DefaultConfig()
		cfg.APIKey = apiKey
		if url := os.Getenv("REPLY_BASE_URL"); url != "" {
			cfg.BaseURL = url
		}
		if model := os.Getenv("REPLY_MODEL"); model != "" {
			cfg.Model = model
		}
		var err error
		generator, err = reply.NewOpenAIGenerator(cfg, logger)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize reply generator: %v", err)
		}
		log.Printf("Using LLM backend, model %s", cfg.Model)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	startHealth := time.Now()
	if err := generator.HealthCheck(ctx); err != nil {
		log.Fatalf("FATAL: Health check failed: %v", err)
	}
	log.Printf("[TIMING] Health check took: %s", time.Since(startHealth))

	testPrompt := "In one sentence, what does a rate limiter do?"
	log.Printf("Test prompt: %q", testPrompt)

	var total time.Duration
	completed := 0
	for i := 1; i <= testRuns; i++ {
		start := time.Now()
		text, err := generator.Generate(ctx, testPrompt)
		if err != nil {
			log.Printf("ERROR: Generation run #%d failed: %v", i, err)
			continue
		}
		elapsed := time.Since(start)
		total += elapsed
		completed++
		log.Printf("[TIMING] Run #%d took: %s (%d chars)", i, elapsed, len(text))
		if i == 1 {
			fmt.Printf("Reply: %s\n", text)
		}
	}

	if completed == 0 {
		log.Fatal("FATAL: All generation runs failed")
	}
	log.Printf("Average latency over %d runs: %s", completed, total/time.Duration(completed))
}
