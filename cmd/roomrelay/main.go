// roomrelay joins a chat room and answers every message with a
// memory-augmented generated reply.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nikku45/roomrelay/agent"
	"github.com/nikku45/roomrelay/config"
	"github.com/nikku45/roomrelay/generate"
	genanthropic "github.com/nikku45/roomrelay/generate/anthropic"
	gengemini "github.com/nikku45/roomrelay/generate/gemini"
	"github.com/nikku45/roomrelay/memory"
	"github.com/nikku45/roomrelay/memory/embedder/mock"
	"github.com/nikku45/roomrelay/memory/mem0"
	chromemstore "github.com/nikku45/roomrelay/memory/store/chromem"
	"github.com/nikku45/roomrelay/room"
	"github.com/nikku45/roomrelay/token"
)

func main() {
	// Load .env if present; system env vars otherwise.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	ctx := context.Background()

	cred, err := token.NewClient(cfg.TokenServer).Fetch(ctx, cfg.Identity, cfg.RoomName)
	if err != nil {
		log.Fatalf("[main] fetch credential: %v", err)
	}
	log.Printf("[main] credential acquired for %s in room %s", cred.Identity, cred.Room)

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("[main] memory store: %v", err)
	}
	defer store.Close()

	var opts []memory.Option
	if cfg.MemoryCacheTTL > 0 {
		opts = append(opts, memory.WithSearchCache(cfg.MemoryCacheTTL))
	}
	manager := memory.NewStoreManager(store, opts...)

	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		log.Fatalf("[main] generator: %v", err)
	}

	conn := room.New()
	relay, err := agent.New(agent.Config{
		Identity:  cfg.Identity,
		Publisher: conn,
		Memory:    manager,
		Generator: generator,
	})
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	conn.OnParticipantJoined(relay.HandleParticipantJoined)
	conn.OnData(relay.HandleData)

	log.Printf("[main] connecting to %s", cfg.RoomURL)
	if err := conn.Connect(ctx, cfg.RoomURL, cred.Token); err != nil {
		log.Fatalf("[main] %v", err)
	}
	log.Printf("[main] connected, listening for chat messages")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[main] received %s, shutting down", s)
		conn.Close()
	case <-conn.Done():
		if err := conn.Err(); err != nil {
			// A dropped connection is fatal: no reconnect.
			log.Fatalf("[main] connection lost: %v", err)
		}
	}
}

func buildStore(cfg *config.Config) (memory.Store, error) {
	switch cfg.MemoryBackend {
	case config.MemoryLocal:
		log.Printf("[main] using embedded memory store (facts are not persisted)")
		return chromemstore.New(mock.New())
	default:
		return mem0.New(mem0.Config{
			APIKey:    cfg.Mem0APIKey,
			OrgID:     cfg.Mem0OrgID,
			ProjectID: cfg.Mem0ProjectID,
			BaseURL:   cfg.Mem0BaseURL,
		})
	}
}

func buildGenerator(ctx context.Context, cfg *config.Config) (generate.Generator, error) {
	switch cfg.Generator {
	case config.GeneratorAnthropic:
		return genanthropic.New(genanthropic.Config{
			APIKey: cfg.AnthropicKey,
			Model:  cfg.GeneratorModel,
		})
	default:
		return gengemini.New(ctx, gengemini.Config{
			APIKey: cfg.GeminiKey,
			Model:  cfg.GeneratorModel,
		})
	}
}
