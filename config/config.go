// Package config loads the agent's environment configuration.
//
// Missing required credentials for the selected generation or memory
// backend is a fatal startup condition surfaced as a Load error.
package config

import (
	"fmt"
	"os"
	"time"
)

// Generation backends.
const (
	GeneratorGemini    = "gemini"
	GeneratorAnthropic = "anthropic"
)

// Memory backends.
const (
	MemoryMem0  = "mem0"
	MemoryLocal = "local"
)

// Config is the process configuration, read once at startup.
type Config struct {
	// RoomURL is the room service websocket URL. Required.
	RoomURL string

	// TokenServer is the token endpoint base URL.
	TokenServer string

	// Identity is the agent's participant identity in the room.
	Identity string

	// RoomName is the room to join.
	RoomName string

	// Generator selects the generation backend (gemini or anthropic).
	Generator string

	// GeneratorModel overrides the backend's default model.
	GeneratorModel string

	GeminiKey    string
	AnthropicKey string

	// MemoryBackend selects the fact store (mem0 or local).
	MemoryBackend string

	Mem0APIKey    string
	Mem0OrgID     string
	Mem0ProjectID string
	Mem0BaseURL   string

	// MemoryCacheTTL enables the per-sender search cache when positive.
	MemoryCacheTTL time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		RoomURL:        os.Getenv("ROOM_URL"),
		TokenServer:    getenv("TOKEN_SERVER", "http://localhost:8000"),
		Identity:       getenv("AGENT_IDENTITY", "ai-agent"),
		RoomName:       getenv("ROOM_NAME", "test-room"),
		Generator:      getenv("GENERATOR", GeneratorGemini),
		GeneratorModel: os.Getenv("GENERATOR_MODEL"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		MemoryBackend:  getenv("MEMORY_BACKEND", MemoryMem0),
		Mem0APIKey:     os.Getenv("MEM0_API_KEY"),
		Mem0OrgID:      os.Getenv("MEM0_ORG_ID"),
		Mem0ProjectID:  os.Getenv("MEM0_PROJECT_ID"),
		Mem0BaseURL:    os.Getenv("MEM0_BASE_URL"),
	}

	if cfg.RoomURL == "" {
		return nil, fmt.Errorf("config: ROOM_URL is required")
	}

	switch cfg.Generator {
	case GeneratorGemini:
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("config: GEMINI_API_KEY is required for the gemini generator")
		}
	case GeneratorAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("config: ANTHROPIC_API_KEY is required for the anthropic generator")
		}
	default:
		return nil, fmt.Errorf("config: unknown GENERATOR %q", cfg.Generator)
	}

	switch cfg.MemoryBackend {
	case MemoryMem0:
		if cfg.Mem0APIKey == "" {
			return nil, fmt.Errorf("config: MEM0_API_KEY is required for the mem0 memory backend")
		}
	case MemoryLocal:
	default:
		return nil, fmt.Errorf("config: unknown MEMORY_BACKEND %q", cfg.MemoryBackend)
	}

	if raw := os.Getenv("MEMORY_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: parse MEMORY_CACHE_TTL: %w", err)
		}
		cfg.MemoryCacheTTL = ttl
	}

	return cfg, nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
