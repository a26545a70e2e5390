// Package agent runs the per-message relay pipeline: decode, memory
// retrieval, prompt composition, generation, publish, memory write-back.
//
// The pipeline executes synchronously inside the room connection's data
// handler, one message at a time. Every external call carries a bounded
// timeout so a stalled service cannot block the handler indefinitely,
// and the reply publish is awaited in-handler so replies leave in the
// order their messages arrived. Per-message failures are logged at their
// stage and never abort the handler or the connection.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/nikku45/roomrelay/generate"
	"github.com/nikku45/roomrelay/memory"
)

// DefaultTopic is the room topic the relay listens and replies on.
const DefaultTopic = "chat"

// Publisher sends payloads into the room. Satisfied by *room.Conn.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, reliable bool) error
}

// Timeouts bound each external call made per message.
// Zero fields take the defaults.
type Timeouts struct {
	Retrieve time.Duration // memory search
	Generate time.Duration // text generation
	Publish  time.Duration // reliable publish ack
	Record   time.Duration // memory append
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Retrieve == 0 {
		t.Retrieve = 5 * time.Second
	}
	if t.Generate == 0 {
		t.Generate = 30 * time.Second
	}
	if t.Publish == 0 {
		t.Publish = 10 * time.Second
	}
	if t.Record == 0 {
		t.Record = 5 * time.Second
	}
	return t
}

// Config wires the pipeline's collaborators.
type Config struct {
	// Identity is the agent's own participant identity. Required.
	Identity string

	// Topic overrides the chat topic. Defaults to DefaultTopic.
	Topic string

	// Publisher, Memory, and Generator are the injected service handles.
	// All required.
	Publisher Publisher
	Memory    memory.Manager
	Generator generate.Generator

	// Timeouts bound the per-stage external calls.
	Timeouts Timeouts
}

// Agent hosts the relay pipeline.
type Agent struct {
	identity  string
	topic     string
	publisher Publisher
	memory    memory.Manager
	generator generate.Generator
	timeouts  Timeouts
}

// New creates the pipeline from explicitly constructed service handles.
func New(cfg Config) (*Agent, error) {
	if cfg.Identity == "" {
		return nil, errors.New("agent: identity must not be empty")
	}
	if cfg.Publisher == nil {
		return nil, errors.New("agent: publisher must not be nil")
	}
	if cfg.Memory == nil {
		return nil, errors.New("agent: memory manager must not be nil")
	}
	if cfg.Generator == nil {
		return nil, errors.New("agent: generator must not be nil")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	return &Agent{
		identity:  cfg.Identity,
		topic:     cfg.Topic,
		publisher: cfg.Publisher,
		memory:    cfg.Memory,
		generator: cfg.Generator,
		timeouts:  cfg.Timeouts.withDefaults(),
	}, nil
}

// HandleParticipantJoined logs presence events. Observability only.
func (a *Agent) HandleParticipantJoined(identity string) {
	log.Printf("[agent] participant joined: %s", identity)
}

// HandleData runs the pipeline for one inbound payload. Registered as
// the room connection's data handler; invoked sequentially, never
// concurrently.
func (a *Agent) HandleData(topic string, payload []byte) {
	msg, drop := ingest(payload, a.identity)
	switch drop {
	case dropUndecodable:
		log.Printf("[agent] dropping undecodable payload on %s", topic)
		return
	case dropSelf:
		return
	}

	log.Printf("[agent] message from %s: %q", msg.Sender, msg.Text)

	ctx, cancel := context.WithTimeout(context.Background(), a.timeouts.Retrieve)
	snippets := a.memory.Snippets(ctx, msg.Sender)
	cancel()

	prompt := BuildPrompt(msg.Sender, snippets, msg.Text)

	ctx, cancel = context.WithTimeout(context.Background(), a.timeouts.Generate)
	reply, err := a.generator.Generate(ctx, prompt)
	cancel()
	if err != nil {
		// Recoverable: the sender simply gets no reply.
		log.Printf("[agent] generation failed for %s: %v", msg.Sender, err)
		return
	}
	log.Printf("[agent] reply for %s: %q", msg.Sender, reply)

	out, err := json.Marshal(wireMessage{Username: a.identity, Text: reply})
	if err != nil {
		log.Printf("[agent] encode reply for %s: %v", msg.Sender, err)
		return
	}

	ctx, cancel = context.WithTimeout(context.Background(), a.timeouts.Publish)
	err = a.publisher.Publish(ctx, a.topic, out, true)
	cancel()
	if err != nil {
		log.Printf("[agent] publish failed for %s: %v", msg.Sender, err)
	}

	// Write-back runs after the publish attempt regardless of its
	// outcome; a failure never affects the reply already sent.
	ctx, cancel = context.WithTimeout(context.Background(), a.timeouts.Record)
	err = a.memory.Record(ctx, msg.Sender, msg.Text)
	cancel()
	if err != nil {
		log.Printf("[agent] memory write failed for %s: %v", msg.Sender, err)
	}
}
