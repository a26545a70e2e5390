// Package generate defines the generation boundary of the relay pipeline.
//
// A Generator turns one composed prompt into one reply. Implementations:
//   - anthropic: Claude Messages API
//   - gemini: Google Gemini API
//
// Generation failures are per-message: the caller logs and drops the
// message, the process keeps running.
package generate

import "context"

// Generator produces a reply for a composed prompt.
type Generator interface {
	// Generate calls the text service synchronously and returns the reply
	// text. Any service error, timeout, or empty response is returned as
	// an error; no partial reply is produced.
	Generate(ctx context.Context, prompt string) (string, error)
}
