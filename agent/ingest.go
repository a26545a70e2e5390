package agent

import (
	"encoding/json"
	"unicode/utf8"
)

// Inbound is one decoded chat message.
type Inbound struct {
	Sender string
	Text   string
}

// wireMessage is the chat payload shape on the wire. Inbound and
// outbound messages use the identical shape; outbound sets Username to
// the agent's own identity.
type wireMessage struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

type dropReason int

const (
	dropNone dropReason = iota
	dropUndecodable
	dropSelf
)

// ingest decodes a raw payload into an Inbound message.
//
// Payloads that are not valid UTF-8 are dropped. Text that parses as a
// JSON object supplies sender and text from its username/text fields;
// anything else falls back to sender "unknown" with the raw text carried
// forward unchanged. Messages from the agent's own identity are dropped
// to prevent self-reply loops.
func ingest(payload []byte, self string) (Inbound, dropReason) {
	if !utf8.Valid(payload) {
		return Inbound{}, dropUndecodable
	}

	msg := Inbound{Sender: "unknown", Text: string(payload)}
	if isJSONObject(payload) {
		var wire wireMessage
		if err := json.Unmarshal(payload, &wire); err == nil {
			msg = Inbound{Sender: wire.Username, Text: wire.Text}
		}
	}

	if msg.Sender == self {
		return Inbound{}, dropSelf
	}
	return msg, dropNone
}

func isJSONObject(payload []byte) bool {
	for _, b := range payload {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b == '{'
		}
	}
	return false
}
