package memory

import (
	"encoding/json"
	"strings"
)

// Record is the tagged result of decoding one store search hit.
//
// Store responses vary in shape across backends and API versions, so a
// hit is decoded in two steps: a structured decode into the known fact
// fields, falling back to a raw-text rendering of the whole record when
// no known field carries content.
type Record struct {
	// Structured is true when a known content field was present.
	Structured bool

	// Content holds the fact text when Structured.
	Content string

	// Raw holds the raw rendering of the record otherwise.
	Raw string
}

// knownFields mirrors the content field names seen across store API
// versions, in preference order.
type knownFields struct {
	Memory  string `json:"memory"`
	Content string `json:"content"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// ParseRecord decodes one raw search hit into a Record.
func ParseRecord(raw json.RawMessage) Record {
	var fields knownFields
	if err := json.Unmarshal(raw, &fields); err == nil {
		for _, candidate := range []string{fields.Memory, fields.Content, fields.Text, fields.Message} {
			if candidate != "" {
				return Record{Structured: true, Content: candidate}
			}
		}
	}
	return Record{Raw: strings.TrimSpace(string(raw))}
}

// Snippet returns the text to inject into a prompt for this record.
func (r Record) Snippet() string {
	if r.Structured {
		return r.Content
	}
	return r.Raw
}
