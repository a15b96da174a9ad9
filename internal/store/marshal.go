package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/keepsake/internal/record"
)

// marshalPayload converts a history payload to JSON TEXT for storage.
// Uses json.Encoder with HTML escaping disabled so stored payloads match
// the canonical export form for links containing & or <.
func marshalPayload(p record.HistoryPayload) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	// Encoder adds a trailing newline, remove it.
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalPayload parses the stored JSON TEXT back into a payload.
// A malformed payload is a corruption signal; the caller's read path
// treats the error accordingly.
func unmarshalPayload(data string) (record.HistoryPayload, error) {
	var p record.HistoryPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return record.HistoryPayload{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p, nil
}
