package archive

import (
	"encoding/json"
	"fmt"
)

// Mode selects how an envelope's payload is packed.
type Mode string

const (
	ModePlain     Mode = "plain"
	ModeEncoded   Mode = "encoded"
	ModeEncrypted Mode = "encrypted"
)

// ParseMode validates a mode string from a flag or an envelope.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlain, ModeEncoded, ModeEncrypted:
		return Mode(s), nil
	default:
		return "", &FormatError{Reason: fmt.Sprintf("unknown envelope mode %q", s)}
	}
}

// Envelope is the export file wrapper.
//
// Data is a raw array for plain mode and a JSON string (Base64 text or
// ciphertext hex) otherwise. IV is present only for encrypted mode.
type Envelope struct {
	Mode Mode            `json:"mode"`
	Data json.RawMessage `json:"data"`
	IV   string          `json:"iv,omitempty"`
}

// FormatError reports an envelope the importer cannot interpret: an unknown
// mode, a payload whose shape contradicts the mode, or unparseable JSON.
// FormatError fails the entire import; per-item validation failures do not.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid archive format: " + e.Reason
}
