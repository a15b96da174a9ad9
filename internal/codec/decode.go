package codec

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeError reports that every decode strategy failed.
// The operation that needed the data (decrypt, import) fails loudly;
// corrupted data is never substituted silently.
type DecodeError struct {
	Tried []string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode payload: all strategies failed (%s)", strings.Join(e.Tried, ", "))
}

// decoder is one strategy in the fallback chain: turn raw bytes into a
// candidate JSON document, or fail.
type decoder struct {
	name   string
	decode func([]byte) ([]byte, error)
}

// decodeChain is tried in strict order. Older encoders produced Base64 or
// hex text where newer ones write UTF-8 JSON directly; the Latin-1 leg
// recovers blobs that were round-tripped through a byte-per-char decode.
var decodeChain = []decoder{
	{name: "utf-8", decode: decodeUTF8},
	{name: "base64", decode: decodeBase64},
	{name: "hex", decode: decodeHex},
	{name: "latin-1", decode: decodeLatin1},
}

// DecodeJSON turns an ambiguous byte blob back into structured data.
// The first strategy that both decodes cleanly and yields valid JSON wins.
// Returns *DecodeError when the chain is exhausted.
func DecodeJSON(blob []byte) (json.RawMessage, error) {
	tried := make([]string, 0, len(decodeChain))
	for _, d := range decodeChain {
		tried = append(tried, d.name)
		out, err := d.decode(blob)
		if err != nil {
			continue
		}
		if json.Valid(out) {
			return json.RawMessage(out), nil
		}
	}
	return nil, &DecodeError{Tried: tried}
}

func decodeUTF8(blob []byte) ([]byte, error) {
	if !utf8.Valid(blob) {
		return nil, fmt.Errorf("not valid utf-8")
	}
	return blob, nil
}

func decodeBase64(blob []byte) ([]byte, error) {
	out, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(blob)))
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	return out, nil
}

func decodeHex(blob []byte) ([]byte, error) {
	out, err := hex.DecodeString(strings.TrimSpace(string(blob)))
	if err != nil {
		return nil, fmt.Errorf("hex: %w", err)
	}
	return out, nil
}

func decodeLatin1(blob []byte) ([]byte, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(blob)
	if err != nil {
		return nil, fmt.Errorf("latin-1: %w", err)
	}
	return out, nil
}
