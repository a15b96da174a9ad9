package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/keepsake/internal/codec"
	"github.com/roach88/keepsake/internal/record"
)

// Import reads an envelope file from r and merges its records of the given
// kind into the store.
//
// Returns the number of records actually added - not the import size. A
// re-import of data already present adds nothing and returns 0.
//
// Error behavior follows the taxonomy: an unknown mode or unparseable
// envelope fails the whole import (*FormatError); an exhausted decode chain
// fails it (*codec.DecodeError); an individual item that fails schema
// validation is dropped silently from the merge only.
func (a *Archiver) Import(ctx context.Context, kind record.Kind, secret string, r io.Reader) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read archive: %w", err)
	}

	payload, err := a.unwrap(raw, secret)
	if err != nil {
		return 0, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return 0, &FormatError{Reason: fmt.Sprintf("payload is not a record array: %v", err)}
	}

	switch kind {
	case record.KindAsset:
		return a.mergeAssets(ctx, items)
	case record.KindHistory:
		return a.mergeHistory(ctx, items)
	default:
		return 0, fmt.Errorf("unknown record kind %q", kind)
	}
}

// unwrap turns the envelope file into the serialized record array.
// Legacy exports that are a bare array (no mode wrapper) are accepted.
func (a *Archiver) unwrap(raw []byte, secret string) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &FormatError{Reason: "empty archive file"}
	}

	// Legacy format: the file is the record array itself.
	if trimmed[0] == '[' {
		return trimmed, nil
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("unparseable envelope: %v", err)}
	}

	switch env.Mode {
	case ModePlain:
		return env.Data, nil

	case ModeEncoded:
		var text string
		if err := json.Unmarshal(env.Data, &text); err != nil {
			return nil, &FormatError{Reason: "encoded envelope data is not a string"}
		}
		// The decode chain handles Base64 and the older text encodings.
		payload, err := codec.DecodeJSON([]byte(text))
		if err != nil {
			return nil, err
		}
		return payload, nil

	case ModeEncrypted:
		var cipherHex string
		if err := json.Unmarshal(env.Data, &cipherHex); err != nil {
			return nil, &FormatError{Reason: "encrypted envelope data is not a string"}
		}
		if env.IV == "" {
			return nil, &FormatError{Reason: "encrypted envelope is missing its iv"}
		}
		payload, err := codec.DecryptJSON(cipherHex, env.IV, secret)
		if err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, &FormatError{Reason: fmt.Sprintf("unknown envelope mode %q", env.Mode)}
	}
}

// mergeAssets appends candidates whose content hash is not already present,
// then rewrites the collection wholesale. Within one import the first
// occurrence of a hash wins.
func (a *Archiver) mergeAssets(ctx context.Context, items []json.RawMessage) (int, error) {
	existing := a.store.Assets(ctx)

	seen := make(map[string]bool, len(existing))
	for _, asset := range existing {
		seen[asset.DedupKey()] = true
	}

	merged := existing
	added := 0
	for _, item := range items {
		if err := a.validator.validate(record.KindAsset, item); err != nil {
			// Invalid items are dropped from the merge, not the import.
			continue
		}
		var asset record.Asset
		if err := json.Unmarshal(item, &asset); err != nil {
			continue
		}
		if seen[asset.DedupKey()] {
			continue
		}
		seen[asset.DedupKey()] = true
		merged = append(merged, asset)
		added++
	}

	if err := a.store.ReplaceAssets(ctx, merged); err != nil {
		return 0, fmt.Errorf("write merged assets: %w", err)
	}
	return added, nil
}

// mergeHistory is mergeAssets for history items, deduplicated by id.
func (a *Archiver) mergeHistory(ctx context.Context, items []json.RawMessage) (int, error) {
	existing := a.store.History(ctx)

	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[item.DedupKey()] = true
	}

	merged := existing
	added := 0
	for _, raw := range items {
		if err := a.validator.validate(record.KindHistory, raw); err != nil {
			continue
		}
		var item record.HistoryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if seen[item.DedupKey()] {
			continue
		}
		seen[item.DedupKey()] = true
		merged = append(merged, item)
		added++
	}

	if err := a.store.ReplaceHistory(ctx, merged); err != nil {
		return 0, fmt.Errorf("write merged history: %w", err)
	}
	return added, nil
}
