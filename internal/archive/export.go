package archive

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/keepsake/internal/codec"
	"github.com/roach88/keepsake/internal/record"
)

// Store is the slice of the local store the archiver needs.
// *store.Store satisfies it.
type Store interface {
	Assets(ctx context.Context) []record.Asset
	History(ctx context.Context) []record.HistoryItem
	ReplaceAssets(ctx context.Context, assets []record.Asset) error
	ReplaceHistory(ctx context.Context, items []record.HistoryItem) error
}

// Archiver exports and imports record sets for one store.
type Archiver struct {
	store     Store
	validator *validator
}

// New creates an Archiver over the given store.
func New(s Store) (*Archiver, error) {
	v, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &Archiver{store: s, validator: v}, nil
}

// Export writes all records of the given kind to w as an envelope file.
//
// The secret is only used for encrypted mode. It is injected by the caller
// (configuration or a user-supplied password) - an application-wide secret
// makes encrypted export obfuscation rather than confidentiality, so the
// trust boundary belongs to whoever supplies it.
func (a *Archiver) Export(ctx context.Context, kind record.Kind, mode Mode, secret string, w io.Writer) error {
	payload, err := a.payload(ctx, kind)
	if err != nil {
		return err
	}

	env := Envelope{Mode: mode}
	switch mode {
	case ModePlain:
		env.Data = payload
	case ModeEncoded:
		// Base64 text needs no JSON escaping; quote it directly.
		env.Data = json.RawMessage(`"` + base64.StdEncoding.EncodeToString(payload) + `"`)
	case ModeEncrypted:
		if secret == "" {
			return fmt.Errorf("encrypted export requires a secret")
		}
		ct, err := codec.Encrypt(payload, secret)
		if err != nil {
			return fmt.Errorf("encrypt payload: %w", err)
		}
		env.Data = json.RawMessage(`"` + ct.DataHex + `"`)
		env.IV = ct.IVHex
	default:
		return &FormatError{Reason: fmt.Sprintf("unknown envelope mode %q", mode)}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

// payload canonically serializes the current record set so identical stores
// always export identical bytes.
func (a *Archiver) payload(ctx context.Context, kind record.Kind) ([]byte, error) {
	switch kind {
	case record.KindAsset:
		data, err := record.MarshalAssetsCanonical(a.store.Assets(ctx))
		if err != nil {
			return nil, fmt.Errorf("serialize assets: %w", err)
		}
		return data, nil
	case record.KindHistory:
		data, err := record.MarshalHistoryCanonical(a.store.History(ctx))
		if err != nil {
			return nil, fmt.Errorf("serialize history: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}
