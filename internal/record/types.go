package record

import (
	"fmt"
	"time"
)

// Kind tags the two record kinds that share the store/archive machinery.
type Kind string

const (
	// KindAsset is an uploaded file/image record.
	KindAsset Kind = "assets"
	// KindHistory is an archive/query event record.
	KindHistory Kind = "history"
)

// ParseKind validates a kind string from flags or envelope metadata.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAsset, KindHistory:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown record kind %q (want %q or %q)", s, KindAsset, KindHistory)
	}
}

// Asset describes one previously uploaded file.
//
// ID is unique within a store instance. PrimaryHash, not ID, is the
// deduplication key on import: re-imported data may have been re-identified,
// but the content hash survives.
type Asset struct {
	ID                string `json:"id"`
	PrimaryHash       string `json:"primary_hash"`
	SecondaryChecksum string `json:"secondary_checksum"`
	DegradedHash      bool   `json:"degraded_hash,omitempty"`
	RemoteRef         string `json:"remote_ref"`
	Size              int64  `json:"size"`
	FileName          string `json:"file_name"`
	Annotation        string `json:"annotation,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// DedupKey returns the import deduplication key for the asset.
func (a Asset) DedupKey() string { return a.PrimaryHash }

// HistoryKind distinguishes the two history event shapes.
type HistoryKind string

const (
	HistoryUpload HistoryKind = "upload"
	HistoryQuery  HistoryKind = "query"
)

// HistoryPayload carries the event-specific fields.
//
// Upload events set Link; query events set QueryID. Ext and TS are common.
type HistoryPayload struct {
	Link    string `json:"link,omitempty"`
	QueryID string `json:"query_id,omitempty"`
	Ext     string `json:"ext"`
	TS      string `json:"ts"`
}

// HistoryItem describes one archive/query event.
// History items have no content hash; ID is the deduplication key.
type HistoryItem struct {
	ID        string         `json:"id"`
	Kind      HistoryKind    `json:"kind"`
	Payload   HistoryPayload `json:"payload"`
	CreatedAt string         `json:"created_at"`
}

// DedupKey returns the import deduplication key for the history item.
func (h HistoryItem) DedupKey() string { return h.ID }

// Timestamp formats t as the RFC 3339 UTC form stored in CreatedAt.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// canonicalMap converts an Asset to a map for MarshalCanonical.
// Optional fields are omitted when empty so the canonical form matches the
// struct's JSON shape.
func (a Asset) canonicalMap() map[string]any {
	m := map[string]any{
		"id":                 a.ID,
		"primary_hash":       a.PrimaryHash,
		"secondary_checksum": a.SecondaryChecksum,
		"remote_ref":         a.RemoteRef,
		"size":               a.Size,
		"file_name":          a.FileName,
		"created_at":         a.CreatedAt,
	}
	if a.DegradedHash {
		m["degraded_hash"] = true
	}
	if a.Annotation != "" {
		m["annotation"] = a.Annotation
	}
	return m
}

// canonicalMap converts a HistoryItem to a map for MarshalCanonical.
func (h HistoryItem) canonicalMap() map[string]any {
	payload := map[string]any{
		"ext": h.Payload.Ext,
		"ts":  h.Payload.TS,
	}
	if h.Payload.Link != "" {
		payload["link"] = h.Payload.Link
	}
	if h.Payload.QueryID != "" {
		payload["query_id"] = h.Payload.QueryID
	}
	return map[string]any{
		"id":         h.ID,
		"kind":       string(h.Kind),
		"payload":    payload,
		"created_at": h.CreatedAt,
	}
}

// MarshalAssetsCanonical serializes assets as a canonical JSON array.
// This is the only serialization used for export payloads.
func MarshalAssetsCanonical(assets []Asset) ([]byte, error) {
	arr := make([]any, len(assets))
	for i, a := range assets {
		arr[i] = a.canonicalMap()
	}
	return MarshalCanonical(arr)
}

// MarshalHistoryCanonical serializes history items as a canonical JSON array.
func MarshalHistoryCanonical(items []HistoryItem) ([]byte, error) {
	arr := make([]any, len(items))
	for i, h := range items {
		arr[i] = h.canonicalMap()
	}
	return MarshalCanonical(arr)
}
