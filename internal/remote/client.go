// Package remote talks to the validation authority that holds the server-side
// view of uploaded assets.
//
// The authority is advisory: a failed validation flags a record for the
// caller but never triggers local deletion. The local store stays the
// durable source of truth for what the user has.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/roach88/keepsake/internal/record"
)

// Client validates local records against the remote authority.
//
// The zero HTTPClient falls back to http.DefaultClient. No retry or timeout
// policy lives here: cancellation and deadlines come from the caller's
// context.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Item is one record reference submitted for validation.
type Item struct {
	ID                string `json:"id"`
	PrimaryHash       string `json:"primaryHash"`
	SecondaryChecksum string `json:"secondaryChecksum"`
}

// Result is the authority's verdict for one submitted item.
// Record, when present, is the server's copy for comparison.
type Result struct {
	IsValid bool
	Message string
	Record  *record.Asset
}

// Error wraps any network or protocol failure from the authority.
// Callers treat it as advisory. The store is never modified in response.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "remote validation " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

type batchRequest struct {
	Items []Item `json:"items"`
}

// wireAsset is the authority's camelCase record shape. The local store keeps
// its own snake_case form, so the two never share struct tags.
type wireAsset struct {
	ID                string `json:"id"`
	PrimaryHash       string `json:"primaryHash"`
	SecondaryChecksum string `json:"secondaryChecksum"`
	DegradedHash      bool   `json:"degradedHash,omitempty"`
	RemoteRef         string `json:"remoteReference"`
	Size              int64  `json:"size"`
	FileName          string `json:"fileName"`
	Annotation        string `json:"annotation,omitempty"`
	CreatedAt         string `json:"createdAt"`
}

func (w *wireAsset) toAsset() *record.Asset {
	return &record.Asset{
		ID:                w.ID,
		PrimaryHash:       w.PrimaryHash,
		SecondaryChecksum: w.SecondaryChecksum,
		DegradedHash:      w.DegradedHash,
		RemoteRef:         w.RemoteRef,
		Size:              w.Size,
		FileName:          w.FileName,
		Annotation:        w.Annotation,
		CreatedAt:         w.CreatedAt,
	}
}

type wireResult struct {
	IsValid bool       `json:"isValid"`
	Message string     `json:"message"`
	Record  *wireAsset `json:"record,omitempty"`
}

type batchResponse struct {
	Results []wireResult `json:"results"`
}

// ValidateOne checks a single record against the authority.
func (c *Client) ValidateOne(ctx context.Context, id, primaryHash, secondaryChecksum string) (Result, error) {
	results, err := c.ValidateBatch(ctx, []Item{{
		ID:                id,
		PrimaryHash:       primaryHash,
		SecondaryChecksum: secondaryChecksum,
	}})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// ValidateBatch checks records against the authority in one round trip.
//
// Results are position-correlated with items: results[i] answers items[i].
// Callers must zip by index, never search by id. A response whose length
// does not match the request is a protocol error.
func (c *Client) ValidateBatch(ctx context.Context, items []Item) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}

	body, err := json.Marshal(batchRequest{Items: items})
	if err != nil {
		return nil, &Error{Op: "encode request", Err: err}
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/api/assets/validate-batch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &Error{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the message; ignore read errors.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{
			Op:  "post",
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg)),
		}
	}

	var parsed batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Op: "decode response", Err: err}
	}
	if len(parsed.Results) != len(items) {
		return nil, &Error{
			Op:  "decode response",
			Err: fmt.Errorf("got %d results for %d items", len(parsed.Results), len(items)),
		}
	}

	results := make([]Result, len(parsed.Results))
	for i, r := range parsed.Results {
		results[i] = Result{IsValid: r.IsValid, Message: r.Message}
		if r.Record != nil {
			results[i].Record = r.Record.toAsset()
		}
	}
	return results, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
