package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keepsake/internal/record"
)

func TestValidateBatch_PositionCorrelated(t *testing.T) {
	var gotBody batchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/assets/validate-batch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		// Answer in request order, not id order.
		resp := batchResponse{Results: make([]wireResult, len(gotBody.Items))}
		for i, item := range gotBody.Items {
			resp.Results[i] = wireResult{
				IsValid: item.PrimaryHash == "good",
				Message: "checked " + item.ID,
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	results, err := c.ValidateBatch(context.Background(), []Item{
		{ID: "z-last", PrimaryHash: "good", SecondaryChecksum: "s1"},
		{ID: "a-first", PrimaryHash: "bad", SecondaryChecksum: "s2"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// results[i] answers items[i] regardless of id ordering.
	assert.True(t, results[0].IsValid)
	assert.Equal(t, "checked z-last", results[0].Message)
	assert.False(t, results[1].IsValid)
	assert.Equal(t, "checked a-first", results[1].Message)
}

func TestValidateBatch_LengthMismatchIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchResponse{Results: []wireResult{{IsValid: true}}})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.ValidateBatch(context.Background(), []Item{
		{ID: "a-1"}, {ID: "a-2"},
	})
	require.Error(t, err)

	var remoteErr *Error
	require.True(t, errors.As(err, &remoteErr), "want *remote.Error, got %T", err)
}

func TestValidateBatch_ServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "authority unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.ValidateBatch(context.Background(), []Item{{ID: "a-1"}})

	var remoteErr *Error
	require.True(t, errors.As(err, &remoteErr))
	assert.Contains(t, remoteErr.Error(), "502")
}

func TestValidateBatch_EmptyInputSkipsNetwork(t *testing.T) {
	c := &Client{BaseURL: "http://127.0.0.1:0"}

	results, err := c.ValidateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestValidateOne_MapsServerRecordFromWireShape(t *testing.T) {
	// The authority speaks camelCase; a raw fixture guards against the
	// client round-tripping its own struct tags instead of the protocol's.
	const response = `{
		"results": [{
			"isValid": false,
			"message": "hash mismatch",
			"record": {
				"id": "a-1",
				"primaryHash": "server-hash",
				"secondaryChecksum": "server-sum",
				"remoteReference": "https://store.example/a-1",
				"size": 42,
				"fileName": "photo.png",
				"createdAt": "2024-05-01T12:00:00Z"
			}
		}]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	result, err := c.ValidateOne(context.Background(), "a-1", "local-hash", "local-sum")
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.Equal(t, "hash mismatch", result.Message)
	require.NotNil(t, result.Record)
	assert.Equal(t, record.Asset{
		ID:                "a-1",
		PrimaryHash:       "server-hash",
		SecondaryChecksum: "server-sum",
		RemoteRef:         "https://store.example/a-1",
		Size:              42,
		FileName:          "photo.png",
		CreatedAt:         "2024-05-01T12:00:00Z",
	}, *result.Record)
}

func TestValidateBatch_ResultWithoutRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"isValid":true,"message":""}]}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	results, err := c.ValidateBatch(context.Background(), []Item{{ID: "a-1"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].IsValid)
	assert.Nil(t, results[0].Record)
}

func TestValidateBatch_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &Client{BaseURL: srv.URL}
	_, err := c.ValidateBatch(ctx, []Item{{ID: "a-1"}})

	var remoteErr *Error
	require.True(t, errors.As(err, &remoteErr))
	assert.True(t, errors.Is(err, context.Canceled))
}
