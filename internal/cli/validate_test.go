package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keepsake/internal/config"
)

// fakeAuthority answers validate-batch requests with a canned verdict per
// primary hash.
func fakeAuthority(t *testing.T, verdicts map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/assets/validate-batch", r.URL.Path)

		var req struct {
			Items []struct {
				ID          string `json:"id"`
				PrimaryHash string `json:"primaryHash"`
			} `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type result struct {
			IsValid bool   `json:"isValid"`
			Message string `json:"message"`
		}
		resp := struct {
			Results []result `json:"results"`
		}{}
		for _, item := range req.Items {
			ok, known := verdicts[item.PrimaryHash]
			res := result{IsValid: ok && known}
			if !res.IsValid {
				res.Message = "hash mismatch"
			}
			resp.Results = append(resp.Results, res)
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func addFixture(t *testing.T, opts *RootOptions, name, content string) {
	t.Helper()
	file := writeTempFile(t, name, content)
	_, err := execute(t, NewAddCommand(opts), file, "--remote-ref", "https://store.example/"+name)
	require.NoError(t, err)
}

func TestValidateAllValid(t *testing.T) {
	opts := testOpts(t)
	addFixture(t, opts, "good.txt", "good content")

	// The authority recognizes every hash it is asked about.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Items []json.RawMessage `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		results := make([]map[string]any, len(req.Items))
		for i := range results {
			results[i] = map[string]any{"isValid": true, "message": ""}
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer srv.Close()
	t.Setenv(config.EnvRemoteURL, srv.URL)

	out, err := execute(t, NewValidateCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestValidateInvalidRecordExitsOne(t *testing.T) {
	opts := testOpts(t)
	addFixture(t, opts, "tampered.txt", "tampered content")

	srv := fakeAuthority(t, map[string]bool{})
	defer srv.Close()
	t.Setenv(config.EnvRemoteURL, srv.URL)

	out, err := execute(t, NewValidateCommand(opts))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "INVALID")
	assert.Contains(t, out, "hash mismatch")

	// Advisory only: the record is still here.
	listOut, err := execute(t, NewListCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, listOut, "tampered.txt")
}

func TestValidateNoRemoteConfigured(t *testing.T) {
	opts := testOpts(t)
	addFixture(t, opts, "a.txt", "a")

	_, err := execute(t, NewValidateCommand(opts))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateUnknownIDs(t *testing.T) {
	opts := testOpts(t)
	addFixture(t, opts, "b.txt", "b")

	srv := fakeAuthority(t, map[string]bool{})
	defer srv.Close()
	t.Setenv(config.EnvRemoteURL, srv.URL)

	out, err := execute(t, NewValidateCommand(opts), "no-such-id")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateAuthorityDown(t *testing.T) {
	opts := testOpts(t)
	addFixture(t, opts, "c.txt", "c")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	t.Setenv(config.EnvRemoteURL, srv.URL)

	out, err := execute(t, NewValidateCommand(opts))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeRemote)
}

func TestValidateJSONReport(t *testing.T) {
	opts := testOpts(t)
	opts.Format = "json"
	addFixture(t, opts, "d.txt", "d")

	srv := fakeAuthority(t, map[string]bool{})
	defer srv.Close()
	t.Setenv(config.EnvRemoteURL, srv.URL)

	out, err := execute(t, NewValidateCommand(opts))
	require.Error(t, err) // invalid record still exits 1

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, _ := json.Marshal(resp.Data)
	var report ValidateReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 1, report.Invalid)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].IsValid)
}
