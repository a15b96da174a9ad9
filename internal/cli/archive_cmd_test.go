package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTripViaFiles(t *testing.T) {
	srcOpts := testOpts(t)
	file := writeTempFile(t, "photo.png", "image payload")

	_, err := execute(t, NewAddCommand(srcOpts), file, "--remote-ref", "https://store.example/p1")
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "assets.json")
	out, err := execute(t, NewExportCommand(srcOpts),
		"--mode", "encrypted", "--secret", "travel-pw", "-o", archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported assets (encrypted)")

	// Fresh store plays the role of the second device.
	dstOpts := testOpts(t)
	out, err = execute(t, NewImportCommand(dstOpts), archivePath, "--secret", "travel-pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 new assets record(s)")

	out, err = execute(t, NewListCommand(dstOpts))
	require.NoError(t, err)
	assert.Contains(t, out, "photo.png")
}

func TestExportToStdout(t *testing.T) {
	opts := testOpts(t)
	file := writeTempFile(t, "a.txt", "a")
	_, err := execute(t, NewAddCommand(opts), file, "--remote-ref", "https://x")
	require.NoError(t, err)

	out, err := execute(t, NewExportCommand(opts), "--mode", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, `"mode":"plain"`)
	assert.Contains(t, out, "a.txt")
}

func TestExportEncryptedWithoutSecret(t *testing.T) {
	opts := testOpts(t)

	out, err := execute(t, NewExportCommand(opts), "--mode", "encrypted")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "secret")
}

func TestImportReimportAddsZero(t *testing.T) {
	opts := testOpts(t)
	file := writeTempFile(t, "b.txt", "b")
	_, err := execute(t, NewAddCommand(opts), file, "--remote-ref", "https://x")
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "b.json")
	_, err = execute(t, NewExportCommand(opts), "-o", archivePath)
	require.NoError(t, err)

	out, err := execute(t, NewImportCommand(opts), archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 new assets record(s)")
}

func TestImportGarbageEnvelopeExitsOne(t *testing.T) {
	opts := testOpts(t)
	bad := writeTempFile(t, "bad.json", `{"mode":"compressed","data":[]}`)

	out, err := execute(t, NewImportCommand(opts), bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeFormat)
}

func TestImportWrongSecretExitsOne(t *testing.T) {
	opts := testOpts(t)
	file := writeTempFile(t, "c.txt", "c")
	_, err := execute(t, NewAddCommand(opts), file, "--remote-ref", "https://x")
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "c.json")
	_, err = execute(t, NewExportCommand(opts),
		"--mode", "encrypted", "--secret", "right", "-o", archivePath)
	require.NoError(t, err)

	out, err := execute(t, NewImportCommand(opts), archivePath, "--secret", "wrong")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeDecode)
}

func TestImportMissingFile(t *testing.T) {
	opts := testOpts(t)

	_, err := execute(t, NewImportCommand(opts), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportUsesConfiguredSecret(t *testing.T) {
	opts := testOpts(t)
	t.Setenv("KEEPSAKE_EXPORT_SECRET", "from-env")
	file := writeTempFile(t, "d.txt", "d")
	_, err := execute(t, NewAddCommand(opts), file, "--remote-ref", "https://x")
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "d.json")
	_, err = execute(t, NewExportCommand(opts), "--mode", "encrypted", "-o", archivePath)
	require.NoError(t, err)

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"encrypted"`)

	// Import falls back to the same configured secret.
	out, err := execute(t, NewImportCommand(opts), archivePath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 new")
}
