package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/keepsake/internal/archive"
	"github.com/roach88/keepsake/internal/codec"
	"github.com/roach88/keepsake/internal/record"
)

// ImportResult reports how many records an import actually merged.
type ImportResult struct {
	Added int    `json:"added"`
	Kind  string `json:"kind"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var kindFlag string
	var secret string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge records from an envelope file into the archive",
		Long: `Import an envelope file produced by export, on this or another device.

Records already present (same content hash for assets, same id for history)
are skipped; the printed count is the number actually added. Items that fail
schema validation are dropped from the merge without failing the import.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, kindFlag, secret, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "assets", "record kind (assets|history)")
	cmd.Flags().StringVar(&secret, "secret", "", "secret for encrypted envelopes (default: configured secret)")

	return cmd
}

func runImport(opts *RootOptions, kindFlag, secret, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	kind, err := record.ParseKind(kindFlag)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse kind", err)
	}

	f, err := os.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("open %s: %v", path, err), nil)
		return WrapExitError(ExitCommandError, "open archive file", err)
	}
	defer f.Close()

	sess, err := openSession(opts, formatter)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return err
	}
	defer sess.Close()

	if secret == "" {
		secret = sess.cfg.ExportSecret
	}

	archiver, err := archive.New(sess.store)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "init archiver", err)
	}

	added, err := archiver.Import(cmd.Context(), kind, secret, f)
	if err != nil {
		return importError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ImportResult{Added: added, Kind: string(kind)})
	}
	fmt.Fprintf(formatter.Writer, "Imported %d new %s record(s)\n", added, kind)
	return nil
}

// importError maps archive failures onto error codes and exit codes.
// Format and decode failures are data problems (exit 1), everything else is
// a command error (exit 2).
func importError(formatter *OutputFormatter, err error) error {
	var formatErr *archive.FormatError
	if errors.As(err, &formatErr) {
		_ = formatter.Error(ErrCodeFormat, formatErr.Error(), nil)
		return WrapExitError(ExitFailure, "import", err)
	}

	var decodeErr *codec.DecodeError
	if errors.As(err, &decodeErr) {
		_ = formatter.Error(ErrCodeDecode, decodeErr.Error(), decodeErr.Tried)
		return WrapExitError(ExitFailure, "import", err)
	}

	var decryptErr *codec.DecryptError
	if errors.As(err, &decryptErr) {
		_ = formatter.Error(ErrCodeDecode, decryptErr.Error(), nil)
		return WrapExitError(ExitFailure, "import", err)
	}

	_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
	return WrapExitError(ExitCommandError, "import", err)
}
