package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/keepsake/internal/archive"
	"github.com/roach88/keepsake/internal/record"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		modeFlag string
		kindFlag string
		output   string
		secret   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all records of a kind to an envelope file",
		Long: `Export records as an envelope file for transfer to another device.

Modes: plain (readable JSON), encoded (Base64 payload), encrypted
(AES-256-CBC payload; requires a secret). The secret comes from --secret,
or from the configured export secret when the flag is absent.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, modeFlag, kindFlag, output, secret, cmd)
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "plain", "envelope mode (plain|encoded|encrypted)")
	cmd.Flags().StringVar(&kindFlag, "kind", "assets", "record kind (assets|history)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&secret, "secret", "", "secret for encrypted mode (default: configured secret)")

	return cmd
}

func runExport(opts *RootOptions, modeFlag, kindFlag, output, secret string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	mode, err := archive.ParseMode(modeFlag)
	if err != nil {
		_ = formatter.Error(ErrCodeFormat, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse mode", err)
	}
	kind, err := record.ParseKind(kindFlag)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse kind", err)
	}

	sess, err := openSession(opts, formatter)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return err
	}
	defer sess.Close()

	if secret == "" {
		secret = sess.cfg.ExportSecret
	}
	if mode == archive.ModeEncrypted && secret == "" {
		msg := "encrypted export needs --secret or a configured export secret"
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	archiver, err := archive.New(sess.store)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "init archiver", err)
	}

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
			return WrapExitError(ExitCommandError, "create output file", err)
		}
		defer f.Close()
		w = f
	}

	if err := archiver.Export(cmd.Context(), kind, mode, secret, w); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "export", err)
	}

	if output != "" {
		if formatter.Format == "json" {
			return formatter.Success(map[string]string{
				"file": output, "kind": string(kind), "mode": string(mode),
			})
		}
		fmt.Fprintf(formatter.Writer, "Exported %s (%s) to %s\n", kind, mode, output)
	}
	return nil
}
