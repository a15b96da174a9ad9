package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rename <id> <name>",
		Short:         "Change an asset's file name",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(rootOpts, "rename", args[0], args[1], cmd)
		},
	}
}

// NewAnnotateCommand creates the annotate command.
func NewAnnotateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "annotate <id> <note>",
		Short:         "Attach a free-text note to an asset",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(rootOpts, "annotate", args[0], args[1], cmd)
		},
	}
}

func runEdit(opts *RootOptions, op, id, value string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	sess, err := openSession(opts, formatter)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	if op == "rename" {
		err = sess.store.RenameAsset(ctx, id, value)
	} else {
		err = sess.store.AnnotateAsset(ctx, id, value)
	}

	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no asset with id %s", id), nil)
		return NewExitError(ExitCommandError, "asset not found")
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, op, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"id": id, op: value})
	}
	fmt.Fprintf(formatter.Writer, "Updated %s\n", id)
	return nil
}
