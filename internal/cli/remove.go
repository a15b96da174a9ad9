package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keepsake/internal/record"
)

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:           "rm <id>",
		Short:         "Delete a single record by id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, kindFlag, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "assets", "record kind (assets|history)")

	return cmd
}

func runRemove(opts *RootOptions, kindFlag, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

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

	ctx := cmd.Context()
	if kind == record.KindAsset {
		err = sess.store.DeleteAsset(ctx, id)
	} else {
		err = sess.store.DeleteHistory(ctx, id)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "delete record", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"deleted": id})
	}
	fmt.Fprintf(formatter.Writer, "Deleted %s\n", id)
	return nil
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Delete all records of a kind",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(rootOpts, kindFlag, cmd)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "assets", "record kind (assets|history)")

	return cmd
}

func runClear(opts *RootOptions, kindFlag string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

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

	ctx := cmd.Context()
	if kind == record.KindAsset {
		err = sess.store.ClearAssets(ctx)
	} else {
		err = sess.store.ClearHistory(ctx)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "clear records", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"cleared": string(kind)})
	}
	fmt.Fprintf(formatter.Writer, "Cleared %s\n", kind)
	return nil
}
