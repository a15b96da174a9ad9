package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keepsake/internal/record"
)

// ListResult holds the records returned by the list command.
type ListResult struct {
	Assets  []record.Asset       `json:"assets,omitempty"`
	History []record.HistoryItem `json:"history,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List archived records",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, kindFlag, cmd)
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "assets", "record kind (assets|history)")

	return cmd
}

func runList(opts *RootOptions, kindFlag string, cmd *cobra.Command) error {
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
	switch kind {
	case record.KindAsset:
		assets := sess.store.Assets(ctx)
		if formatter.Format == "json" {
			return formatter.Success(ListResult{Assets: assets})
		}
		if len(assets) == 0 {
			fmt.Fprintln(formatter.Writer, "no assets")
			return nil
		}
		for _, a := range assets {
			marker := ""
			if a.DegradedHash {
				marker = " (degraded hash)"
			}
			fmt.Fprintf(formatter.Writer, "%s  %s  %d bytes  %s%s\n",
				a.ID, a.FileName, a.Size, a.CreatedAt, marker)
		}
	case record.KindHistory:
		items := sess.store.History(ctx)
		if formatter.Format == "json" {
			return formatter.Success(ListResult{History: items})
		}
		if len(items) == 0 {
			fmt.Fprintln(formatter.Writer, "no history")
			return nil
		}
		for _, h := range items {
			fmt.Fprintf(formatter.Writer, "%s  %s  %s\n", h.ID, h.Kind, h.CreatedAt)
		}
	}
	return nil
}
