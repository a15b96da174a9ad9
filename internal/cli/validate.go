package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keepsake/internal/record"
	"github.com/roach88/keepsake/internal/remote"
)

// ValidationResult holds one record's verdict from the remote authority.
type ValidationResult struct {
	ID      string `json:"id"`
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

// ValidateReport is the full validate command output.
type ValidateReport struct {
	Results []ValidationResult `json:"results"`
	Invalid int                `json:"invalid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [id...]",
		Short: "Cross-check records against the remote authority",
		Long: `Validate local records against the remote authority's copy.

With no arguments every asset is checked in one batch; otherwise only the
named ids. The verdict is advisory: invalid records are reported but never
deleted locally.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, ids []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	sess, err := openSession(opts, formatter)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return err
	}
	defer sess.Close()

	if sess.cfg.RemoteURL == "" {
		msg := "no remote authority configured (set remote_url or KEEPSAKE_REMOTE_URL)"
		_ = formatter.Error(ErrCodeRemote, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	ctx := cmd.Context()
	assets := selectAssets(sess.store.Assets(ctx), ids)
	if len(assets) == 0 {
		if len(ids) > 0 {
			msg := "none of the given ids exist locally"
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		return formatter.Success("no records to validate")
	}

	items := make([]remote.Item, len(assets))
	for i, a := range assets {
		items[i] = remote.Item{
			ID:                a.ID,
			PrimaryHash:       a.PrimaryHash,
			SecondaryChecksum: a.SecondaryChecksum,
		}
	}

	client := &remote.Client{BaseURL: sess.cfg.RemoteURL}
	results, err := client.ValidateBatch(ctx, items)
	if err != nil {
		var remoteErr *remote.Error
		if errors.As(err, &remoteErr) {
			_ = formatter.Error(ErrCodeRemote, remoteErr.Error(), nil)
		} else {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		}
		// Advisory check, but the command itself could not complete.
		return WrapExitError(ExitCommandError, "remote validation", err)
	}

	// Results answer by position; zip with the request, never match by id.
	report := ValidateReport{Results: make([]ValidationResult, len(results))}
	for i, r := range results {
		report.Results[i] = ValidationResult{
			ID:      assets[i].ID,
			IsValid: r.IsValid,
			Message: r.Message,
		}
		if !r.IsValid {
			report.Invalid++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		for _, r := range report.Results {
			mark := "ok"
			if !r.IsValid {
				mark = "INVALID"
			}
			fmt.Fprintf(formatter.Writer, "%s  %s", r.ID, mark)
			if r.Message != "" {
				fmt.Fprintf(formatter.Writer, "  %s", r.Message)
			}
			fmt.Fprintln(formatter.Writer)
		}
	}

	if report.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d record(s) failed validation", report.Invalid))
	}
	return nil
}

// selectAssets filters assets to the requested ids; an empty filter keeps
// everything. Order follows the store listing, not the argument order.
func selectAssets(assets []record.Asset, ids []string) []record.Asset {
	if len(ids) == 0 {
		return assets
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	selected := []record.Asset{}
	for _, a := range assets {
		if want[a.ID] {
			selected = append(selected, a)
		}
	}
	return selected
}
