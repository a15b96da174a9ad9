package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/keepsake/internal/record"
)

// AddResult holds the record created by the add command.
type AddResult struct {
	Asset    record.Asset `json:"asset"`
	Degraded bool         `json:"degraded_hash,omitempty"`
}

// Identity and time sources for new records. Tests swap these for a
// FixedGenerator and a deterministic clock to pin ids and timestamps.
var (
	newRecordID record.IDGenerator = record.UUIDv7Generator{}
	timeNow                        = time.Now
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var remoteRef string
	var annotation string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Hash a file and record it in the archive",
		Long: `Hash a file's contents and store an asset record for it.

The file is assumed to be already uploaded; --remote-ref carries the URL or
content identifier the remote store returned. An upload history item is
recorded alongside the asset.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(rootOpts, args[0], remoteRef, annotation, cmd)
		},
	}

	cmd.Flags().StringVar(&remoteRef, "remote-ref", "", "URL/content identifier from the remote store (required)")
	cmd.Flags().StringVar(&annotation, "annotation", "", "free-text note attached to the record")
	cmd.MarkFlagRequired("remote-ref")

	return cmd
}

func runAdd(opts *RootOptions, path, remoteRef, annotation string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("read %s: %v", path, err), nil)
		return WrapExitError(ExitCommandError, "read file", err)
	}

	sess, err := openSession(opts, formatter)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return err
	}
	defer sess.Close()

	hasher := record.NewHasher()
	primary := hasher.PrimaryHash(data)
	if primary.Degraded {
		formatter.VerboseLog("digest degraded for %s: hash is not a stable dedup key", path)
	}

	now := timeNow()

	asset := record.Asset{
		ID:                newRecordID.Generate(),
		PrimaryHash:       primary.Hex,
		SecondaryChecksum: hasher.SecondaryChecksum(data),
		DegradedHash:      primary.Degraded,
		RemoteRef:         remoteRef,
		Size:              int64(len(data)),
		FileName:          filepath.Base(path),
		Annotation:        annotation,
		CreatedAt:         record.Timestamp(now),
	}

	ctx := cmd.Context()
	if err := sess.store.PutAsset(ctx, asset); err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "store asset", err)
	}

	item := record.HistoryItem{
		ID:   newRecordID.Generate(),
		Kind: record.HistoryUpload,
		Payload: record.HistoryPayload{
			Link: remoteRef,
			Ext:  strings.TrimPrefix(filepath.Ext(path), "."),
			TS:   fmt.Sprintf("%d", now.Unix()),
		},
		CreatedAt: record.Timestamp(now),
	}
	if err := sess.store.PutHistory(ctx, item); err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "store history", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(AddResult{Asset: asset, Degraded: primary.Degraded})
	}
	fmt.Fprintf(formatter.Writer, "Added %s (%s, %d bytes)\n", asset.ID, asset.FileName, asset.Size)
	if primary.Degraded {
		fmt.Fprintln(formatter.Writer, "warning: hash may be unreliable (degraded digest)")
	}
	return nil
}
