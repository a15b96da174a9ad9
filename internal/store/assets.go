package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/keepsake/internal/record"
)

// Assets returns all asset records in deterministic order
// (created_at ASC, id ASC COLLATE BINARY).
//
// A read failure is treated as store corruption: the recovery path runs and
// the caller receives an empty slice, never an error. Returns an empty slice
// (not nil) when no records exist.
func (s *Store) Assets(ctx context.Context) []record.Asset {
	assets, err := s.readAssets(ctx)
	if err != nil {
		s.logger.Error("asset read failed, treating as corruption", "error", err)
		s.recoverTable(ctx, "assets")
		return []record.Asset{}
	}
	return assets
}

func (s *Store) readAssets(ctx context.Context) ([]record.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, primary_hash, secondary_checksum, degraded_hash,
		       remote_ref, size, file_name, annotation, created_at
		FROM assets
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []record.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}

	if assets == nil {
		assets = []record.Asset{}
	}

	return assets, nil
}

// PutAsset inserts an asset record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - retried writes are
// silently ignored. Mutation goes through RenameAsset/AnnotateAsset only.
func (s *Store) PutAsset(ctx context.Context, a record.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets
		(id, primary_hash, secondary_checksum, degraded_hash, remote_ref, size, file_name, annotation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		a.ID,
		a.PrimaryHash,
		a.SecondaryChecksum,
		boolToInt(a.DegradedHash),
		a.RemoteRef,
		a.Size,
		a.FileName,
		a.Annotation,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("put asset: %w", err)
	}
	return nil
}

// DeleteAsset removes a single asset by id.
// Deleting a missing id is not an error (idempotent).
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

// ClearAssets removes all asset records.
func (s *Store) ClearAssets(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM assets"); err != nil {
		return fmt.Errorf("clear assets: %w", err)
	}
	return nil
}

// ReplaceAssets atomically replaces the whole asset collection.
// The import merge writes its result wholesale rather than patching rows
// incrementally; two overlapping imports therefore resolve last-write-wins.
func (s *Store) ReplaceAssets(ctx context.Context, assets []record.Asset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace assets: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, "DELETE FROM assets"); err != nil {
		return fmt.Errorf("replace assets: clear: %w", err)
	}

	for _, a := range assets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO assets
			(id, primary_hash, secondary_checksum, degraded_hash, remote_ref, size, file_name, annotation, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			a.ID,
			a.PrimaryHash,
			a.SecondaryChecksum,
			boolToInt(a.DegradedHash),
			a.RemoteRef,
			a.Size,
			a.FileName,
			a.Annotation,
			a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("replace assets: insert %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace assets: commit: %w", err)
	}
	return nil
}

// RenameAsset updates an asset's file name.
// Returns sql.ErrNoRows if the id does not exist.
func (s *Store) RenameAsset(ctx context.Context, id, fileName string) error {
	return s.updateAssetField(ctx, id, "file_name", fileName)
}

// AnnotateAsset sets an asset's free-text annotation.
// Returns sql.ErrNoRows if the id does not exist.
func (s *Store) AnnotateAsset(ctx context.Context, id, annotation string) error {
	return s.updateAssetField(ctx, id, "annotation", annotation)
}

func (s *Store) updateAssetField(ctx context.Context, id, column, value string) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE assets SET %s = ? WHERE id = ?", column), value, id)
	if err != nil {
		return fmt.Errorf("update asset %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update asset %s: %w", column, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanAsset(rows *sql.Rows) (record.Asset, error) {
	var a record.Asset
	var degraded int

	if err := rows.Scan(
		&a.ID, &a.PrimaryHash, &a.SecondaryChecksum, &degraded,
		&a.RemoteRef, &a.Size, &a.FileName, &a.Annotation, &a.CreatedAt,
	); err != nil {
		return record.Asset{}, fmt.Errorf("scan asset: %w", err)
	}

	a.DegradedHash = degraded != 0
	return a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
