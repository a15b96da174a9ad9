package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/keepsake/internal/record"
)

// History returns all history items in deterministic order
// (created_at ASC, id ASC COLLATE BINARY).
//
// Read failures are treated as corruption, same policy as Assets: recover,
// log, return an empty slice.
func (s *Store) History(ctx context.Context) []record.HistoryItem {
	items, err := s.readHistory(ctx)
	if err != nil {
		s.logger.Error("history read failed, treating as corruption", "error", err)
		s.recoverTable(ctx, "history")
		return []record.HistoryItem{}
	}
	return items
}

func (s *Store) readHistory(ctx context.Context) ([]record.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, payload, created_at
		FROM history
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var items []record.HistoryItem
	for rows.Next() {
		h, err := scanHistoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	if items == nil {
		items = []record.HistoryItem{}
	}

	return items, nil
}

// PutHistory inserts a history item.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) PutHistory(ctx context.Context, h record.HistoryItem) error {
	payloadJSON, err := marshalPayload(h.Payload)
	if err != nil {
		return fmt.Errorf("put history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (id, kind, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		h.ID,
		string(h.Kind),
		payloadJSON,
		h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("put history: %w", err)
	}
	return nil
}

// DeleteHistory removes a single history item by id.
// Deleting a missing id is not an error (idempotent).
func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// ClearHistory removes all history items.
func (s *Store) ClearHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// ReplaceHistory atomically replaces the whole history collection.
// Same wholesale-rewrite semantics as ReplaceAssets.
func (s *Store) ReplaceHistory(ctx context.Context, items []record.HistoryItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace history: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("replace history: clear: %w", err)
	}

	for _, h := range items {
		payloadJSON, err := marshalPayload(h.Payload)
		if err != nil {
			return fmt.Errorf("replace history: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO history (id, kind, payload, created_at)
			VALUES (?, ?, ?, ?)
		`,
			h.ID,
			string(h.Kind),
			payloadJSON,
			h.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("replace history: insert %s: %w", h.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace history: commit: %w", err)
	}
	return nil
}

func scanHistoryItem(rows *sql.Rows) (record.HistoryItem, error) {
	var h record.HistoryItem
	var kind, payloadJSON string

	if err := rows.Scan(&h.ID, &kind, &payloadJSON, &h.CreatedAt); err != nil {
		return record.HistoryItem{}, fmt.Errorf("scan history item: %w", err)
	}

	h.Kind = record.HistoryKind(kind)

	payload, err := unmarshalPayload(payloadJSON)
	if err != nil {
		return record.HistoryItem{}, err
	}
	h.Payload = payload

	return h, nil
}
