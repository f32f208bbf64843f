package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/wfh-portal/pkg/db"
)

// InsertTransfer records a manager transfer and sets its ID
func (d *DB) InsertTransfer(ctx context.Context, t *db.Transfer) error {
	err := d.pool.QueryRow(ctx, `
		INSERT INTO manager_transfer (staff_id, from_manager_id, to_manager_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, t.StaffID, nullableID(t.FromManagerID), t.ToManagerID, t.Status).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	return nil
}

// ListTransfers retrieves transfers involving staffID, newest first
func (d *DB) ListTransfers(ctx context.Context, staffID int) ([]db.Transfer, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, staff_id, from_manager_id, to_manager_id, status, created_at
		FROM manager_transfer
		WHERE staff_id = $1 OR from_manager_id = $1 OR to_manager_id = $1
		ORDER BY created_at DESC, id DESC
	`, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}

	transfers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.Transfer, error) {
		var t db.Transfer
		var from *int
		if err := row.Scan(&t.ID, &t.StaffID, &from, &t.ToManagerID, &t.Status, &t.CreatedAt); err != nil {
			return db.Transfer{}, err
		}
		if from != nil {
			t.FromManagerID = *from
		}
		t.CreatedAt = t.CreatedAt.UTC()
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan transfers: %w", err)
	}
	return transfers, nil
}
