package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jakechorley/wfh-portal/pkg/db"
)

// InsertTransfer records a manager transfer and sets its ID
func (d *DB) InsertTransfer(ctx context.Context, t *db.Transfer) error {
	t.CreatedAt = time.Now().UTC()
	res, err := d.ExecContext(ctx, `
		INSERT INTO manager_transfer (staff_id, from_manager_id, to_manager_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, t.StaffID, nullableID(t.FromManagerID), t.ToManagerID, t.Status, t.CreatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transfer id: %w", err)
	}
	t.ID = int(id)
	return nil
}

// ListTransfers retrieves transfers involving staffID, newest first
func (d *DB) ListTransfers(ctx context.Context, staffID int) ([]db.Transfer, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT id, staff_id, from_manager_id, to_manager_id, status, created_at
		FROM manager_transfer
		WHERE staff_id = ?1 OR from_manager_id = ?1 OR to_manager_id = ?1
		ORDER BY created_at DESC, id DESC
	`, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []db.Transfer
	for rows.Next() {
		var t db.Transfer
		var from sql.NullInt64
		var createdAt string
		if err := rows.Scan(&t.ID, &t.StaffID, &from, &t.ToManagerID, &t.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		t.FromManagerID = int(from.Int64)
		if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at of transfer %d: %w", t.ID, err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}
