package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/wfh-portal/pkg/db"
)

const requestColumns = `id, staff_id, date, type, reason, remarks, status, files, created_at`

func scanRequest(row pgx.CollectableRow) (db.Request, error) {
	var r db.Request
	var date time.Time
	if err := row.Scan(&r.ID, &r.StaffID, &date, &r.Type, &r.Reason, &r.Remarks, &r.Status, &r.Files, &r.CreatedAt); err != nil {
		return db.Request{}, err
	}
	r.Date = date.Format("2006-01-02")
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

// InsertRequests inserts requests in a single transaction and sets their IDs
func (d *DB) InsertRequests(ctx context.Context, requests []db.Request) error {
	if len(requests) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		for i := range requests {
			r := &requests[i]
			if r.Status == "" {
				r.Status = "pending"
			}
			if r.Files == nil {
				r.Files = []string{}
			}
			err := tx.QueryRow(ctx, `
				INSERT INTO wfh_request (staff_id, date, type, reason, remarks, status, files)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id, created_at
			`, r.StaffID, r.Date, r.Type, r.Reason, r.Remarks, r.Status, r.Files).Scan(&r.ID, &r.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert request for %s: %w", r.Date, err)
			}
		}
		return nil
	})
}

// GetRequest retrieves a request by ID
func (d *DB) GetRequest(ctx context.Context, id int) (*db.Request, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+requestColumns+` FROM wfh_request WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query request: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", notFound(err))
	}
	return &r, nil
}

// ListRequests retrieves the requests raised by any of staffIDs, ordered by date
func (d *DB) ListRequests(ctx context.Context, staffIDs []int) ([]db.Request, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM wfh_request
		WHERE staff_id = ANY($1)
		ORDER BY date, id
	`, staffIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	requests, err := pgx.CollectRows(rows, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to scan requests: %w", err)
	}
	return requests, nil
}

// UpdateRequestStatus sets the review status and remarks of a request
func (d *DB) UpdateRequestStatus(ctx context.Context, id int, status, remarks string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE wfh_request SET status = $2, remarks = $3 WHERE id = $1
	`, id, status, remarks)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update request status: %w", db.ErrNotFound)
	}
	return nil
}
