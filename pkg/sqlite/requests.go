package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/wfh-portal/pkg/db"
)

const requestColumns = `id, staff_id, date, type, reason, remarks, status, files, created_at`

func scanRequest(s scanner) (db.Request, error) {
	var r db.Request
	var files, createdAt string
	if err := s.Scan(&r.ID, &r.StaffID, &r.Date, &r.Type, &r.Reason, &r.Remarks, &r.Status, &files, &createdAt); err != nil {
		return db.Request{}, err
	}
	if err := json.Unmarshal([]byte(files), &r.Files); err != nil {
		return db.Request{}, fmt.Errorf("failed to parse files of request %d: %w", r.ID, err)
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return db.Request{}, fmt.Errorf("failed to parse created_at of request %d: %w", r.ID, err)
	}
	r.CreatedAt = t
	return r, nil
}

// InsertRequests inserts requests in a single transaction and sets their IDs
func (d *DB) InsertRequests(ctx context.Context, requests []db.Request) error {
	if len(requests) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return d.WithTransaction(ctx, func(tx *sql.Tx) error {
		for i := range requests {
			r := &requests[i]
			if r.Status == "" {
				r.Status = "pending"
			}
			if r.Files == nil {
				r.Files = []string{}
			}
			files, err := json.Marshal(r.Files)
			if err != nil {
				return fmt.Errorf("failed to marshal files: %w", err)
			}
			r.CreatedAt = now

			res, err := tx.ExecContext(ctx, `
				INSERT INTO wfh_request (staff_id, date, type, reason, remarks, status, files, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, r.StaffID, r.Date, r.Type, r.Reason, r.Remarks, r.Status, string(files), now.Format(timeLayout))
			if err != nil {
				return fmt.Errorf("failed to insert request for %s: %w", r.Date, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read request id: %w", err)
			}
			r.ID = int(id)
		}
		return nil
	})
}

// GetRequest retrieves a request by ID
func (d *DB) GetRequest(ctx context.Context, id int) (*db.Request, error) {
	r, err := scanRequest(d.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM wfh_request WHERE id = ?`, id))
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

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(staffIDs)), ",")
	args := make([]any, len(staffIDs))
	for i, id := range staffIDs {
		args[i] = id
	}

	rows, err := d.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM wfh_request
		WHERE staff_id IN (`+placeholders+`)
		ORDER BY date, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []db.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	return requests, nil
}

// UpdateRequestStatus sets the review status and remarks of a request
func (d *DB) UpdateRequestStatus(ctx context.Context, id int, status, remarks string) error {
	res, err := d.ExecContext(ctx, `UPDATE wfh_request SET status = ?, remarks = ? WHERE id = ?`, status, remarks, id)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update request status: %w", db.ErrNotFound)
	}
	return nil
}
