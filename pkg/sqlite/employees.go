package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jakechorley/wfh-portal/pkg/db"
)

const employeeColumns = `staff_id, name, email, position, department, reporting_manager, password_hash`

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(s scanner) (db.Employee, error) {
	var e db.Employee
	var manager sql.NullInt64
	if err := s.Scan(&e.StaffID, &e.Name, &e.Email, &e.Position, &e.Department, &manager, &e.PasswordHash); err != nil {
		return db.Employee{}, err
	}
	e.ReportingManager = int(manager.Int64)
	return e, nil
}

func (d *DB) queryEmployees(ctx context.Context, query string, args ...any) ([]db.Employee, error) {
	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []db.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}
	return employees, nil
}

// GetEmployee retrieves an employee by staff ID
func (d *DB) GetEmployee(ctx context.Context, staffID int) (*db.Employee, error) {
	e, err := scanEmployee(d.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employee WHERE staff_id = ?`, staffID))
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", notFound(err))
	}
	return &e, nil
}

// GetEmployeeByEmail retrieves an employee by email, ignoring case
func (d *DB) GetEmployeeByEmail(ctx context.Context, email string) (*db.Employee, error) {
	e, err := scanEmployee(d.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employee WHERE email = ?`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", notFound(err))
	}
	return &e, nil
}

// ListEmployees retrieves all employees ordered by staff ID
func (d *DB) ListEmployees(ctx context.Context) ([]db.Employee, error) {
	return d.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employee ORDER BY staff_id`)
}

// ListReports retrieves the direct reports of managerID
func (d *DB) ListReports(ctx context.Context, managerID int) ([]db.Employee, error) {
	return d.queryEmployees(ctx, `SELECT `+employeeColumns+` FROM employee WHERE reporting_manager = ? ORDER BY staff_id`, managerID)
}

// UpsertEmployee inserts or replaces an employee record
func (d *DB) UpsertEmployee(ctx context.Context, e *db.Employee) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO employee (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (staff_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			position = excluded.position,
			department = excluded.department,
			reporting_manager = excluded.reporting_manager,
			password_hash = excluded.password_hash
	`, e.StaffID, e.Name, e.Email, e.Position, e.Department, nullableID(e.ReportingManager), e.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}

// SetReportingManager changes staffID's manager
func (d *DB) SetReportingManager(ctx context.Context, staffID, managerID int) error {
	res, err := d.ExecContext(ctx, `UPDATE employee SET reporting_manager = ? WHERE staff_id = ?`, nullableID(managerID), staffID)
	if err != nil {
		return fmt.Errorf("failed to set reporting manager: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to set reporting manager: %w", db.ErrNotFound)
	}
	return nil
}
