package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/wfh-portal/pkg/db"
)

const employeeColumns = `staff_id, name, email, position, department, reporting_manager, password_hash`

func scanEmployee(row pgx.CollectableRow) (db.Employee, error) {
	var e db.Employee
	var manager *int
	if err := row.Scan(&e.StaffID, &e.Name, &e.Email, &e.Position, &e.Department, &manager, &e.PasswordHash); err != nil {
		return db.Employee{}, err
	}
	if manager != nil {
		e.ReportingManager = *manager
	}
	return e, nil
}

func (d *DB) queryEmployee(ctx context.Context, where string, arg any) (*db.Employee, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employee WHERE `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee: %w", err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", notFound(err))
	}
	return &e, nil
}

// GetEmployee retrieves an employee by staff ID
func (d *DB) GetEmployee(ctx context.Context, staffID int) (*db.Employee, error) {
	return d.queryEmployee(ctx, `staff_id = $1`, staffID)
}

// GetEmployeeByEmail retrieves an employee by email, ignoring case
func (d *DB) GetEmployeeByEmail(ctx context.Context, email string) (*db.Employee, error) {
	return d.queryEmployee(ctx, `LOWER(email) = LOWER($1)`, email)
}

// ListEmployees retrieves all employees ordered by staff ID
func (d *DB) ListEmployees(ctx context.Context) ([]db.Employee, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employee ORDER BY staff_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	employees, err := pgx.CollectRows(rows, scanEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to scan employees: %w", err)
	}
	return employees, nil
}

// ListReports retrieves the direct reports of managerID
func (d *DB) ListReports(ctx context.Context, managerID int) ([]db.Employee, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+employeeColumns+`
		FROM employee
		WHERE reporting_manager = $1
		ORDER BY staff_id
	`, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	employees, err := pgx.CollectRows(rows, scanEmployee)
	if err != nil {
		return nil, fmt.Errorf("failed to scan reports: %w", err)
	}
	return employees, nil
}

// UpsertEmployee inserts or replaces an employee record
func (d *DB) UpsertEmployee(ctx context.Context, e *db.Employee) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO employee (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (staff_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			position = EXCLUDED.position,
			department = EXCLUDED.department,
			reporting_manager = EXCLUDED.reporting_manager,
			password_hash = EXCLUDED.password_hash
	`, e.StaffID, e.Name, e.Email, e.Position, e.Department, nullableID(e.ReportingManager), e.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}

// SetReportingManager changes staffID's manager
func (d *DB) SetReportingManager(ctx context.Context, staffID, managerID int) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE employee SET reporting_manager = $2 WHERE staff_id = $1
	`, staffID, nullableID(managerID))
	if err != nil {
		return fmt.Errorf("failed to set reporting manager: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to set reporting manager: %w", db.ErrNotFound)
	}
	return nil
}

func nullableID(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}
