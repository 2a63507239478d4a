package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrops/registry/internal/core/domain"
	"github.com/hrops/registry/internal/infra/storage"
)

const employeeColumns = `id, name, join_date, experience_years, role, status,
	department, designation, salary_band, is_processed, ai_decision_reason,
	confidence_score, last_processed_on, processing_version, rule_applied`

// EmployeeRepo implements storage.TableStore on PostgreSQL. The vocabulary
// constraints live in the table schema as CHECK constraints; the repo only
// writes cell values and never touches the schema.
type EmployeeRepo struct {
	db *DB
}

// NewEmployeeRepo creates a new PostgreSQL employee repository.
func NewEmployeeRepo(db *DB) *EmployeeRepo {
	return &EmployeeRepo{db: db}
}

// Load returns an id-ordered snapshot of the whole table.
func (r *EmployeeRepo) Load(ctx context.Context) ([]domain.Employee, error) {
	var rows []domain.Employee
	query := fmt.Sprintf("SELECT %s FROM employees ORDER BY id", employeeColumns)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	return rows, nil
}

// Write applies the non-nil cell updates to one row.
func (r *EmployeeRepo) Write(ctx context.Context, id int64, updates storage.FieldUpdates) error {
	set, args := buildSet(updates)
	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE employees SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update employee %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("row %d: %w", id, storage.ErrRowNotFound)
	}
	return nil
}

func buildSet(u storage.FieldUpdates) ([]string, []any) {
	var set []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.ExperienceYears != nil {
		add("experience_years", *u.ExperienceYears)
	}
	if u.Department != nil {
		add("department", string(*u.Department))
	}
	if u.Designation != nil {
		add("designation", string(*u.Designation))
	}
	if u.SalaryBand != nil {
		add("salary_band", string(*u.SalaryBand))
	}
	if u.IsProcessed != nil {
		add("is_processed", *u.IsProcessed)
	}
	if u.AIDecisionReason != nil {
		add("ai_decision_reason", *u.AIDecisionReason)
	}
	if u.ConfidenceScore != nil {
		add("confidence_score", *u.ConfidenceScore)
	}
	if u.LastProcessedOn != nil {
		add("last_processed_on", *u.LastProcessedOn)
	}
	if u.ProcessingVersion != nil {
		add("processing_version", *u.ProcessingVersion)
	}
	if u.RuleApplied != nil {
		add("rule_applied", *u.RuleApplied)
	}
	return set, args
}

// Backup copies the whole table into a timestamped backup table and returns
// a handle pointing at it.
func (r *EmployeeRepo) Backup(ctx context.Context) (*storage.BackupHandle, error) {
	name := fmt.Sprintf("employees_backup_%s", time.Now().UTC().Format("20060102_150405"))
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s AS TABLE employees", name)); err != nil {
		return nil, fmt.Errorf("failed to create backup table: %w", err)
	}
	return &storage.BackupHandle{
		ID:        uuid.NewString(),
		Location:  name,
		CreatedAt: time.Now(),
	}, nil
}

// Restore replaces the live table contents with a backup, atomically.
func (r *EmployeeRepo) Restore(ctx context.Context, handle *storage.BackupHandle) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", handle.Location)
	if err != nil {
		return fmt.Errorf("failed to look up backup table: %w", err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", handle.Location, storage.ErrBackupNotFound)
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin restore transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM employees"); err != nil {
		return fmt.Errorf("failed to clear employees: %w", err)
	}
	insert := fmt.Sprintf("INSERT INTO employees SELECT * FROM %s", handle.Location)
	if _, err := tx.ExecContext(ctx, insert); err != nil {
		return fmt.Errorf("failed to restore employees: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}
	return nil
}

// ResetProcessed clears the processed flag on every row.
func (r *EmployeeRepo) ResetProcessed(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE employees SET is_processed = FALSE WHERE is_processed")
	if err != nil {
		return 0, fmt.Errorf("failed to reset processed flags: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to count reset rows: %w", err)
	}
	return affected, nil
}
