package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/sirupsen/logrus"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewSQLiteStore opens the database, applies pending migrations and returns the store.
func NewSQLiteStore(dataSourceName string, log logrus.FieldLogger) (*SQLiteStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	if err := runMigrations(dataSourceName); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	log.WithField("path", dataSourceName).Info("Database connection established and schema migrated")
	return &SQLiteStore{db: db, log: log}, nil
}

// runMigrations applies the embedded schema on its own connection, since
// closing the migrator also closes the connection it was given.
func runMigrations(dataSourceName string) error {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// CreatePlan inserts a new saved plan.
func (s *SQLiteStore) CreatePlan(plan *models.SavedPlan) error {
	doc, err := json.Marshal(plan.Plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO plans (id, name, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		plan.ID.String(), plan.Name, string(doc), plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a plan by its ID.
func (s *SQLiteStore) GetPlan(id uuid.UUID) (*models.SavedPlan, error) {
	row := s.db.QueryRow(`SELECT id, name, document, created_at, updated_at FROM plans WHERE id = ?`, id.String())
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// UpdatePlan replaces the name and document of an existing plan.
func (s *SQLiteStore) UpdatePlan(plan *models.SavedPlan) error {
	doc, err := json.Marshal(plan.Plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	result, err := s.db.Exec(
		`UPDATE plans SET name = ?, document = ?, updated_at = ? WHERE id = ?`,
		plan.Name, string(doc), plan.UpdatedAt, plan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// DeletePlan removes a plan and its runs within a transaction.
func (s *SQLiteStore) DeletePlan(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM runs WHERE plan_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete associated runs: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM plans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPlanNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan deletion: %w", err)
	}
	s.log.WithField("plan_id", id).Debug("Plan and its runs deleted")
	return nil
}

// GetAllPlans retrieves all plans, oldest first.
func (s *SQLiteStore) GetAllPlans() ([]*models.SavedPlan, error) {
	rows, err := s.db.Query(`SELECT id, name, document, created_at, updated_at FROM plans ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.SavedPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return plans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.SavedPlan, error) {
	var (
		plan    models.SavedPlan
		idStr   string
		doc     string
		created time.Time
		updated time.Time
	)
	if err := row.Scan(&idStr, &plan.Name, &doc, &created, &updated); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid plan id %q: %w", idStr, err)
	}
	if err := json.Unmarshal([]byte(doc), &plan.Plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", idStr, err)
	}
	plan.ID = id
	plan.CreatedAt = created
	plan.UpdatedAt = updated
	return &plan, nil
}

// CreateRun inserts the summary of a simulation run.
func (s *SQLiteStore) CreateRun(run *models.Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, plan_id, strategy, paid_bills, paid_loans, to_goals, end_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.PlanID.String(), string(run.Strategy),
		run.Totals.PaidBills, run.Totals.PaidLoans, run.Totals.ToGoals, run.Totals.EndBalance,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetRunsForPlan retrieves all runs of a plan in the order they were made.
func (s *SQLiteStore) GetRunsForPlan(planID uuid.UUID) ([]*models.Run, error) {
	rows, err := s.db.Query(
		`SELECT id, plan_id, strategy, paid_bills, paid_loans, to_goals, end_balance, created_at
		FROM runs WHERE plan_id = ? ORDER BY created_at ASC, rowid ASC`,
		planID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs for plan %s: %w", planID, err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var (
			run       models.Run
			runIDStr  string
			planIDStr string
			strategy  string
		)
		if err := rows.Scan(&runIDStr, &planIDStr, &strategy,
			&run.Totals.PaidBills, &run.Totals.PaidLoans, &run.Totals.ToGoals, &run.Totals.EndBalance,
			&run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runID, err := uuid.Parse(runIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", runIDStr, err)
		}
		runPlanID, err := uuid.Parse(planIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid plan id %q on run %s: %w", planIDStr, runIDStr, err)
		}
		run.ID = runID
		run.PlanID = runPlanID
		run.Strategy = models.Strategy(strategy)
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for plan runs: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
