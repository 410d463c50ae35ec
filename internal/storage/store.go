// Package storage implements the persistence gateway over PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"leavebot/internal/domain"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrRequestNotFound  = errors.New("request not found")
	ErrEmailTaken       = errors.New("email already registered")
)

// Store is the persistence port. InTx runs fn against a store bound to a
// single transaction; all writes made inside commit or roll back together.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	CreateEmployee(ctx context.Context, e domain.Employee) error
	GetEmployee(ctx context.Context, chatID int64) (domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	DeleteEmployee(ctx context.Context, chatID int64) error

	CreateRequest(ctx context.Context, r domain.Request) (int, error)
	GetRequest(ctx context.Context, id int) (domain.Request, error)
	SetRequestStatus(ctx context.Context, id int, status domain.RequestStatus, at time.Time) error
	ListPendingRequests(ctx context.Context) ([]domain.Request, error)
	ListRequestsWithin(ctx context.Context, from, to time.Time) ([]domain.Request, error)
	ListRequestsByEmployee(ctx context.Context, chatID int64) ([]domain.Request, error)
	DeleteRequestsByEmployee(ctx context.Context, chatID int64) error

	AppendAudit(ctx context.Context, employeeID int64, action string, at time.Time) error
	ListAuditBetween(ctx context.Context, from, to time.Time) ([]domain.AuditEntry, error)
	DeleteAuditByEmployee(ctx context.Context, chatID int64) error
}

type sqlStore struct {
	ext sqlx.ExtContext
}

// New wraps the database handle into a Store.
func New(db *sqlx.DB) Store {
	return &sqlStore{ext: db}
}

// InTx starts a transaction unless the store is already bound to one.
func (s *sqlStore) InTx(ctx context.Context, fn func(Store) error) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return fn(s)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&sqlStore{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *sqlStore) CreateEmployee(ctx context.Context, e domain.Employee) error {
	const q = `INSERT INTO employees (chat_id, first_name, last_name, position, department, email)
	           VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.ext.ExecContext(ctx, q, e.ChatID, e.FirstName, e.LastName, e.Position, e.Department, e.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

func (s *sqlStore) GetEmployee(ctx context.Context, chatID int64) (domain.Employee, error) {
	var e domain.Employee
	err := sqlx.GetContext(ctx, s.ext, &e, `SELECT * FROM employees WHERE chat_id = $1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return domain.Employee{}, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (s *sqlStore) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	var out []domain.Employee
	if err := sqlx.SelectContext(ctx, s.ext, &out, `SELECT * FROM employees ORDER BY chat_id`); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

func (s *sqlStore) DeleteEmployee(ctx context.Context, chatID int64) error {
	res, err := s.ext.ExecContext(ctx, `DELETE FROM employees WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *sqlStore) CreateRequest(ctx context.Context, r domain.Request) (int, error) {
	const q = `INSERT INTO requests (employee_id, start_date, end_date, category, status, reason, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	           RETURNING id`
	var id int
	err := sqlx.GetContext(ctx, s.ext, &id, q,
		r.EmployeeID, r.StartDate, r.EndDate, r.Category, r.Status, r.Reason, r.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	return id, nil
}

func (s *sqlStore) GetRequest(ctx context.Context, id int) (domain.Request, error) {
	var r domain.Request
	err := sqlx.GetContext(ctx, s.ext, &r, `SELECT * FROM requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Request{}, ErrRequestNotFound
	}
	if err != nil {
		return domain.Request{}, fmt.Errorf("get request: %w", err)
	}
	return r, nil
}

func (s *sqlStore) SetRequestStatus(ctx context.Context, id int, status domain.RequestStatus, at time.Time) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE requests SET status = $1, updated_at = $2 WHERE id = $3`, status, at, id)
	if err != nil {
		return fmt.Errorf("set request status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (s *sqlStore) ListPendingRequests(ctx context.Context) ([]domain.Request, error) {
	var out []domain.Request
	err := sqlx.SelectContext(ctx, s.ext, &out,
		`SELECT * FROM requests WHERE status = $1 ORDER BY id DESC`, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return out, nil
}

// ListRequestsWithin returns requests whose whole span lies inside [from, to].
func (s *sqlStore) ListRequestsWithin(ctx context.Context, from, to time.Time) ([]domain.Request, error) {
	var out []domain.Request
	err := sqlx.SelectContext(ctx, s.ext, &out,
		`SELECT * FROM requests WHERE start_date >= $1 AND end_date <= $2 ORDER BY id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list requests within: %w", err)
	}
	return out, nil
}

func (s *sqlStore) ListRequestsByEmployee(ctx context.Context, chatID int64) ([]domain.Request, error) {
	var out []domain.Request
	err := sqlx.SelectContext(ctx, s.ext, &out,
		`SELECT * FROM requests WHERE employee_id = $1 ORDER BY id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list requests by employee: %w", err)
	}
	return out, nil
}

func (s *sqlStore) DeleteRequestsByEmployee(ctx context.Context, chatID int64) error {
	if _, err := s.ext.ExecContext(ctx, `DELETE FROM requests WHERE employee_id = $1`, chatID); err != nil {
		return fmt.Errorf("delete requests by employee: %w", err)
	}
	return nil
}

func (s *sqlStore) AppendAudit(ctx context.Context, employeeID int64, action string, at time.Time) error {
	_, err := s.ext.ExecContext(ctx,
		`INSERT INTO audit_log (employee_id, action, created_at) VALUES ($1, $2, $3)`,
		employeeID, action, at)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (s *sqlStore) ListAuditBetween(ctx context.Context, from, to time.Time) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	err := sqlx.SelectContext(ctx, s.ext, &out,
		`SELECT * FROM audit_log WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list audit between: %w", err)
	}
	return out, nil
}

func (s *sqlStore) DeleteAuditByEmployee(ctx context.Context, chatID int64) error {
	if _, err := s.ext.ExecContext(ctx, `DELETE FROM audit_log WHERE employee_id = $1`, chatID); err != nil {
		return fmt.Errorf("delete audit by employee: %w", err)
	}
	return nil
}
