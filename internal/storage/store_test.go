package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"leavebot/internal/domain"
)

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCreateEmployeeMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO employees`)).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreateEmployee(context.Background(), domain.Employee{
		ChatID: 100, FirstName: "Ann", LastName: "Lee", Email: "ann@corp.io",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateRequestReturnsID(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO requests`)).
		WithArgs(int64(100),
			time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			domain.CategorySick, domain.StatusPending, "flu", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := store.CreateRequest(context.Background(), domain.Request{
		EmployeeID: 100,
		StartDate:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		Category:   domain.CategorySick,
		Status:     domain.StatusPending,
		Reason:     "flu",
		CreatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSetRequestStatusNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE requests SET status`)).
		WithArgs(domain.StatusApproved, at, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetRequestStatus(context.Background(), 99, domain.StatusApproved, at)
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM requests WHERE employee_id`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees`)).
		WithArgs(int64(5)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx Store) error {
		if err := tx.DeleteRequestsByEmployee(context.Background(), 5); err != nil {
			return err
		}
		return tx.DeleteEmployee(context.Background(), 5)
	})
	if err == nil {
		t.Fatal("expected error out of the transaction")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInTxCommits(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_log`)).
		WithArgs(int64(5), "submitted request #1", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx Store) error {
		return tx.AppendAudit(context.Background(), 5, "submitted request #1", at)
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
