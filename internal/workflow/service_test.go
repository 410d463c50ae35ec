package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavebot/internal/domain"
	"leavebot/internal/notify/notifytest"
	"leavebot/internal/storage"
	"leavebot/internal/storage/storagetest"
)

const reviewerID int64 = 900

func newTestService(t *testing.T) (*Service, *storagetest.Fake, *notifytest.Sink) {
	t.Helper()
	store := storagetest.NewFake()
	sink := &notifytest.Sink{}
	svc := New(store, sink, reviewerID)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, store, sink
}

func seedEmployee(t *testing.T, store *storagetest.Fake) domain.Employee {
	t.Helper()
	e := domain.Employee{
		ChatID:     42,
		FirstName:  "Anna",
		LastName:   "Iverson",
		Position:   "Engineer",
		Department: "Platform",
		Email:      "anna@example.com",
	}
	require.NoError(t, store.CreateEmployee(context.Background(), e))
	return e
}

func TestRegisterEmployeeDuplicateEmail(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedEmployee(t, store)

	err := svc.RegisterEmployee(context.Background(), domain.Employee{
		ChatID: 43,
		Email:  "anna@example.com",
	})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)
}

func TestSubmitCreatesPendingWithAuditAndNotifiesReviewer(t *testing.T) {
	svc, store, sink := newTestService(t)
	seedEmployee(t, store)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	id, err := svc.Submit(context.Background(), 42, domain.CategorySick, start, end, "flu")
	require.NoError(t, err)
	require.Equal(t, 1, id)

	req, err := store.GetRequest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, []string{"submitted request #1"}, store.Actions())

	texts := sink.TextsFor(reviewerID)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Request #1 from Anna Iverson")
	assert.Contains(t, texts[0], "sick leave")
	assert.Contains(t, texts[0], "2025-03-01 - 2025-03-03")
	assert.Contains(t, texts[0], "flu")
}

func TestSubmitUnknownEmployee(t *testing.T) {
	svc, _, sink := newTestService(t)

	_, err := svc.Submit(context.Background(), 7, domain.CategoryUnpaid,
		time.Now(), time.Now(), "x")
	assert.ErrorIs(t, err, storage.ErrEmployeeNotFound)
	assert.Empty(t, sink.Messages)
}

func TestSubmitRollsBackOnAuditFailure(t *testing.T) {
	svc, store, sink := newTestService(t)
	seedEmployee(t, store)
	store.AppendAuditErr = errors.New("disk full")

	_, err := svc.Submit(context.Background(), 42, domain.CategoryAnnualPaid,
		time.Now(), time.Now(), "trip")
	require.Error(t, err)
	assert.Empty(t, sink.Messages)
}

func TestDecideApprove(t *testing.T) {
	svc, store, sink := newTestService(t)
	seedEmployee(t, store)
	id, err := svc.Submit(context.Background(), 42, domain.CategorySick,
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), "flu")
	require.NoError(t, err)

	req, err := svc.Decide(context.Background(), id, domain.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, req.Status)

	stored, err := store.GetRequest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Equal(t, []string{"submitted request #1", "approval of request #1"}, store.Actions())
	assert.Equal(t, []string{"✅ Request #1 approved"}, sink.TextsFor(42))
}

func TestDecideRejectIncludesReason(t *testing.T) {
	svc, store, sink := newTestService(t)
	seedEmployee(t, store)
	id, err := svc.Submit(context.Background(), 42, domain.CategoryUnpaid,
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), "move")
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), id, domain.StatusRejected, "peak season")
	require.NoError(t, err)

	assert.Equal(t, []string{"submitted request #1", "rejection of request #1"}, store.Actions())
	assert.Equal(t, []string{"❌ Request #1 rejected: peak season"}, sink.TextsFor(42))
}

func TestDecideTwiceFails(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedEmployee(t, store)
	id, err := svc.Submit(context.Background(), 42, domain.CategorySick,
		time.Now(), time.Now(), "flu")
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), id, domain.StatusApproved, "")
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), id, domain.StatusRejected, "late")
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	stored, err := store.GetRequest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
}

func TestDecideUnknownRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Decide(context.Background(), 99, domain.StatusApproved, "")
	assert.ErrorIs(t, err, storage.ErrRequestNotFound)
}

func TestDecideInvalidDecision(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedEmployee(t, store)
	id, err := svc.Submit(context.Background(), 42, domain.CategorySick,
		time.Now(), time.Now(), "flu")
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), id, domain.StatusPending, "")
	assert.Error(t, err)
}

func TestDeliveryFailureDoesNotUndoDecision(t *testing.T) {
	svc, store, sink := newTestService(t)
	seedEmployee(t, store)
	id, err := svc.Submit(context.Background(), 42, domain.CategorySick,
		time.Now(), time.Now(), "flu")
	require.NoError(t, err)

	sink.SendErr = errors.New("blocked by user")
	req, err := svc.Decide(context.Background(), id, domain.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, req.Status)

	stored, err := store.GetRequest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
}

func TestDeleteEmployeeCascades(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedEmployee(t, store)
	_, err := svc.Submit(context.Background(), 42, domain.CategorySick,
		time.Now(), time.Now(), "flu")
	require.NoError(t, err)

	emp, err := svc.DeleteEmployee(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Anna Iverson", emp.FullName())

	_, err = store.GetEmployee(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrEmployeeNotFound)

	reqs, err := store.ListRequestsByEmployee(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, reqs)

	require.Len(t, store.Audit, 1)
	assert.Equal(t, reviewerID, store.Audit[0].EmployeeID)
	assert.Equal(t, "deleted employee 42", store.Audit[0].Action)
}

func TestDeleteEmployeeUnknown(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.DeleteEmployee(context.Background(), 5)
	assert.ErrorIs(t, err, storage.ErrEmployeeNotFound)
}
