package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavebot/core/telegram/state"
	"leavebot/internal/domain"
	"leavebot/internal/notify/notifytest"
	"leavebot/internal/report"
	"leavebot/internal/storage/storagetest"
	"leavebot/internal/workflow"
)

const (
	chatID     int64 = 42
	reviewerID int64 = 900
)

type nopRenderer struct{}

func (nopRenderer) Render(string, []string) ([]byte, error) { return []byte("%PDF"), nil }

type fixture struct {
	engine *Engine
	store  *storagetest.Fake
	sink   *notifytest.Sink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storagetest.NewFake()
	sink := &notifytest.Sink{}

	now := func() time.Time { return time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC) }

	flows := workflow.New(store, sink, reviewerID)
	reports := report.New(store, sink, nopRenderer{})
	engine := NewEngine(state.NewMemoryStore(), flows, reports)
	engine.now = now
	return &fixture{engine: engine, store: store, sink: sink}
}

func (f *fixture) handle(t *testing.T, input string) Result {
	t.Helper()
	res, err := f.engine.Handle(context.Background(), chatID, input)
	require.NoError(t, err)
	return res
}

func register(t *testing.T, f *fixture, email string) {
	t.Helper()
	f.engine.StartRegistration(chatID)
	f.handle(t, "Anna")
	f.handle(t, "Iverson")
	f.handle(t, "Engineer")
	f.handle(t, "Platform")
	f.handle(t, email)
}

func TestRegistrationFlow(t *testing.T) {
	f := newFixture(t)

	res := f.engine.StartRegistration(chatID)
	assert.Equal(t, "First name:", res.Replies[0].Text)

	assert.Equal(t, "Last name:", f.handle(t, "Anna").Replies[0].Text)
	assert.Equal(t, "Position:", f.handle(t, "Iverson").Replies[0].Text)
	assert.Equal(t, "Department:", f.handle(t, "Engineer").Replies[0].Text)
	assert.Equal(t, "Email:", f.handle(t, "Platform").Replies[0].Text)

	res = f.handle(t, "anna@example.com")
	assert.Equal(t, "✅ Registration complete", res.Replies[0].Text)
	assert.Equal(t, KeyboardActions, res.Replies[0].Keyboard)
	assert.False(t, f.engine.InProgress(chatID))

	emp, err := f.store.GetEmployee(context.Background(), chatID)
	require.NoError(t, err)
	assert.Equal(t, "Anna Iverson", emp.FullName())
	assert.Equal(t, "Platform", emp.Department)
}

func TestRegistrationBadEmailRearmsStep(t *testing.T) {
	f := newFixture(t)
	f.engine.StartRegistration(chatID)
	f.handle(t, "Anna")
	f.handle(t, "Iverson")
	f.handle(t, "Engineer")
	f.handle(t, "Platform")

	res := f.handle(t, "not-an-email")
	assert.Contains(t, res.Replies[0].Text, "❌")
	assert.True(t, f.engine.InProgress(chatID))

	f.handle(t, "anna@example.com")
	_, err := f.store.GetEmployee(context.Background(), chatID)
	assert.NoError(t, err)
}

func TestRegistrationDuplicateEmailRearmsWithoutDuplicate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.CreateEmployee(context.Background(),
		domain.Employee{ChatID: 7, Email: "anna@example.com"}))

	register(t, f, "anna@example.com")
	assert.True(t, f.engine.InProgress(chatID))
	assert.Len(t, f.store.Employees, 1)

	res := f.handle(t, "anna2@example.com")
	assert.Equal(t, "✅ Registration complete", res.Replies[0].Text)
	assert.Len(t, f.store.Employees, 2)
}

func TestMainMenuSignalInterruptsEveryStep(t *testing.T) {
	f := newFixture(t)

	starts := map[string]func(){
		"registration": func() { f.engine.StartRegistration(chatID) },
		"request":      func() { f.engine.StartRequest(chatID, domain.CategorySick) },
		"rejection":    func() { f.engine.StartRejection(chatID, 1) },
		"report range": func() { f.engine.StartReportRange(chatID) },
		"report year":  func() { f.engine.StartReportYear(chatID) },
	}
	for name, start := range starts {
		start()
		res := f.handle(t, MainMenuSignal)
		assert.True(t, res.ShowMenu, name)
		assert.False(t, f.engine.InProgress(chatID), name)
	}
	assert.Empty(t, f.store.Requests)
	assert.Empty(t, f.store.Employees)
}

func TestMainMenuSignalSkipsValidation(t *testing.T) {
	f := newFixture(t)
	f.engine.StartRequest(chatID, domain.CategorySick)

	// The signal is not a date, yet it must win over date validation.
	res := f.handle(t, MainMenuSignal)
	assert.True(t, res.ShowMenu)
	assert.False(t, f.engine.InProgress(chatID))
}

func TestRequestFlow(t *testing.T) {
	f := newFixture(t)
	register(t, f, "anna@example.com")

	res := f.engine.StartRequest(chatID, domain.CategorySick)
	assert.Equal(t, "Start date (YYYY-MM-DD):", res.Replies[0].Text)

	assert.Equal(t, "End date (YYYY-MM-DD):", f.handle(t, "2025-07-01").Replies[0].Text)
	assert.Equal(t, "Reason:", f.handle(t, "2025-07-03").Replies[0].Text)

	res = f.handle(t, "flu")
	assert.Equal(t, "✅ Request #1 submitted", res.Replies[0].Text)
	assert.False(t, f.engine.InProgress(chatID))

	req, err := f.store.GetRequest(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.Equal(t, domain.CategorySick, req.Category)
	assert.Equal(t, "flu", req.Reason)

	texts := f.sink.TextsFor(reviewerID)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Request #1 from Anna Iverson")
}

func TestRequestRejectsPastStartDate(t *testing.T) {
	f := newFixture(t)
	register(t, f, "anna@example.com")
	f.engine.StartRequest(chatID, domain.CategoryAnnualPaid)

	res := f.handle(t, "2025-01-01")
	assert.Contains(t, res.Replies[0].Text, "❌")
	assert.True(t, f.engine.InProgress(chatID))
	assert.Empty(t, f.store.Requests)
}

func TestRequestEndBeforeStartNeverPersists(t *testing.T) {
	f := newFixture(t)
	register(t, f, "anna@example.com")
	f.engine.StartRequest(chatID, domain.CategorySick)
	f.handle(t, "2025-07-10")

	res := f.handle(t, "2025-07-05")
	assert.Contains(t, res.Replies[0].Text, "❌")
	assert.Empty(t, f.store.Requests)

	// Same step stays armed; a valid end date completes the flow.
	f.handle(t, "2025-07-12")
	res = f.handle(t, "trip")
	assert.Equal(t, "✅ Request #1 submitted", res.Replies[0].Text)
}

func TestRequestBadDateFormat(t *testing.T) {
	f := newFixture(t)
	register(t, f, "anna@example.com")
	f.engine.StartRequest(chatID, domain.CategorySick)

	res := f.handle(t, "07/01/2025")
	assert.Contains(t, res.Replies[0].Text, "YYYY-MM-DD")
	assert.True(t, f.engine.InProgress(chatID))
}

func TestRejectionFlow(t *testing.T) {
	f := newFixture(t)
	register(t, f, "anna@example.com")
	f.engine.StartRequest(chatID, domain.CategoryUnpaid)
	f.handle(t, "2025-07-01")
	f.handle(t, "2025-07-02")
	f.handle(t, "move")

	f.engine.StartRejection(reviewerID, 1)
	res, err := f.engine.Handle(context.Background(), reviewerID, "peak season")
	require.NoError(t, err)
	assert.Equal(t, "❌ #1 rejected", res.Replies[0].Text)
	assert.True(t, res.RefreshPending)

	req, err := f.store.GetRequest(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, req.Status)
	assert.Contains(t, f.sink.TextsFor(chatID), "❌ Request #1 rejected: peak season")
}

func TestRejectionOfDecidedRequest(t *testing.T) {
	f := newFixture(t)
	register(t, f, "anna@example.com")
	f.engine.StartRequest(chatID, domain.CategorySick)
	f.handle(t, "2025-07-01")
	f.handle(t, "2025-07-02")
	f.handle(t, "flu")

	flows := workflow.New(f.store, f.sink, reviewerID)
	_, err := flows.Decide(context.Background(), 1, domain.StatusApproved, "")
	require.NoError(t, err)

	f.engine.StartRejection(reviewerID, 1)
	res, err := f.engine.Handle(context.Background(), reviewerID, "late")
	require.NoError(t, err)
	assert.Equal(t, "Request #1 is already decided", res.Replies[0].Text)
	assert.True(t, res.RefreshPending)
}

func TestRejectionOfVanishedRequest(t *testing.T) {
	f := newFixture(t)
	f.engine.StartRejection(reviewerID, 9)
	res, err := f.engine.Handle(context.Background(), reviewerID, "whatever")
	require.NoError(t, err)
	assert.Equal(t, "Request #9 not found", res.Replies[0].Text)
	assert.False(t, res.RefreshPending)
}

func TestReportRangeFlow(t *testing.T) {
	f := newFixture(t)
	register(t, f, "anna@example.com")
	_, err := f.store.CreateRequest(context.Background(), domain.Request{
		EmployeeID: chatID,
		StartDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
		Category:   domain.CategorySick,
		Status:     domain.StatusApproved,
	})
	require.NoError(t, err)

	f.engine.StartReportRange(reviewerID)
	res, err := f.engine.Handle(context.Background(), reviewerID, "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "Period end (YYYY-MM-DD):", res.Replies[0].Text)

	res, err = f.engine.Handle(context.Background(), reviewerID, "2025-12-01")
	require.NoError(t, err)
	assert.True(t, res.ShowMenu)
	require.Len(t, f.sink.Documents, 1)
	assert.Equal(t, "Requests_2025-01-01_2025-12-01.pdf", f.sink.Documents[0].Filename)
}

func TestReportRangeStartAcceptsPast(t *testing.T) {
	f := newFixture(t)
	f.engine.StartReportRange(reviewerID)

	res, err := f.engine.Handle(context.Background(), reviewerID, "2020-01-01")
	require.NoError(t, err)
	assert.Equal(t, "Period end (YYYY-MM-DD):", res.Replies[0].Text)
}

func TestReportYearFlow(t *testing.T) {
	f := newFixture(t)
	register(t, f, "anna@example.com")
	_, err := f.store.CreateRequest(context.Background(), domain.Request{
		EmployeeID: chatID,
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Status:     domain.StatusApproved,
	})
	require.NoError(t, err)

	f.engine.StartReportYear(reviewerID)
	res, err := f.engine.Handle(context.Background(), reviewerID, "2025")
	require.NoError(t, err)
	assert.True(t, res.ShowMenu)
	require.Len(t, f.sink.Documents, 1)
	assert.Equal(t, "Duration_2025.pdf", f.sink.Documents[0].Filename)
}

func TestReportYearValidation(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct {
		input string
		want  string
	}{
		{"soon", "YYYY"},
		{"2026", "future"},
		{"1999", "early"},
	} {
		f.engine.StartReportYear(reviewerID)
		res, err := f.engine.Handle(context.Background(), reviewerID, tc.input)
		require.NoError(t, err)
		assert.Contains(t, res.Replies[0].Text, tc.want, tc.input)
		assert.True(t, f.engine.InProgress(reviewerID))
		f.engine.Abort(reviewerID)
	}
}

func TestHandleWithoutSessionShowsMenu(t *testing.T) {
	f := newFixture(t)
	res := f.handle(t, "hello")
	assert.True(t, res.ShowMenu)
}
