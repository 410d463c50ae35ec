package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavebot/internal/domain"
	"leavebot/internal/notify/notifytest"
	"leavebot/internal/storage/storagetest"
)

const hrChat int64 = 900

type fakeRenderer struct {
	titles []string
	lines  [][]string
}

func (f *fakeRenderer) Render(title string, lines []string) ([]byte, error) {
	f.titles = append(f.titles, title)
	f.lines = append(f.lines, lines)
	return []byte("%PDF"), nil
}

func newTestService(t *testing.T) (*Service, *storagetest.Fake, *notifytest.Sink, *fakeRenderer) {
	t.Helper()
	store := storagetest.NewFake()
	sink := &notifytest.Sink{}
	renderer := &fakeRenderer{}
	svc := New(store, sink, renderer)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, store, sink, renderer
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, store *storagetest.Fake, e domain.Employee, reqs ...domain.Request) {
	t.Helper()
	require.NoError(t, store.CreateEmployee(context.Background(), e))
	for _, r := range reqs {
		r.EmployeeID = e.ChatID
		_, err := store.CreateRequest(context.Background(), r)
		require.NoError(t, err)
	}
}

func TestRangeSendsDocumentAndConfirmation(t *testing.T) {
	svc, store, sink, renderer := newTestService(t)
	seed(t, store,
		domain.Employee{ChatID: 1, FirstName: "Anna", LastName: "Iverson", Department: "Eng", Email: "a@x.com"},
		domain.Request{
			StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 3),
			Category: domain.CategorySick, Status: domain.StatusApproved, Reason: "flu",
		})

	err := svc.Range(context.Background(), hrChat, day(2025, 3, 1), day(2025, 3, 31))
	require.NoError(t, err)

	require.Len(t, sink.Documents, 1)
	assert.Equal(t, "Requests_2025-03-01_2025-03-31.pdf", sink.Documents[0].Filename)
	assert.Equal(t, hrChat, sink.Documents[0].ChatID)

	require.Len(t, renderer.lines, 1)
	lines := renderer.lines[0]
	require.Len(t, lines, 2)
	assert.Equal(t, "Requests from 2025-03-01 to 2025-03-31:", lines[0])
	assert.Equal(t, "#1 - Anna Iverson (1) (sick leave, 2025-03-01 - 2025-03-03) - approved", lines[1])

	assert.Equal(t, []string{"Report sent as PDF"}, sink.TextsFor(hrChat))
}

func TestRangeExcludesPartialOverlap(t *testing.T) {
	svc, store, sink, renderer := newTestService(t)
	seed(t, store,
		domain.Employee{ChatID: 1, FirstName: "Anna", LastName: "Iverson", Email: "a@x.com"},
		domain.Request{StartDate: day(2025, 2, 25), EndDate: day(2025, 3, 2), Status: domain.StatusPending},
		domain.Request{StartDate: day(2025, 3, 5), EndDate: day(2025, 3, 6), Status: domain.StatusPending})

	err := svc.Range(context.Background(), hrChat, day(2025, 3, 1), day(2025, 3, 31))
	require.NoError(t, err)

	require.Len(t, renderer.lines, 1)
	assert.Len(t, renderer.lines[0], 2)
	assert.Contains(t, renderer.lines[0][1], "#2")
	require.Len(t, sink.Documents, 1)
}

func TestRangeEmptySendsNoticeOnly(t *testing.T) {
	svc, _, sink, renderer := newTestService(t)

	err := svc.Range(context.Background(), hrChat, day(2025, 3, 1), day(2025, 3, 31))
	require.NoError(t, err)

	assert.Empty(t, sink.Documents)
	assert.Empty(t, renderer.titles)
	assert.Equal(t, []string{"No requests between 2025-03-01 and 2025-03-31"}, sink.TextsFor(hrChat))
}

func TestDurationByDepartmentSumsInclusiveDays(t *testing.T) {
	svc, store, sink, renderer := newTestService(t)
	seed(t, store,
		domain.Employee{ChatID: 1, FirstName: "Anna", LastName: "Iverson", Department: "Eng", Email: "a@x.com"},
		domain.Request{StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 5), Status: domain.StatusApproved},
		domain.Request{StartDate: day(2025, 7, 1), EndDate: day(2025, 7, 1), Status: domain.StatusApproved})
	seed(t, store,
		domain.Employee{ChatID: 2, FirstName: "Bo", LastName: "Strand", Email: "b@x.com"},
		domain.Request{StartDate: day(2025, 8, 1), EndDate: day(2025, 8, 2), Status: domain.StatusPending})

	err := svc.DurationByDepartment(context.Background(), hrChat, 2025)
	require.NoError(t, err)

	require.Len(t, renderer.lines, 1)
	lines := renderer.lines[0]
	require.Len(t, lines, 3)
	assert.Equal(t, "Leave and sick days in 2025 by department:", lines[0])
	assert.Equal(t, "- Eng: 6 days", lines[1])
	assert.Equal(t, "- No department: 2 days", lines[2])

	require.Len(t, sink.Documents, 1)
	assert.Equal(t, "Duration_2025.pdf", sink.Documents[0].Filename)
}

func TestDurationEmptyYear(t *testing.T) {
	svc, _, sink, _ := newTestService(t)

	err := svc.DurationByDepartment(context.Background(), hrChat, 2024)
	require.NoError(t, err)
	assert.Empty(t, sink.Documents)
	assert.Equal(t, []string{"No requests for 2024"}, sink.TextsFor(hrChat))
}

func TestEmployeeReport(t *testing.T) {
	svc, store, sink, renderer := newTestService(t)
	seed(t, store,
		domain.Employee{ChatID: 1, FirstName: "Anna", LastName: "Iverson", Email: "a@x.com"},
		domain.Request{
			StartDate: day(2025, 3, 1), EndDate: day(2025, 3, 3),
			Category: domain.CategoryAnnualPaid, Status: domain.StatusRejected,
		})

	err := svc.Employee(context.Background(), hrChat, 1)
	require.NoError(t, err)

	require.Len(t, renderer.titles, 1)
	assert.Equal(t, "Employee report: Anna Iverson", renderer.titles[0])
	lines := renderer.lines[0]
	require.Len(t, lines, 2)
	assert.Equal(t, "Requests of Anna Iverson (1):", lines[0])
	assert.Equal(t, "#1 - annual paid leave, 2025-03-01 - 2025-03-03, status: rejected", lines[1])

	require.Len(t, sink.Documents, 1)
	assert.Equal(t, "Employee_1_Requests.pdf", sink.Documents[0].Filename)
}

func TestEmployeeReportNoRequests(t *testing.T) {
	svc, store, sink, _ := newTestService(t)
	seed(t, store, domain.Employee{ChatID: 1, FirstName: "Anna", LastName: "Iverson", Email: "a@x.com"})

	err := svc.Employee(context.Background(), hrChat, 1)
	require.NoError(t, err)
	assert.Empty(t, sink.Documents)
	assert.Equal(t, []string{"No requests from Anna Iverson"}, sink.TextsFor(hrChat))
}

func TestAuditLogTrailingDay(t *testing.T) {
	svc, store, sink, renderer := newTestService(t)
	require.NoError(t, store.CreateEmployee(context.Background(),
		domain.Employee{ChatID: 1, FirstName: "Anna", LastName: "Iverson", Email: "a@x.com"}))

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendAudit(context.Background(), 1, "submitted request #1", now.Add(-23*time.Hour)))
	require.NoError(t, store.AppendAudit(context.Background(), 1, "submitted request #0", now.Add(-25*time.Hour)))
	require.NoError(t, store.AppendAudit(context.Background(), 7, "rejection of request #2", now.Add(-time.Hour)))

	err := svc.AuditLog(context.Background(), hrChat)
	require.NoError(t, err)

	require.Len(t, renderer.lines, 1)
	lines := renderer.lines[0]
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Anna Iverson (1): submitted request #1")
	assert.Contains(t, lines[2], "Employee 7: rejection of request #2")

	require.Len(t, sink.Documents, 1)
	assert.Equal(t, "Logs_2025-06-15_12-00-00.pdf", sink.Documents[0].Filename)
}

func TestAuditLogEmpty(t *testing.T) {
	svc, _, sink, _ := newTestService(t)

	err := svc.AuditLog(context.Background(), hrChat)
	require.NoError(t, err)
	assert.Empty(t, sink.Documents)
	assert.Equal(t, []string{"No audit entries in the last 24 hours"}, sink.TextsFor(hrChat))
}
