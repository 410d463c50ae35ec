// Package report builds PDF reports over requests and the audit trail
// and delivers them to the requesting chat.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leavebot/core/logger"
	"leavebot/internal/notify"
	"leavebot/internal/storage"
)

const component = "service.reports"

const dateLayout = "2006-01-02"

// Renderer turns a title and lines into a finished document.
type Renderer interface {
	Render(title string, lines []string) ([]byte, error)
}

// Service queries the store, renders a document and sends it. When a
// query yields no rows the chat gets a short notice and no document.
type Service struct {
	store  storage.Store
	sender notify.Sender
	pdf    Renderer
	now    func() time.Time
}

func New(store storage.Store, sender notify.Sender, pdf Renderer) *Service {
	return &Service{
		store:  store,
		sender: sender,
		pdf:    pdf,
		now:    time.Now,
	}
}

// Range reports every request whose whole span lies inside [from, to].
func (s *Service) Range(ctx context.Context, chatID int64, from, to time.Time) error {
	reqs, err := s.store.ListRequestsWithin(ctx, from, to)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return s.notice(chatID, fmt.Sprintf("No requests between %s and %s",
			from.Format(dateLayout), to.Format(dateLayout)))
	}

	names, err := s.employeeNames(ctx)
	if err != nil {
		return err
	}
	lines := []string{fmt.Sprintf("Requests from %s to %s:",
		from.Format(dateLayout), to.Format(dateLayout))}
	for _, r := range reqs {
		lines = append(lines, fmt.Sprintf("#%d - %s (%s, %s) - %s",
			r.ID, names.lookup(r.EmployeeID), r.Category, r.Span(), r.Status))
	}

	filename := fmt.Sprintf("Requests_%s_%s.pdf", from.Format(dateLayout), to.Format(dateLayout))
	return s.deliver(ctx, chatID, "range", "Requests report", lines, filename)
}

// DurationByDepartment sums inclusive leave days per department over the
// calendar year. Departments appear in the order requests are stored;
// an employee without one counts under "No department".
func (s *Service) DurationByDepartment(ctx context.Context, chatID int64, year int) error {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	reqs, err := s.store.ListRequestsWithin(ctx, from, to)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return s.notice(chatID, fmt.Sprintf("No requests for %d", year))
	}

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	departments := make(map[int64]string, len(employees))
	for _, e := range employees {
		departments[e.ChatID] = e.Department
	}

	var order []string
	days := map[string]int{}
	for _, r := range reqs {
		dept := departments[r.EmployeeID]
		if dept == "" {
			dept = "No department"
		}
		if _, seen := days[dept]; !seen {
			order = append(order, dept)
		}
		days[dept] += r.Days()
	}

	lines := []string{fmt.Sprintf("Leave and sick days in %d by department:", year)}
	for _, dept := range order {
		lines = append(lines, fmt.Sprintf("- %s: %d days", dept, days[dept]))
	}

	filename := fmt.Sprintf("Duration_%d.pdf", year)
	return s.deliver(ctx, chatID, "duration", "Duration report", lines, filename)
}

// Employee reports the full request history of one employee.
func (s *Service) Employee(ctx context.Context, chatID int64, employeeID int64) error {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	reqs, err := s.store.ListRequestsByEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return s.notice(chatID, fmt.Sprintf("No requests from %s", emp.FullName()))
	}

	lines := []string{fmt.Sprintf("Requests of %s (%d):", emp.FullName(), employeeID)}
	for _, r := range reqs {
		lines = append(lines, fmt.Sprintf("#%d - %s, %s, status: %s",
			r.ID, r.Category, r.Span(), r.Status))
	}

	title := fmt.Sprintf("Employee report: %s", emp.FullName())
	filename := fmt.Sprintf("Employee_%d_Requests.pdf", employeeID)
	return s.deliver(ctx, chatID, "employee", title, lines, filename)
}

// AuditLog reports the trailing 24 hours of audit entries, oldest first.
func (s *Service) AuditLog(ctx context.Context, chatID int64) error {
	end := s.now()
	start := end.Add(-24 * time.Hour)
	entries, err := s.store.ListAuditBetween(ctx, start, end)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return s.notice(chatID, "No audit entries in the last 24 hours")
	}

	names, err := s.employeeNames(ctx)
	if err != nil {
		return err
	}
	const tsLayout = "2006-01-02 15:04:05"
	lines := []string{fmt.Sprintf("Audit entries from %s to %s:",
		start.Format(tsLayout), end.Format(tsLayout))}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s - %s: %s",
			e.CreatedAt.Format(tsLayout), names.lookup(e.EmployeeID), e.Action))
	}

	filename := fmt.Sprintf("Logs_%s.pdf", end.Format("2006-01-02_15-04-05"))
	return s.deliver(ctx, chatID, "audit", "Audit log report", lines, filename)
}

func (s *Service) deliver(ctx context.Context, chatID int64, kind, title string, lines []string, filename string) error {
	data, err := s.pdf.Render(title, lines)
	if err != nil {
		return fmt.Errorf("render %s report: %w", kind, err)
	}
	if err := s.sender.SendDocument(chatID, data, filename); err != nil {
		return fmt.Errorf("send %s report: %w", kind, err)
	}
	logger.Info(ctx, component, "report delivered",
		slog.String("report", kind),
		slog.Int("lines", len(lines)-1),
	)
	return s.notice(chatID, "Report sent as PDF")
}

func (s *Service) notice(chatID int64, text string) error {
	_, err := s.sender.Send(chatID, text, nil)
	return err
}

type nameIndex map[int64]string

func (s *Service) employeeNames(ctx context.Context) (nameIndex, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(nameIndex, len(employees))
	for _, e := range employees {
		idx[e.ChatID] = fmt.Sprintf("%s (%d)", e.FullName(), e.ChatID)
	}
	return idx, nil
}

// lookup keeps reports usable after an employee is deleted.
func (n nameIndex) lookup(id int64) string {
	if name, ok := n[id]; ok {
		return name
	}
	return fmt.Sprintf("Employee %d", id)
}
