// Package domain defines the entities shared by storage, workflow and reports.
package domain

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of a leave request.
// A request is decided exactly once: pending -> approved or pending -> rejected.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// LeaveCategory is the kind of leave being requested.
type LeaveCategory string

const (
	CategoryAnnualPaid        LeaveCategory = "annual paid leave"
	CategorySupplementaryPaid LeaveCategory = "supplementary paid leave"
	CategoryUnpaid            LeaveCategory = "unpaid leave"
	CategorySick              LeaveCategory = "sick leave"
)

// Employee is keyed by the Telegram chat identifier that registered it.
type Employee struct {
	ChatID     int64  `db:"chat_id"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	Position   string `db:"position"`
	Department string `db:"department"`
	Email      string `db:"email"`
}

// FullName returns the display name used in listings and reports.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Request is one leave or sick-leave application.
type Request struct {
	ID         int           `db:"id"`
	EmployeeID int64         `db:"employee_id"`
	StartDate  time.Time     `db:"start_date"`
	EndDate    time.Time     `db:"end_date"`
	Category   LeaveCategory `db:"category"`
	Status     RequestStatus `db:"status"`
	Reason     string        `db:"reason"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

// Days returns the inclusive duration of the request in days.
func (r Request) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// Span renders the date range the way it appears in notifications and reports.
func (r Request) Span() string {
	return fmt.Sprintf("%s - %s", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
}

// AuditEntry is an append-only action record. EmployeeID is not a foreign
// key: deletion entries are attributed to the reviewer, who may not be a
// registered employee, and must survive employee deletion.
type AuditEntry struct {
	ID         int       `db:"id"`
	EmployeeID int64     `db:"employee_id"`
	Action     string    `db:"action"`
	CreatedAt  time.Time `db:"created_at"`
}
