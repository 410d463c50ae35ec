// Package storagetest provides an in-memory Store for service tests.
package storagetest

import (
	"context"
	"sort"
	"time"

	"leavebot/internal/domain"
	"leavebot/internal/storage"
)

// Fake holds all data in memory. InTx runs the callback against the
// same instance; set one of the error hooks to force a failure inside
// a transaction.
type Fake struct {
	Employees map[int64]domain.Employee
	Requests  map[int]domain.Request
	Audit     []domain.AuditEntry

	nextRequestID int

	CreateRequestErr    error
	SetRequestStatusErr error
	AppendAuditErr      error
}

func NewFake() *Fake {
	return &Fake{
		Employees:     map[int64]domain.Employee{},
		Requests:      map[int]domain.Request{},
		nextRequestID: 1,
	}
}

func (f *Fake) InTx(_ context.Context, fn func(storage.Store) error) error {
	return fn(f)
}

func (f *Fake) CreateEmployee(_ context.Context, e domain.Employee) error {
	for _, existing := range f.Employees {
		if existing.Email == e.Email {
			return storage.ErrEmailTaken
		}
	}
	f.Employees[e.ChatID] = e
	return nil
}

func (f *Fake) GetEmployee(_ context.Context, chatID int64) (domain.Employee, error) {
	e, ok := f.Employees[chatID]
	if !ok {
		return domain.Employee{}, storage.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *Fake) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	ids := make([]int64, 0, len(f.Employees))
	for id := range f.Employees {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.Employee, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.Employees[id])
	}
	return out, nil
}

func (f *Fake) DeleteEmployee(_ context.Context, chatID int64) error {
	if _, ok := f.Employees[chatID]; !ok {
		return storage.ErrEmployeeNotFound
	}
	delete(f.Employees, chatID)
	return nil
}

func (f *Fake) CreateRequest(_ context.Context, r domain.Request) (int, error) {
	if f.CreateRequestErr != nil {
		return 0, f.CreateRequestErr
	}
	r.ID = f.nextRequestID
	f.nextRequestID++
	f.Requests[r.ID] = r
	return r.ID, nil
}

func (f *Fake) GetRequest(_ context.Context, id int) (domain.Request, error) {
	r, ok := f.Requests[id]
	if !ok {
		return domain.Request{}, storage.ErrRequestNotFound
	}
	return r, nil
}

func (f *Fake) SetRequestStatus(_ context.Context, id int, status domain.RequestStatus, at time.Time) error {
	if f.SetRequestStatusErr != nil {
		return f.SetRequestStatusErr
	}
	r, ok := f.Requests[id]
	if !ok {
		return storage.ErrRequestNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	f.Requests[id] = r
	return nil
}

func (f *Fake) ListPendingRequests(_ context.Context) ([]domain.Request, error) {
	out := f.allRequests()
	pending := out[:0]
	for _, r := range out {
		if r.Status == domain.StatusPending {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID > pending[j].ID })
	return pending, nil
}

func (f *Fake) ListRequestsWithin(_ context.Context, from, to time.Time) ([]domain.Request, error) {
	var out []domain.Request
	for _, r := range f.allRequests() {
		if !r.StartDate.Before(from) && !r.EndDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) ListRequestsByEmployee(_ context.Context, chatID int64) ([]domain.Request, error) {
	var out []domain.Request
	for _, r := range f.allRequests() {
		if r.EmployeeID == chatID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *Fake) DeleteRequestsByEmployee(_ context.Context, chatID int64) error {
	for id, r := range f.Requests {
		if r.EmployeeID == chatID {
			delete(f.Requests, id)
		}
	}
	return nil
}

func (f *Fake) AppendAudit(_ context.Context, employeeID int64, action string, at time.Time) error {
	if f.AppendAuditErr != nil {
		return f.AppendAuditErr
	}
	f.Audit = append(f.Audit, domain.AuditEntry{
		ID:         len(f.Audit) + 1,
		EmployeeID: employeeID,
		Action:     action,
		CreatedAt:  at,
	})
	return nil
}

func (f *Fake) ListAuditBetween(_ context.Context, from, to time.Time) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, a := range f.Audit {
		if !a.CreatedAt.Before(from) && !a.CreatedAt.After(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *Fake) DeleteAuditByEmployee(_ context.Context, chatID int64) error {
	kept := f.Audit[:0]
	for _, a := range f.Audit {
		if a.EmployeeID != chatID {
			kept = append(kept, a)
		}
	}
	f.Audit = kept
	return nil
}

func (f *Fake) allRequests() []domain.Request {
	out := make([]domain.Request, 0, len(f.Requests))
	for _, r := range f.Requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Actions returns the recorded audit action strings in append order.
func (f *Fake) Actions() []string {
	out := make([]string, len(f.Audit))
	for i, a := range f.Audit {
		out[i] = a.Action
	}
	return out
}

var _ storage.Store = (*Fake)(nil)
