// Package workflow implements employee registration, leave request
// submission and the approve/reject state machine.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leavebot/core/logger"
	"leavebot/internal/domain"
	"leavebot/internal/notify"
	"leavebot/internal/storage"
)

// ErrAlreadyDecided is returned when a decision targets a request that
// is no longer pending.
var ErrAlreadyDecided = errors.New("request already decided")

const (
	componentEmployees = "service.employees"
	componentRequests  = "service.requests"
)

// Service coordinates persistence, audit and notifications for the
// request lifecycle. State changes and their audit rows commit in one
// transaction; notifications go out after commit and never roll one back.
type Service struct {
	store      storage.Store
	sender     notify.Sender
	reviewerID int64
	now        func() time.Time
}

func New(store storage.Store, sender notify.Sender, reviewerID int64) *Service {
	return &Service{
		store:      store,
		sender:     sender,
		reviewerID: reviewerID,
		now:        time.Now,
	}
}

// RegisterEmployee persists a new employee profile. A duplicate email
// surfaces as storage.ErrEmailTaken so the caller can re-prompt.
func (s *Service) RegisterEmployee(ctx context.Context, e domain.Employee) error {
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return err
	}
	logger.Info(ctx, componentEmployees, "employee registered",
		slog.Int64("employee_id", e.ChatID),
		slog.String("department", e.Department),
	)
	return nil
}

// Employee returns the profile registered for the chat, if any.
func (s *Service) Employee(ctx context.Context, chatID int64) (domain.Employee, error) {
	return s.store.GetEmployee(ctx, chatID)
}

// ListEmployees returns all registered profiles ordered by chat id.
func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.store.ListEmployees(ctx)
}

// Submit creates a pending request together with its audit entry and
// then notifies the reviewer with the details needed to decide it.
func (s *Service) Submit(ctx context.Context, employeeID int64, category domain.LeaveCategory, start, end time.Time, reason string) (int, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	var id int
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		var txErr error
		id, txErr = tx.CreateRequest(ctx, domain.Request{
			EmployeeID: employeeID,
			StartDate:  start,
			EndDate:    end,
			Category:   category,
			Status:     domain.StatusPending,
			Reason:     reason,
			CreatedAt:  now,
		})
		if txErr != nil {
			return txErr
		}
		return tx.AppendAudit(ctx, employeeID, fmt.Sprintf("submitted request #%d", id), now)
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, componentRequests, "request submitted",
		slog.Int("request_id", id),
		slog.Int64("employee_id", employeeID),
		slog.String("category", string(category)),
	)

	text := fmt.Sprintf("Request #%d from %s: %s, %s - %s. Reason: %s",
		id, emp.FullName(), category,
		start.Format("2006-01-02"), end.Format("2006-01-02"), reason)
	if _, err := s.sender.Send(s.reviewerID, text, nil); err != nil {
		logger.Warn(ctx, componentRequests, "reviewer notification failed",
			slog.Int("request_id", id),
			slog.Any("error", err),
		)
	}
	return id, nil
}

// ListPending returns undecided requests, newest first.
func (s *Service) ListPending(ctx context.Context) ([]domain.Request, error) {
	return s.store.ListPendingRequests(ctx)
}

// Request returns a single request by id.
func (s *Service) Request(ctx context.Context, id int) (domain.Request, error) {
	return s.store.GetRequest(ctx, id)
}

// Decide applies an approve or reject transition. The status change and
// its audit entry commit together; the employee is notified afterwards,
// with the reason included on rejection. A request that is already
// decided yields ErrAlreadyDecided.
func (s *Service) Decide(ctx context.Context, id int, decision domain.RequestStatus, reason string) (domain.Request, error) {
	if decision != domain.StatusApproved && decision != domain.StatusRejected {
		return domain.Request{}, fmt.Errorf("invalid decision %q", decision)
	}

	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return domain.Request{}, err
	}
	if req.Status != domain.StatusPending {
		return domain.Request{}, ErrAlreadyDecided
	}

	now := s.now()
	action := fmt.Sprintf("approval of request #%d", id)
	if decision == domain.StatusRejected {
		action = fmt.Sprintf("rejection of request #%d", id)
	}
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		if txErr := tx.SetRequestStatus(ctx, id, decision, now); txErr != nil {
			return txErr
		}
		return tx.AppendAudit(ctx, req.EmployeeID, action, now)
	})
	if err != nil {
		return domain.Request{}, err
	}
	req.Status = decision
	req.UpdatedAt = now

	logger.Info(ctx, componentRequests, "request decided",
		slog.Int("request_id", id),
		slog.String("decision", string(decision)),
		slog.Int64("employee_id", req.EmployeeID),
	)

	text := fmt.Sprintf("✅ Request #%d approved", id)
	if decision == domain.StatusRejected {
		text = fmt.Sprintf("❌ Request #%d rejected: %s", id, reason)
	}
	if _, err := s.sender.Send(req.EmployeeID, text, nil); err != nil {
		logger.Warn(ctx, componentRequests, "employee notification failed",
			slog.Int("request_id", id),
			slog.Int64("employee_id", req.EmployeeID),
			slog.Any("error", err),
		)
	}
	return req, nil
}

// DeleteEmployee removes the profile with its requests and audit trail
// in one transaction, then records the deletion attributed to the
// reviewer. The removed profile is returned for the confirmation text.
func (s *Service) DeleteEmployee(ctx context.Context, chatID int64) (domain.Employee, error) {
	emp, err := s.store.GetEmployee(ctx, chatID)
	if err != nil {
		return domain.Employee{}, err
	}

	now := s.now()
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		if txErr := tx.DeleteRequestsByEmployee(ctx, chatID); txErr != nil {
			return txErr
		}
		if txErr := tx.DeleteAuditByEmployee(ctx, chatID); txErr != nil {
			return txErr
		}
		if txErr := tx.DeleteEmployee(ctx, chatID); txErr != nil {
			return txErr
		}
		return tx.AppendAudit(ctx, s.reviewerID, fmt.Sprintf("deleted employee %d", chatID), now)
	})
	if err != nil {
		return domain.Employee{}, err
	}

	logger.Info(ctx, componentEmployees, "employee deleted",
		slog.Int64("employee_id", chatID),
	)
	return emp, nil
}
