package bot

import (
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	coretelegram "leavebot/core/telegram"
	"leavebot/core/telegram/callbacks"
	tghelpers "leavebot/core/telegram/helpers"
	"leavebot/core/telegram/keyboard"
	"leavebot/internal/domain"
	"leavebot/internal/storage"
	"leavebot/internal/workflow"
)

// Inline-button action keys. The key plus its numeric payload is decoded
// once here; handlers never touch raw callback data.
const (
	cbReview         = "review"
	cbApprove        = "approve"
	cbReject         = "reject"
	cbEmployeeReport = "emp_report"
	cbDeleteUser     = "deluser"
	cbConfirmDelete  = "confirmdel"
	cbCancelDelete   = "cancel_delete"
)

func (a *App) registerCallbacks(reg *coretelegram.Registry) error {
	for key, h := range map[string]tele.HandlerFunc{
		cbReview:         a.cbReviewRequest,
		cbApprove:        a.cbApproveRequest,
		cbReject:         a.cbRejectRequest,
		cbEmployeeReport: a.cbEmployeeReport,
		cbDeleteUser:     a.cbConfirmDeletePrompt,
		cbConfirmDelete:  a.cbDeleteEmployee,
		cbCancelDelete:   a.cbCancelDelete,
	} {
		if err := reg.RegisterCallback(key, a.reviewerOnly(h)); err != nil {
			return err
		}
	}
	return nil
}

// reviewerOnly gates callback actions the same way text entry points
// are gated; inline buttons can be replayed by any client.
func (a *App) reviewerOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !a.isReviewer(chatIDOf(c)) {
			return a.denyAccess(c)
		}
		return next(c)
	}
}

// cbReviewRequest shows one request with approve/reject buttons.
func (a *App) cbReviewRequest(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id, err := callbacks.PayloadInt(c)
	if err != nil {
		return fmt.Errorf("review payload: %w", err)
	}

	req, err := a.flows.Request(ctx, id)
	if errors.Is(err, storage.ErrRequestNotFound) {
		return tghelpers.SendText(c, fmt.Sprintf("Request #%d not found", id))
	}
	if err != nil {
		return err
	}

	name := fmt.Sprintf("Employee %d", req.EmployeeID)
	if emp, err := a.flows.Employee(ctx, req.EmployeeID); err == nil {
		name = emp.FullName()
	}

	payload := fmt.Sprintf("%d", id)
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Approve", Unique: cbApprove, Data: payload},
		{Text: "❌ Reject", Unique: cbReject, Data: payload},
	})
	text := fmt.Sprintf("#%d from %s: %s, %s, %s", id, name, req.Category, req.Span(), req.Reason)
	return tghelpers.SendKeyboard(c, text, markup)
}

func (a *App) cbApproveRequest(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	chatID := chatIDOf(c)
	id, err := callbacks.PayloadInt(c)
	if err != nil {
		return fmt.Errorf("approve payload: %w", err)
	}

	_, err = a.flows.Decide(ctx, id, domain.StatusApproved, "")
	switch {
	case errors.Is(err, storage.ErrRequestNotFound):
		return tghelpers.SendText(c, fmt.Sprintf("Request #%d not found", id))
	case errors.Is(err, workflow.ErrAlreadyDecided):
		if sendErr := tghelpers.SendText(c, fmt.Sprintf("Request #%d is already decided", id)); sendErr != nil {
			return sendErr
		}
		a.refreshPending(ctx, chatID)
		return nil
	case err != nil:
		return err
	}

	if err := tghelpers.SendText(c, fmt.Sprintf("✅ #%d approved", id)); err != nil {
		return err
	}
	a.refreshPending(ctx, chatID)
	return nil
}

// cbRejectRequest arms the rejection-reason step; the decision itself
// happens when the reviewer sends the reason text.
func (a *App) cbRejectRequest(c tele.Context) error {
	chatID := chatIDOf(c)
	id, err := callbacks.PayloadInt(c)
	if err != nil {
		return fmt.Errorf("reject payload: %w", err)
	}
	return a.deliver(c, chatID, a.engine.StartRejection(chatID, id))
}

func (a *App) cbEmployeeReport(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	chatID := chatIDOf(c)
	employeeID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fmt.Errorf("employee report payload: %w", err)
	}

	err = a.reports.Employee(ctx, chatID, employeeID)
	if errors.Is(err, storage.ErrEmployeeNotFound) {
		return tghelpers.SendText(c, "Employee not found")
	}
	return err
}

// cbConfirmDeletePrompt asks for explicit confirmation before deleting.
func (a *App) cbConfirmDeletePrompt(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	employeeID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fmt.Errorf("delete payload: %w", err)
	}

	emp, err := a.flows.Employee(ctx, employeeID)
	if errors.Is(err, storage.ErrEmployeeNotFound) {
		return tghelpers.SendText(c, "Employee not found")
	}
	if err != nil {
		return err
	}

	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Yes", Unique: cbConfirmDelete, Data: fmt.Sprintf("%d", employeeID)},
		{Text: "❌ No", Unique: cbCancelDelete},
	})
	text := fmt.Sprintf("Delete %s (%d)?", emp.FullName(), employeeID)
	return tghelpers.SendKeyboard(c, text, markup)
}

func (a *App) cbDeleteEmployee(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	chatID := chatIDOf(c)
	employeeID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return fmt.Errorf("confirm delete payload: %w", err)
	}

	emp, err := a.flows.DeleteEmployee(ctx, employeeID)
	if errors.Is(err, storage.ErrEmployeeNotFound) {
		return tghelpers.SendText(c, "Employee not found")
	}
	if err != nil {
		return err
	}
	text := fmt.Sprintf("✅ %s deleted", emp.FullName())
	return tghelpers.SendKeyboard(c, text, actionKeyboard(a.isReviewer(chatID)))
}

func (a *App) cbCancelDelete(c tele.Context) error {
	chatID := chatIDOf(c)
	return tghelpers.SendKeyboard(c, "❌ Cancelled", actionKeyboard(a.isReviewer(chatID)))
}
