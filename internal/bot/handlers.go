package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	coretelegram "leavebot/core/telegram"
	"leavebot/core/telegram/commands"
	tghelpers "leavebot/core/telegram/helpers"
	"leavebot/core/telegram/keyboard"
	"leavebot/internal/domain"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Register or show the menu",
	})
}

// handleStart begins registration for new chats and shows the menu to
// registered ones.
func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	chatID := chatIDOf(c)

	if a.registered(ctx, chatID) {
		return tghelpers.SendKeyboard(c, "You are already registered", actionKeyboard(a.isReviewer(chatID)))
	}
	a.engine.Abort(chatID)
	return a.deliver(c, chatID, a.engine.StartRegistration(chatID))
}

// handleMenuText dispatches reply-keyboard button presses. It only runs
// when no conversation is in progress for the chat.
func (a *App) handleMenuText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	chatID := chatIDOf(c)
	text := c.Text()

	if category, ok := vacationCategories[text]; ok {
		return a.startRequest(c, ctx, chatID, category)
	}

	switch text {
	case btnMainMenu:
		return a.showMenu(c)

	case btnVacation:
		if !a.registered(ctx, chatID) {
			return tghelpers.SendText(c, "Register first with /start")
		}
		return tghelpers.SendKeyboard(c, "Vacation type:", vacationTypeKeyboard())

	case btnSickLeave:
		return a.startRequest(c, ctx, chatID, domain.CategorySick)

	case btnReview:
		if !a.isReviewer(chatID) {
			return a.denyAccess(c)
		}
		return a.renderPending(ctx, chatID)

	case btnReport:
		if !a.isReviewer(chatID) {
			return a.denyAccess(c)
		}
		return tghelpers.SendKeyboard(c, "Report type:", reportKeyboard())

	case btnReportPeriod:
		if !a.isReviewer(chatID) {
			return a.denyAccess(c)
		}
		return a.deliver(c, chatID, a.engine.StartReportRange(chatID))

	case btnReportDuration:
		if !a.isReviewer(chatID) {
			return a.denyAccess(c)
		}
		return a.deliver(c, chatID, a.engine.StartReportYear(chatID))

	case btnReportEmployee:
		if !a.isReviewer(chatID) {
			return a.denyAccess(c)
		}
		return a.sendEmployeeList(c, ctx, cbEmployeeReport, "Select an employee:")

	case btnDeleteUser:
		if !a.isReviewer(chatID) {
			return a.denyAccess(c)
		}
		return a.sendEmployeeList(c, ctx, cbDeleteUser, "Select an employee:")

	case btnLogs:
		if !a.isReviewer(chatID) {
			return a.denyAccess(c)
		}
		return a.reports.AuditLog(ctx, chatID)
	}

	return a.showMenu(c)
}

func (a *App) startRequest(c tele.Context, ctx context.Context, chatID int64, category domain.LeaveCategory) error {
	if !a.registered(ctx, chatID) {
		return tghelpers.SendText(c, "Register first with /start")
	}
	return a.deliver(c, chatID, a.engine.StartRequest(chatID, category))
}

// renderPending deletes the previous pending-requests listing, if any,
// and sends a fresh one. The new listing's message id is remembered so
// the next decision can replace it.
func (a *App) renderPending(ctx context.Context, chatID int64) error {
	if prev, ok := a.listing.Take(chatID); ok {
		// Stale listing may already be gone, that is fine.
		_ = a.notifier.Delete(chatID, prev)
	}

	pending, err := a.flows.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		id, err := a.notifier.Send(chatID, "No pending requests", nil)
		if err != nil {
			return err
		}
		a.listing.Remember(chatID, id)
		return nil
	}

	buttons := make([]keyboard.InlineBtn, 0, len(pending))
	for _, req := range pending {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   fmt.Sprintf("📋 #%d (%s)", req.ID, req.Category),
			Unique: cbReview,
			Data:   fmt.Sprintf("%d", req.ID),
		})
	}
	id, err := a.notifier.Send(chatID, "Select a request:", keyboard.InlineButtons(buttons))
	if err != nil {
		return err
	}
	a.listing.Remember(chatID, id)
	return nil
}

// sendEmployeeList renders one inline button per registered employee,
// each carrying the employee id for the given action.
func (a *App) sendEmployeeList(c tele.Context, ctx context.Context, action, prompt string) error {
	employees, err := a.flows.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if len(employees) == 0 {
		return tghelpers.SendText(c, "No employees registered")
	}

	buttons := make([]keyboard.InlineBtn, 0, len(employees))
	for _, e := range employees {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s (%d)", e.FullName(), e.ChatID),
			Unique: action,
			Data:   fmt.Sprintf("%d", e.ChatID),
		})
	}
	return tghelpers.SendKeyboard(c, prompt, keyboard.InlineButtons(buttons))
}
