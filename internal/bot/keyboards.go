package bot

import (
	tele "gopkg.in/telebot.v4"

	"leavebot/core/telegram/keyboard"
	"leavebot/internal/conversation"
	"leavebot/internal/domain"
)

// Reply-keyboard labels. Button presses arrive back as plain text, so
// these double as routing keys in the text dispatcher.
const (
	btnMainMenu = conversation.MainMenuSignal

	btnVacation  = "🏖️ Vacation"
	btnSickLeave = "🤒 Sick leave"

	btnReview     = "📋 Pending requests"
	btnReport     = "📊 Report"
	btnDeleteUser = "🗑️ Delete employee"
	btnLogs       = "📜 Logs"

	btnTypeAnnual        = "🌴 Annual paid leave"
	btnTypeSupplementary = "🌞 Supplementary paid leave"
	btnTypeUnpaid        = "🏝️ Unpaid leave"

	btnReportPeriod   = "📅 Requests for a period"
	btnReportDuration = "⏳ Duration by department"
	btnReportEmployee = "👤 Employee requests"
)

// vacationCategories maps type buttons to leave categories.
var vacationCategories = map[string]domain.LeaveCategory{
	btnTypeAnnual:        domain.CategoryAnnualPaid,
	btnTypeSupplementary: domain.CategorySupplementaryPaid,
	btnTypeUnpaid:        domain.CategoryUnpaid,
}

// homeKeyboard is armed during flows so the menu stays one tap away.
func homeKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{btnMainMenu})
}

func actionKeyboard(reviewer bool) *tele.ReplyMarkup {
	rows := [][]string{{btnVacation, btnSickLeave}}
	if reviewer {
		rows = append(rows,
			[]string{btnReview, btnReport},
			[]string{btnDeleteUser, btnLogs},
		)
	}
	return keyboard.ReplyButtons(rows...)
}

func vacationTypeKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnTypeAnnual},
		[]string{btnTypeSupplementary},
		[]string{btnTypeUnpaid},
		[]string{btnMainMenu},
	)
}

func reportKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{btnReportPeriod},
		[]string{btnReportDuration},
		[]string{btnReportEmployee},
		[]string{btnMainMenu},
	)
}
