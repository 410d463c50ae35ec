// Package conversation drives the multi-step input flows as an explicit
// state machine: registration, request submission, rejection-reason
// capture and report-parameter capture. The engine is transport-free;
// it consumes raw text and produces replies for the bot layer to send.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leavebot/core/logger"
	"leavebot/core/telegram/state"
	"leavebot/internal/domain"
	"leavebot/internal/report"
	"leavebot/internal/storage"
	"leavebot/internal/validate"
	"leavebot/internal/workflow"
)

// MainMenuSignal aborts any flow at any step, before validation.
const MainMenuSignal = "🏠 Main menu"

const component = "conversation"

// Conversation steps. The session Values slice accumulates the inputs
// collected by earlier steps of the same flow.
const (
	StepRegisterFirstName  state.Step = "register_first_name"
	StepRegisterLastName   state.Step = "register_last_name"
	StepRegisterPosition   state.Step = "register_position"
	StepRegisterDepartment state.Step = "register_department"
	StepRegisterEmail      state.Step = "register_email"

	StepRequestStart  state.Step = "request_start"
	StepRequestEnd    state.Step = "request_end"
	StepRequestReason state.Step = "request_reason"

	StepRejectReason state.Step = "reject_reason"

	StepReportStart state.Step = "report_start"
	StepReportEnd   state.Step = "report_end"
	StepReportYear  state.Step = "report_year"
)

// Keyboard tells the bot layer which reply keyboard to attach.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	// KeyboardHome shows only the main-menu button, armed during flows.
	KeyboardHome
	// KeyboardActions shows the main action menu for the chat.
	KeyboardActions
)

// Reply is one outgoing message.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Result is what a step produced. ShowMenu asks the bot layer to render
// the main menu; RefreshPending asks it to re-render the reviewer's
// pending-requests listing.
type Result struct {
	Replies        []Reply
	ShowMenu       bool
	RefreshPending bool
}

func reply(text string, kb Keyboard) Result {
	return Result{Replies: []Reply{{Text: text, Keyboard: kb}}}
}

// Engine advances sessions one inbound message at a time. All persistence
// happens in terminal steps through the workflow and report services.
type Engine struct {
	sessions state.Store
	flows    *workflow.Service
	reports  *report.Service
	now      func() time.Time
}

func NewEngine(sessions state.Store, flows *workflow.Service, reports *report.Service) *Engine {
	return &Engine{
		sessions: sessions,
		flows:    flows,
		reports:  reports,
		now:      time.Now,
	}
}

// InProgress reports whether the chat is mid-flow.
func (e *Engine) InProgress(chatID int64) bool {
	return e.sessions.InProgress(chatID)
}

// Abort discards the chat's session, if any.
func (e *Engine) Abort(chatID int64) {
	e.sessions.Clear(chatID)
}

// StartRegistration arms the registration flow.
func (e *Engine) StartRegistration(chatID int64) Result {
	e.sessions.Put(chatID, state.Session{Step: StepRegisterFirstName})
	return reply("First name:", KeyboardHome)
}

// StartRequest arms the submission flow for one leave category.
func (e *Engine) StartRequest(chatID int64, category domain.LeaveCategory) Result {
	e.sessions.Put(chatID, state.Session{Step: StepRequestStart, Values: []string{string(category)}})
	return reply("Start date (YYYY-MM-DD):", KeyboardHome)
}

// StartRejection arms the rejection-reason step for a request.
func (e *Engine) StartRejection(chatID int64, requestID int) Result {
	e.sessions.Put(chatID, state.Session{Step: StepRejectReason, Ref: int64(requestID)})
	return reply("Rejection reason:", KeyboardHome)
}

// StartReportRange arms the period-report flow.
func (e *Engine) StartReportRange(chatID int64) Result {
	e.sessions.Put(chatID, state.Session{Step: StepReportStart})
	return reply("Period start (YYYY-MM-DD):", KeyboardHome)
}

// StartReportYear arms the duration-report flow.
func (e *Engine) StartReportYear(chatID int64) Result {
	e.sessions.Put(chatID, state.Session{Step: StepReportYear})
	return reply("Year (YYYY):", KeyboardHome)
}

// Handle feeds one inbound message into the chat's session. The
// main-menu signal is checked before anything else at every step.
func (e *Engine) Handle(ctx context.Context, chatID int64, input string) (Result, error) {
	if input == MainMenuSignal {
		e.sessions.Clear(chatID)
		return Result{ShowMenu: true}, nil
	}

	sess, ok := e.sessions.Get(chatID)
	if !ok {
		return Result{ShowMenu: true}, nil
	}

	logger.Debug(ctx, component, "step input",
		slog.Int64("chat_id", chatID),
		slog.String("step", string(sess.Step)),
	)

	switch sess.Step {
	case StepRegisterFirstName:
		return e.advance(chatID, sess, input, StepRegisterLastName, "Last name:"), nil
	case StepRegisterLastName:
		return e.advance(chatID, sess, input, StepRegisterPosition, "Position:"), nil
	case StepRegisterPosition:
		return e.advance(chatID, sess, input, StepRegisterDepartment, "Department:"), nil
	case StepRegisterDepartment:
		return e.advance(chatID, sess, input, StepRegisterEmail, "Email:"), nil
	case StepRegisterEmail:
		return e.finishRegistration(ctx, chatID, sess, input)

	case StepRequestStart:
		start, err := validate.Date(input, e.now(), false)
		if err != nil {
			return e.retry(err), nil
		}
		e.sessions.Put(chatID, withStep(sess.WithValue(start.Format(validate.DateLayout)), StepRequestEnd))
		return reply("End date (YYYY-MM-DD):", KeyboardHome), nil
	case StepRequestEnd:
		end, err := validate.Date(input, e.now(), false)
		if err != nil {
			return e.retry(err), nil
		}
		start := mustDate(sess.Values[1])
		if err := validate.Ordered(start, end); err != nil {
			return e.retry(err), nil
		}
		e.sessions.Put(chatID, withStep(sess.WithValue(end.Format(validate.DateLayout)), StepRequestReason))
		return reply("Reason:", KeyboardHome), nil
	case StepRequestReason:
		return e.finishRequest(ctx, chatID, sess, input)

	case StepRejectReason:
		return e.finishRejection(ctx, chatID, sess, input)

	case StepReportStart:
		start, err := validate.Date(input, e.now(), true)
		if err != nil {
			return e.retry(err), nil
		}
		e.sessions.Put(chatID, withStep(sess.WithValue(start.Format(validate.DateLayout)), StepReportEnd))
		return reply("Period end (YYYY-MM-DD):", KeyboardHome), nil
	case StepReportEnd:
		return e.finishReportRange(ctx, chatID, sess, input)

	case StepReportYear:
		return e.finishReportYear(ctx, chatID, input)
	}

	// Unknown step, drop the session rather than wedge the chat.
	e.sessions.Clear(chatID)
	return Result{ShowMenu: true}, nil
}

// advance stores a free-text answer and arms the next step.
func (e *Engine) advance(chatID int64, sess state.Session, input string, next state.Step, prompt string) Result {
	e.sessions.Put(chatID, withStep(sess.WithValue(input), next))
	return reply(prompt, KeyboardHome)
}

// retry re-arms the current step with the failure marker.
func (e *Engine) retry(err error) Result {
	return reply(fmt.Sprintf("❌ %s", capitalize(err.Error())), KeyboardHome)
}

func (e *Engine) finishRegistration(ctx context.Context, chatID int64, sess state.Session, input string) (Result, error) {
	if err := validate.Email(input); err != nil {
		return e.retry(err), nil
	}
	emp := domain.Employee{
		ChatID:     chatID,
		FirstName:  sess.Values[0],
		LastName:   sess.Values[1],
		Position:   sess.Values[2],
		Department: sess.Values[3],
		Email:      input,
	}
	err := e.flows.RegisterEmployee(ctx, emp)
	if errors.Is(err, storage.ErrEmailTaken) {
		return e.retry(errors.New("email already registered")), nil
	}
	if err != nil {
		e.sessions.Clear(chatID)
		return reply("❌ Registration failed, try again with /start", KeyboardHome), err
	}
	e.sessions.Clear(chatID)
	return reply("✅ Registration complete", KeyboardActions), nil
}

func (e *Engine) finishRequest(ctx context.Context, chatID int64, sess state.Session, input string) (Result, error) {
	category := domain.LeaveCategory(sess.Values[0])
	start := mustDate(sess.Values[1])
	end := mustDate(sess.Values[2])

	id, err := e.flows.Submit(ctx, chatID, category, start, end, input)
	if err != nil {
		e.sessions.Clear(chatID)
		return reply("❌ Something went wrong, try again", KeyboardActions), err
	}
	e.sessions.Clear(chatID)
	return reply(fmt.Sprintf("✅ Request #%d submitted", id), KeyboardActions), nil
}

func (e *Engine) finishRejection(ctx context.Context, chatID int64, sess state.Session, input string) (Result, error) {
	id := int(sess.Ref)
	e.sessions.Clear(chatID)

	_, err := e.flows.Decide(ctx, id, domain.StatusRejected, input)
	switch {
	case errors.Is(err, storage.ErrRequestNotFound):
		return reply(fmt.Sprintf("Request #%d not found", id), KeyboardActions), nil
	case errors.Is(err, workflow.ErrAlreadyDecided):
		res := reply(fmt.Sprintf("Request #%d is already decided", id), KeyboardActions)
		res.RefreshPending = true
		return res, nil
	case err != nil:
		return reply("❌ Something went wrong, try again", KeyboardActions), err
	}
	res := reply(fmt.Sprintf("❌ #%d rejected", id), KeyboardActions)
	res.RefreshPending = true
	return res, nil
}

func (e *Engine) finishReportRange(ctx context.Context, chatID int64, sess state.Session, input string) (Result, error) {
	end, err := validate.Date(input, e.now(), false)
	if err != nil {
		return e.retry(err), nil
	}
	start := mustDate(sess.Values[0])
	if err := validate.Ordered(start, end); err != nil {
		return e.retry(err), nil
	}
	e.sessions.Clear(chatID)
	if err := e.reports.Range(ctx, chatID, start, end); err != nil {
		return reply("❌ Report failed, try again", KeyboardActions), err
	}
	return Result{ShowMenu: true}, nil
}

func (e *Engine) finishReportYear(ctx context.Context, chatID int64, input string) (Result, error) {
	year, err := validate.Year(input, e.now())
	if err != nil {
		return e.retry(err), nil
	}
	e.sessions.Clear(chatID)
	if err := e.reports.DurationByDepartment(ctx, chatID, year); err != nil {
		return reply("❌ Report failed, try again", KeyboardActions), err
	}
	return Result{ShowMenu: true}, nil
}

func withStep(s state.Session, step state.Step) state.Session {
	s.Step = step
	return s
}

// mustDate reads back a value the flow itself formatted.
func mustDate(v string) time.Time {
	t, err := time.Parse(validate.DateLayout, v)
	if err != nil {
		panic(fmt.Sprintf("conversation: malformed stored date %q", v))
	}
	return t
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-('a'-'A')) + s[1:]
}
