// Package bot wires the conversation engine, workflow and report
// services into the Telegram runtime.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"leavebot/core/bootstrap"
	"leavebot/core/logger"
	coretelegram "leavebot/core/telegram"
	tghelpers "leavebot/core/telegram/helpers"
	"leavebot/core/telegram/router"
	"leavebot/core/telegram/state"
	"leavebot/internal/conversation"
	"leavebot/internal/notify"
	"leavebot/internal/pdf"
	"leavebot/internal/report"
	"leavebot/internal/storage"
	"leavebot/internal/workflow"
)

// App owns every long-lived component of the bot process.
type App struct {
	cfg        *Config
	db         *sqlx.DB
	notifier   *notify.Telegram
	flows      *workflow.Service
	reports    *report.Service
	engine     *conversation.Engine
	listing    *pendingListing
	reviewerID int64
}

// NewApp boots infrastructure and builds the service graph. A missing
// report font is a startup failure.
func NewApp(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	renderer, err := pdf.New(cfg.Report.FontPath)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	notifier := notify.NewTelegram()
	store := storage.New(res.DB)
	reviewerID := cfg.Core.Telegram.AdminID

	flows := workflow.New(store, notifier, reviewerID)
	reports := report.New(store, notifier, renderer)
	engine := conversation.NewEngine(state.NewMemoryStore(), flows, reports)

	return &App{
		cfg:        cfg,
		db:         res.DB,
		notifier:   notifier,
		flows:      flows,
		reports:    reports,
		engine:     engine,
		listing:    newPendingListing(),
		reviewerID: reviewerID,
	}, nil
}

// TelegramRunOptions assembles routes and middlewares for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetTextFallback(a.handleMenuText)

	routes := router.TextRoutes(fsmAdapter{a}, reg, router.TextOptions{})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       a.reviewerID,
		OnAdminReject: a.denyAccess,
	})...)

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Routes:      routes,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.notifier.Bind(rt.Bot)
			return nil
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			if err := a.db.Close(); err != nil {
				logger.Warn(ctx, "app", "db close failed", slog.Any("error", err))
			}
			return nil
		},
	}, nil
}

func (a *App) isReviewer(chatID int64) bool {
	return chatID == a.reviewerID
}

func (a *App) denyAccess(c tele.Context) error {
	return tghelpers.SendText(c, "Access denied")
}

// registered reports whether the chat has an employee profile.
func (a *App) registered(ctx context.Context, chatID int64) bool {
	_, err := a.flows.Employee(ctx, chatID)
	return err == nil
}

// deliver sends the replies an engine step produced and performs the
// follow-up actions it requested.
func (a *App) deliver(c tele.Context, chatID int64, res conversation.Result) error {
	for _, r := range res.Replies {
		var markup *tele.ReplyMarkup
		switch r.Keyboard {
		case conversation.KeyboardHome:
			markup = homeKeyboard()
		case conversation.KeyboardActions:
			markup = actionKeyboard(a.isReviewer(chatID))
		}
		if err := tghelpers.SendKeyboard(c, r.Text, markup); err != nil {
			return err
		}
	}
	if res.ShowMenu {
		if err := a.showMenu(c); err != nil {
			return err
		}
	}
	if res.RefreshPending {
		a.refreshPending(tghelpers.BuildContext(c), chatID)
	}
	return nil
}

// showMenu renders the main menu appropriate for the chat.
func (a *App) showMenu(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	chatID := chatIDOf(c)
	if !a.registered(ctx, chatID) {
		return tghelpers.SendKeyboard(c, "Use /start to register", homeKeyboard())
	}
	return tghelpers.SendKeyboard(c, "Choose an action:", actionKeyboard(a.isReviewer(chatID)))
}

// refreshPending replaces the reviewer's stale pending-requests listing.
// Errors are logged only; the decision that triggered the refresh has
// already committed.
func (a *App) refreshPending(ctx context.Context, chatID int64) {
	if err := a.renderPending(ctx, chatID); err != nil {
		logger.Warn(ctx, "app", "pending refresh failed",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err),
		)
	}
}

func chatIDOf(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

// fsmAdapter exposes the conversation engine to the text router.
type fsmAdapter struct {
	app *App
}

func (f fsmAdapter) InProgress(chatID int64) bool {
	return f.app.engine.InProgress(chatID)
}

func (f fsmAdapter) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	chatID := chatIDOf(c)

	res, err := f.app.engine.Handle(ctx, chatID, c.Text())
	if sendErr := f.app.deliver(c, chatID, res); sendErr != nil && err == nil {
		err = sendErr
	}
	if err != nil {
		return fmt.Errorf("conversation step: %w", err)
	}
	return nil
}
