// Package worker reacts to SmartSave events: it mirrors imported
// transactions to the spreadsheet, notifies users on WhatsApp and re-checks
// their budgets.
package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"smartsave/internal/amqp"
	"smartsave/internal/budget"
	"smartsave/internal/cache"
	"smartsave/internal/core"
	"smartsave/internal/log"
	"smartsave/internal/notify"
	"smartsave/internal/sheets"
)

// maxConcurrentSends bounds parallel WhatsApp requests per event.
const maxConcurrentSends = 4

type (
	UserReader interface {
		GetUser(ctx context.Context, id string) (core.User, error)
	}

	TransactionReader interface {
		GetTransactions(ctx context.Context, userID string, ids []string) ([]core.Transaction, error)
	}

	// Snapshots loads fresh user data for budget checks.
	Snapshots interface {
		Sync(ctx context.Context, userID string) (*cache.Snapshot, error)
	}

	AlertPublisher interface {
		PublishBudgetAlert(ctx context.Context, userID string, alerts []core.BudgetAlert) error
	}
)

// Config wires the worker. Sheets and Alerts may be nil.
type Config struct {
	Users        UserReader
	Transactions TransactionReader
	Snapshots    Snapshots
	Monitor      *budget.Monitor
	Sender       notify.Sender
	Sheets       sheets.TransactionWriter
	Alerts       AlertPublisher
	Logger       *log.Logger
}

// NotificationWorker handles AMQP messages.
type NotificationWorker struct {
	users   UserReader
	txs     TransactionReader
	snaps   Snapshots
	monitor *budget.Monitor
	sender  notify.Sender
	sheets  sheets.TransactionWriter
	alerts  AlertPublisher
	logger  *log.Logger
}

func NewNotificationWorker(cfg Config) *NotificationWorker {
	monitor := cfg.Monitor
	if monitor == nil {
		monitor = &budget.Monitor{}
	}
	return &NotificationWorker{
		users:   cfg.Users,
		txs:     cfg.Transactions,
		snaps:   cfg.Snapshots,
		monitor: monitor,
		sender:  cfg.Sender,
		sheets:  cfg.Sheets,
		alerts:  cfg.Alerts,
		logger:  cfg.Logger.WithComponent(log.ComponentWorker),
	}
}

// Handle dispatches msg by type. A returned error requeues the message.
func (w *NotificationWorker) Handle(ctx context.Context, msg *amqp.Message) error {
	w.logger.InfoContext(ctx, "Processing message",
		log.FieldMessageID, msg.ID,
		log.FieldEventType, msg.Type,
		log.FieldUserID, msg.UserID)

	switch msg.Type {
	case amqp.EventTransactionsImported:
		return w.handleImported(ctx, msg)
	case amqp.EventBudgetAlert:
		return w.handleBudgetAlert(ctx, msg)
	}
	return fmt.Errorf("%w: %s", amqp.ErrUnknownEvent, msg.Type)
}

func (w *NotificationWorker) handleImported(ctx context.Context, msg *amqp.Message) error {
	txs, err := w.txs.GetTransactions(ctx, msg.UserID, msg.TransactionIDs)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	if len(txs) == 0 {
		w.logger.WarnContext(ctx, "No transactions found for event",
			log.FieldMessageID, msg.ID,
			log.FieldUserID, msg.UserID)
		return nil
	}

	// The sheet sink skips rows it already has, so a requeue after a
	// failure here is safe. Notifications are only sent once it succeeded.
	if w.sheets != nil {
		appended, err := w.sheets.AppendTransactions(ctx, txs)
		if err != nil {
			return fmt.Errorf("mirror transactions to sheets: %w", err)
		}
		w.logger.InfoContext(ctx, "Transactions mirrored to sheets",
			log.FieldUserID, msg.UserID,
			log.FieldCount, appended)
	}

	user, err := w.users.GetUser(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.WhatsAppNumber != "" {
		w.notifyTransactions(ctx, user, txs)
	}

	w.checkBudgets(ctx, msg.UserID)
	return nil
}

func (w *NotificationWorker) notifyTransactions(ctx context.Context, user core.User, txs []core.Transaction) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)
	for _, t := range txs {
		g.Go(func() error {
			if _, err := w.sender.Send(gctx, user.WhatsAppNumber, notify.TransactionMessage(t)); err != nil {
				w.logger.ErrorContext(gctx, "Failed to send transaction notification",
					log.FieldUserID, user.ID,
					log.FieldTransactionID, t.ID,
					log.FieldError, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (w *NotificationWorker) checkBudgets(ctx context.Context, userID string) {
	snap, err := w.snaps.Sync(ctx, userID)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to load budgets", log.FieldUserID, userID, log.FieldError, err)
		return
	}
	alerts := w.monitor.Check(snap.Budgets, snap.Transactions)
	if len(alerts) == 0 {
		return
	}
	if w.alerts == nil {
		w.logger.WarnContext(ctx, "No alert publisher configured, skipping budget alerts",
			log.FieldUserID, userID,
			log.FieldCount, len(alerts))
		return
	}
	if err := w.alerts.PublishBudgetAlert(ctx, userID, alerts); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish budget alerts", log.FieldUserID, userID, log.FieldError, err)
	}
}

func (w *NotificationWorker) handleBudgetAlert(ctx context.Context, msg *amqp.Message) error {
	if len(msg.Alerts) == 0 {
		return nil
	}
	user, err := w.users.GetUser(ctx, msg.UserID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "User gone, dropping budget alert", log.FieldUserID, msg.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.WhatsAppNumber == "" {
		return nil
	}
	for _, a := range msg.Alerts {
		if _, err := w.sender.Send(ctx, user.WhatsAppNumber, notify.BudgetAlertMessage(a)); err != nil {
			w.logger.ErrorContext(ctx, "Failed to send budget alert",
				log.FieldUserID, user.ID,
				log.FieldBudgetID, a.BudgetID,
				log.FieldError, err)
		}
	}
	return nil
}
