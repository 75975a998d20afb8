// Package services implements the ledger workflows on top of a storage.Store.
//
// Multi-step workflows run inside a single store transaction when the store
// implements storage.Transactor. Otherwise each step commits on its own and a
// failure after the first write is reported as a core.PartialWorkflowError.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"

	"github.com/google/uuid"
)

// EventPublisher publishes committed ledger changes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, e core.LedgerEvent) error
}

// Options configures a Ledger. Zero values fall back to defaults.
type Options struct {
	Events        EventPublisher
	Now           func() time.Time
	NewID         func() string
	DefaultDueDay int
}

// Ledger groups the services sharing one store.
type Ledger struct {
	Accounts     *AccountService
	Categories   *CategoryService
	Bills        *BillService
	Transactions *TransactionService
	Payments     *PaymentService
	Reports      *ReportService
	Closer       *BillCloser
}

func NewLedger(store storage.Store, opts Options) *Ledger {
	b := newBase(store, opts)
	bills := &BillService{base: b}
	return &Ledger{
		Accounts:     &AccountService{base: b},
		Categories:   &CategoryService{base: b},
		Bills:        bills,
		Transactions: &TransactionService{base: b},
		Payments:     &PaymentService{base: b},
		Reports:      &ReportService{base: b},
		Closer:       NewBillCloser(b),
	}
}

// base carries the collaborators shared by every service.
type base struct {
	store  storage.Store
	events EventPublisher
	now    func() time.Time
	newID  func() string
	dueDay int
}

func newBase(store storage.Store, opts Options) *base {
	b := &base{
		store:  store,
		events: opts.Events,
		now:    opts.Now,
		newID:  opts.NewID,
		dueDay: opts.DefaultDueDay,
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}
	if b.dueDay < 1 || b.dueDay > 31 {
		b.dueDay = core.DefaultDueDay
	}
	return b
}

// stepLog records the writes a workflow has completed.
type stepLog struct {
	done []string
}

func (l *stepLog) mark(format string, args ...any) {
	l.done = append(l.done, fmt.Sprintf(format, args...))
}

// run executes fn as one unit of work. With a transactional store the unit is
// atomic. Otherwise a failure after a completed step is wrapped in a
// PartialWorkflowError listing what was applied.
func (b *base) run(ctx context.Context, workflow string, fn func(st storage.Store, steps *stepLog) error) error {
	if tr, ok := b.store.(storage.Transactor); ok {
		return tr.WithinTx(ctx, func(tx storage.Store) error {
			return fn(tx, &stepLog{})
		})
	}

	steps := &stepLog{}
	err := fn(b.store, steps)
	if err != nil && len(steps.done) > 0 {
		slog.ErrorContext(ctx, "Workflow partially applied",
			"workflow", workflow,
			"completed", steps.done,
			"error", err)
		return &core.PartialWorkflowError{Workflow: workflow, Completed: steps.done, Err: err}
	}
	return err
}

func (b *base) event(typ core.EventType, userID, entityID, accountID string, amount core.Money) core.LedgerEvent {
	return core.LedgerEvent{
		ID:         b.newID(),
		Type:       typ,
		UserID:     userID,
		EntityID:   entityID,
		AccountID:  accountID,
		Amount:     amount,
		OccurredAt: b.now(),
	}
}

// publish sends committed events. Failures are logged and never fail the
// ledger operation.
func (b *base) publish(ctx context.Context, events ...core.LedgerEvent) {
	if len(events) == 0 {
		return
	}
	if b.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping ledger events", "count", len(events))
		return
	}
	for _, e := range events {
		if err := b.events.PublishLedgerEvent(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger event",
				"event_id", e.ID,
				"type", e.Type,
				"entity_id", e.EntityID,
				"error", err)
		}
	}
}

// billLog returns the request logger of ctx for bill lifecycle records.
func billLog(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx))
}

func (b *base) today() core.Date {
	return core.DateOf(b.now())
}
