package billing

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Entry is the per-transaction merge record of raw provider events.
// The events map keeps the last payload received per event type, which
// makes the ledger both an audit trail and replay-safe.
type Entry struct {
	CheckoutID    string         `bson:"_id"`
	CurrentStatus string         `bson:"current_status"`
	CreatedAt     time.Time      `bson:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at"`
	Events        map[string]any `bson:"events"`
}

// Store defines ledger persistence keyed by transaction/checkout ID.
type Store interface {
	// Get retrieves an entry. Returns ErrFailedToLoadEntry-wrapped errors
	// for store failures and a nil entry with nil error when absent.
	Get(ctx context.Context, checkoutID string) (*Entry, error)

	// Save upserts an entry.
	Save(ctx context.Context, entry *Entry) error
}

// Recorded reports the outcome of a ledger write.
type Recorded struct {
	Entry Entry

	// DuplicateStatus is true when an entry for the transaction already
	// existed with the same current status. The signal is surfaced for
	// callers but never acted upon here: the engine always reprocesses,
	// relying on transition idempotency rather than suppression.
	DuplicateStatus bool
}

// Ledger merge-upserts raw provider events per transaction.
type Ledger struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLedgerLogger sets the logger used for diagnostics.
func WithLedgerLogger(log *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithLedgerClock overrides the time source used for timestamp fallbacks.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger creates a billing event ledger. Panics if store is nil to
// fail fast during initialization.
func NewLedger(store Store, opts ...LedgerOption) *Ledger {
	if store == nil {
		panic("billing: Store is required")
	}

	l := &Ledger{
		store: store,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Record merges one raw event into the transaction's ledger entry:
// current status is overwritten, the payload replaces any prior payload
// of the same event type, and other event types are left untouched.
// Timestamps fall back to now when the payload omits them.
func (l *Ledger) Record(ctx context.Context, checkoutID, eventType string, payload json.RawMessage, status string, createdAt, updatedAt *time.Time) (Recorded, error) {
	if checkoutID == "" {
		return Recorded{}, ErrMissingTransaction
	}

	entry, err := l.store.Get(ctx, checkoutID)
	if err != nil {
		return Recorded{}, err
	}

	duplicate := entry != nil && entry.CurrentStatus == status

	if entry == nil {
		entry = &Entry{
			CheckoutID: checkoutID,
			Events:     make(map[string]any),
		}
		if createdAt != nil {
			entry.CreatedAt = createdAt.UTC()
		} else {
			entry.CreatedAt = l.now()
		}
	}
	if entry.Events == nil {
		entry.Events = make(map[string]any)
	}

	entry.CurrentStatus = status
	if updatedAt != nil {
		entry.UpdatedAt = updatedAt.UTC()
	} else {
		entry.UpdatedAt = l.now()
	}

	var body any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &body); err != nil {
			l.log.WarnContext(ctx, "storing unparsed ledger payload as string",
				slog.String("checkout_id", checkoutID),
				slog.String("event_type", eventType))
			body = string(payload)
		}
	}
	entry.Events[eventType] = body

	if err := l.store.Save(ctx, entry); err != nil {
		return Recorded{}, err
	}

	return Recorded{Entry: *entry, DuplicateStatus: duplicate}, nil
}
