package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotakit/pkg/archive"
	"github.com/dmitrymomot/quotakit/pkg/billing"
	"github.com/dmitrymomot/quotakit/pkg/catalog"
	"github.com/dmitrymomot/quotakit/pkg/identity"
	"github.com/dmitrymomot/quotakit/pkg/quota"
)

// Reconciler is the state machine that turns classified provider events
// into tier transitions. Every transition is archive-then-replace: the
// superseded quota record is appended to the archive (best-effort) before
// the user's tier and record are overwritten.
type Reconciler struct {
	catalog  catalog.Service
	users    identity.UserStore
	resolver *identity.Resolver
	quotas   quota.Store
	archives archive.Store
	ledger   *billing.Ledger

	defaultTier string
	batchSize   int
	log         *slog.Logger
	now         func() time.Time
}

// New creates a Reconciler. Panics if any required dependency is nil to
// fail fast during initialization.
func New(cat catalog.Service, users identity.UserStore, quotas quota.Store, archives archive.Store, ledger *billing.Ledger, opts ...Option) *Reconciler {
	if cat == nil {
		panic("lifecycle: catalog.Service is required")
	}
	if users == nil {
		panic("lifecycle: identity.UserStore is required")
	}
	if quotas == nil {
		panic("lifecycle: quota.Store is required")
	}
	if archives == nil {
		panic("lifecycle: archive.Store is required")
	}
	if ledger == nil {
		panic("lifecycle: billing.Ledger is required")
	}

	r := &Reconciler{
		catalog:     cat,
		users:       users,
		resolver:    identity.NewResolver(users),
		quotas:      quotas,
		archives:    archives,
		ledger:      ledger,
		defaultTier: DefaultTier,
		batchSize:   maxSweepBatch,
		log:         slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// HandleEvent ingests one raw webhook body: decode, write the ledger,
// resolve the user, apply the transition. Only an unparseable body or an
// unknown order status is reported to the caller; resolution and
// tier-lookup misses skip the transition and are logged, so a single bad
// event never fails webhook delivery.
func (r *Reconciler) HandleEvent(ctx context.Context, raw []byte) error {
	ev, err := billing.Decode(raw)
	if err != nil {
		return err
	}

	switch ev := ev.(type) {
	case billing.OrderUpdated:
		r.recordLedger(ctx, ev, ev.Payload, string(ev.Status), ev.CreatedAt, ev.UpdatedAt)

		user, ok := r.resolve(ctx, ev)
		if !ok {
			return nil
		}
		return r.applyOrder(ctx, user, ev)

	case billing.SubscriptionCanceled:
		r.recordLedger(ctx, ev, ev.Payload, ev.Status, ev.CreatedAt, ev.UpdatedAt)

		user, ok := r.resolve(ctx, ev)
		if !ok {
			return nil
		}
		return r.applyCanceled(ctx, user, ev.PeriodEnd)

	case billing.SubscriptionUncanceled:
		r.recordLedger(ctx, ev, ev.Payload, ev.Status, ev.CreatedAt, ev.UpdatedAt)

		user, ok := r.resolve(ctx, ev)
		if !ok {
			return nil
		}
		return r.applyUncanceled(ctx, user)

	case billing.SubscriptionRevoked:
		r.recordLedger(ctx, ev, ev.Payload, ev.Status, ev.CreatedAt, ev.UpdatedAt)

		user, ok := r.resolve(ctx, ev)
		if !ok {
			return nil
		}
		return r.downgradeToDefault(ctx, user.ID)

	case billing.Unrecognized:
		r.log.InfoContext(ctx, "ignoring unrecognized billing event",
			slog.String("event_type", ev.Type))
		return nil
	}

	return nil
}

// applyOrder handles the order.updated transition table.
func (r *Reconciler) applyOrder(ctx context.Context, user *identity.User, ev billing.OrderUpdated) error {
	if !ev.Status.Known() {
		return errors.Join(ErrUnknownOrderStatus,
			errors.New("order status "+string(ev.Status)))
	}

	tier, err := r.catalog.GetTierByProductRef(ctx, ev.ProductRef)
	if err != nil {
		r.log.WarnContext(ctx, "order references unknown product, skipping transition",
			slog.String("product_ref", ev.ProductRef),
			slog.String("checkout_id", ev.CheckoutID))
		return nil
	}

	if ev.Status.PaidLike() {
		return r.reassign(ctx, user.ID, tier)
	}

	// Refund-like: only the tier currently granting access is withdrawn.
	if tier.Slug != user.TierID {
		r.log.InfoContext(ctx, "refund for non-current tier, no-op",
			slog.String("user_id", user.ID.String()),
			slog.String("refunded_tier", tier.Slug),
			slog.String("current_tier", user.TierID))
		return nil
	}

	return r.downgradeToDefault(ctx, user.ID)
}

// applyCanceled flags the record for non-renewal; the user keeps the
// current tier until the period end, when the sweep downgrades them.
func (r *Reconciler) applyCanceled(ctx context.Context, user *identity.User, periodEnd *time.Time) error {
	rec, err := r.currentRecord(ctx, user)
	if err != nil {
		return err
	}

	now := r.now()
	rec.Canceled = true
	rec.SubscriptionPeriodEnd = periodEnd
	rec.UpdatedAt = now

	return r.quotas.Save(ctx, rec)
}

func (r *Reconciler) applyUncanceled(ctx context.Context, user *identity.User) error {
	rec, err := r.currentRecord(ctx, user)
	if err != nil {
		return err
	}

	rec.Canceled = false
	rec.SubscriptionPeriodEnd = nil
	rec.UpdatedAt = r.now()

	return r.quotas.Save(ctx, rec)
}

// Sweep downgrades every canceled subscription whose period has ended.
// It runs in bounded sequential batches and is idempotent: a re-run after
// a crash only touches the records still awaiting downgrade. Returns the
// number of users downgraded.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	processed := 0

	for {
		batch, err := r.quotas.ListExpiredCancellations(ctx, r.now(), r.batchSize)
		if err != nil {
			return processed, errors.Join(ErrFailedToSweep, err)
		}
		if len(batch) == 0 {
			return processed, nil
		}

		for _, rec := range batch {
			if err := r.downgradeToDefault(ctx, rec.UserID); err != nil {
				return processed, errors.Join(ErrFailedToSweep, err)
			}
			processed++
		}

		if len(batch) < r.batchSize {
			return processed, nil
		}
	}
}

// reassign archives the current record, points the user at the tier and
// replaces the record with fresh zeroed counters.
func (r *Reconciler) reassign(ctx context.Context, userID uuid.UUID, tier catalog.Tier) error {
	now := r.now()

	r.archiveCurrent(ctx, userID, now)

	if err := r.users.SetTier(ctx, userID, tier.Slug); err != nil {
		return errors.Join(ErrFailedToReassignTier, err)
	}

	if err := r.quotas.Save(ctx, quota.NewRecord(userID, tier, now)); err != nil {
		return errors.Join(ErrFailedToReassignTier, err)
	}

	r.log.InfoContext(ctx, "reassigned tier",
		slog.String("user_id", userID.String()),
		slog.String("tier_id", tier.Slug))

	return nil
}

func (r *Reconciler) downgradeToDefault(ctx context.Context, userID uuid.UUID) error {
	tier, err := r.catalog.GetTier(ctx, r.defaultTier)
	if err != nil {
		return errors.Join(ErrFailedToReassignTier, err)
	}
	return r.reassign(ctx, userID, tier)
}

// archiveCurrent appends the live record to the archive. Best-effort:
// a failure is logged and the transition proceeds anyway.
func (r *Reconciler) archiveCurrent(ctx context.Context, userID uuid.UUID, now time.Time) {
	rec, err := r.quotas.Get(ctx, userID)
	if errors.Is(err, quota.ErrRecordNotFound) {
		return
	}
	if err != nil {
		r.log.WarnContext(ctx, "failed to load quota record for archiving",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		return
	}

	if _, err := r.archives.Append(ctx, *rec, now); err != nil {
		r.log.WarnContext(ctx, "failed to archive quota record",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
	}
}

// currentRecord loads the user's record, creating one from their current
// tier when missing so cancellation flags have somewhere to live.
func (r *Reconciler) currentRecord(ctx context.Context, user *identity.User) (*quota.Record, error) {
	rec, err := r.quotas.Get(ctx, user.ID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, quota.ErrRecordNotFound) {
		return nil, err
	}

	tierID := user.TierID
	if tierID == "" {
		tierID = r.defaultTier
	}

	tier, err := r.catalog.GetTier(ctx, tierID)
	if err != nil {
		return nil, err
	}

	return quota.NewRecord(user.ID, tier, r.now()), nil
}

// recordLedger writes the raw event into the billing event ledger. The
// write is unconditional for recognized events; failures are logged and
// never abort the transition.
func (r *Reconciler) recordLedger(ctx context.Context, ev billing.Event, payload []byte, status string, createdAt, updatedAt *time.Time) {
	recorded, err := r.ledger.Record(ctx, ev.TransactionID(), ev.EventType(), payload, status, createdAt, updatedAt)
	if err != nil {
		r.log.WarnContext(ctx, "failed to record billing event",
			slog.String("event_type", ev.EventType()),
			slog.String("transaction_id", ev.TransactionID()),
			slog.Any("error", err))
		return
	}

	if recorded.DuplicateStatus {
		// Duplicate-status signal is informational only; the event is
		// still reprocessed and transitions stay idempotent.
		r.log.InfoContext(ctx, "duplicate billing event status",
			slog.String("event_type", ev.EventType()),
			slog.String("transaction_id", ev.TransactionID()),
			slog.String("status", status))
	}
}

// resolve maps an event to a user and opportunistically links the
// provider customer ID for future correlation. A resolution miss is
// logged and skips the transition.
func (r *Reconciler) resolve(ctx context.Context, ev billing.Event) (*identity.User, bool) {
	keys := ev.Keys()

	user, err := r.resolver.Resolve(ctx, identity.Keys{
		UserID:     keys.UserID,
		Email:      keys.Email,
		CustomerID: keys.CustomerID,
	})
	if err != nil {
		r.log.WarnContext(ctx, "could not resolve user for billing event",
			slog.String("event_type", ev.EventType()),
			slog.String("transaction_id", ev.TransactionID()),
			slog.Any("error", err))
		return nil, false
	}

	if keys.CustomerID != "" && user.ExternalCustomerID == "" {
		if err := r.users.SetExternalCustomerID(ctx, user.ID, keys.CustomerID); err != nil {
			r.log.WarnContext(ctx, "failed to link external customer id",
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err))
		}
	}

	return user, true
}
