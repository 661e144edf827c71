package lifecycle_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotakit/pkg/archive"
	"github.com/dmitrymomot/quotakit/pkg/billing"
	"github.com/dmitrymomot/quotakit/pkg/catalog"
	"github.com/dmitrymomot/quotakit/pkg/identity"
	"github.com/dmitrymomot/quotakit/pkg/lifecycle"
	"github.com/dmitrymomot/quotakit/pkg/quota"
)

type fixture struct {
	reconciler *lifecycle.Reconciler
	users      *identity.MemoryStore
	quotas     *quota.MemoryStore
	archives   *archive.MemoryStore
	billing    *billing.MemoryStore
	now        time.Time
}

func testCatalog(t *testing.T) catalog.Service {
	t.Helper()

	svc, err := catalog.NewService(context.Background(), catalog.NewInMemSource(map[string]catalog.Tier{
		"free": {
			Slug:                  "free",
			Name:                  "Free",
			PlanRecurringInterval: catalog.BillingIntervalMonthly,
			Features: []catalog.Feature{
				{Slug: catalog.FeatureOptimizer, Limited: true, MaxQuota: 1, RecurringInterval: catalog.IntervalDaily},
			},
		},
		"starter": {
			Slug:                  "starter",
			Name:                  "Starter",
			PlanRecurringInterval: catalog.BillingIntervalMonthly,
			ProductRef:            "prod_starter",
			Features: []catalog.Feature{
				{Slug: catalog.FeatureOptimizer, Limited: true, MaxQuota: 2, RecurringInterval: catalog.IntervalDaily},
			},
		},
		"pro": {
			Slug:                  "pro",
			Name:                  "Pro",
			PlanRecurringInterval: catalog.BillingIntervalYearly,
			ProductRef:            "prod_pro",
			Features: []catalog.Feature{
				{Slug: catalog.FeatureOptimizer, MaxQuota: catalog.Unlimited},
				{Slug: catalog.FeatureGenerator, Limited: true, MaxQuota: 100, RecurringInterval: catalog.IntervalMonthly},
			},
		},
	}))
	require.NoError(t, err)
	return svc
}

func newFixture(t *testing.T, users ...identity.User) *fixture {
	t.Helper()

	f := &fixture{
		users:    identity.NewMemoryStore(users...),
		quotas:   quota.NewMemoryStore(),
		archives: archive.NewMemoryStore(),
		billing:  billing.NewMemoryStore(),
		now:      time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}

	f.reconciler = lifecycle.New(
		testCatalog(t),
		f.users,
		f.quotas,
		f.archives,
		billing.NewLedger(f.billing),
		lifecycle.WithClock(func() time.Time { return f.now }),
	)

	return f
}

func orderEvent(checkoutID, status, productRef string, keys map[string]string) []byte {
	data := map[string]any{
		"checkout_id": checkoutID,
		"status":      status,
		"product_id":  productRef,
	}
	if v, ok := keys["user_id"]; ok {
		data["metadata"] = map[string]any{"user_id": v}
	}
	if v, ok := keys["email"]; ok {
		data["customer"] = map[string]any{"email": v}
	}
	if v, ok := keys["customer_id"]; ok {
		data["customer_id"] = v
	}
	return marshalEvent("order.updated", data)
}

func subscriptionEvent(eventType, subID string, keys map[string]string, extra map[string]any) []byte {
	data := map[string]any{"id": subID}
	if v, ok := keys["user_id"]; ok {
		data["metadata"] = map[string]any{"user_id": v}
	}
	if v, ok := keys["email"]; ok {
		data["customer"] = map[string]any{"email": v}
	}
	for k, v := range extra {
		data[k] = v
	}
	return marshalEvent(eventType, data)
}

func marshalEvent(eventType string, data map[string]any) []byte {
	raw, _ := json.Marshal(map[string]any{"type": eventType, "data": data})
	return raw
}

func TestHandleEvent_PaidOrder(t *testing.T) {
	t.Parallel()

	user := identity.User{ID: uuid.New(), Email: "jo@example.com", TierID: "starter"}
	f := newFixture(t, user)
	ctx := context.Background()

	// Existing usage on starter that must be archived, not carried over.
	seed := quota.NewRecord(user.ID, mustTier(t, f, "starter"), f.now.Add(-time.Hour))
	seed.Usage[0].UsageCount = 2
	require.NoError(t, f.quotas.Save(ctx, seed))

	// Resolved via customer.email only.
	err := f.reconciler.HandleEvent(ctx, orderEvent("chk_1", "paid", "prod_pro",
		map[string]string{"email": "jo@example.com", "customer_id": "cus_jo"}))
	require.NoError(t, err)

	// User moved to pro.
	updated, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "pro", updated.TierID)
	assert.Equal(t, "cus_jo", updated.ExternalCustomerID)

	// Archive gained exactly one entry holding the pre-transition tier.
	entries, err := f.archives.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "starter", entries[0].Quota.TierID)
	assert.EqualValues(t, 2, entries[0].Quota.Usage[0].UsageCount)

	// Fresh record carries all pro features zeroed.
	rec, err := f.quotas.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "pro", rec.TierID)
	require.Len(t, rec.Usage, 2)
	for _, u := range rec.Usage {
		assert.EqualValues(t, 0, u.UsageCount)
	}

	// Ledger recorded the raw event.
	entry, err := f.billing.Get(ctx, "chk_1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "paid", entry.CurrentStatus)
	assert.Contains(t, entry.Events, "order.updated")
}

func TestHandleEvent_RefundedOrder(t *testing.T) {
	t.Parallel()

	t.Run("refund of current tier downgrades to default", func(t *testing.T) {
		t.Parallel()

		user := identity.User{ID: uuid.New(), Email: "jo@example.com", TierID: "pro"}
		f := newFixture(t, user)
		ctx := context.Background()

		require.NoError(t, f.quotas.Save(ctx, quota.NewRecord(user.ID, mustTier(t, f, "pro"), f.now)))

		err := f.reconciler.HandleEvent(ctx, orderEvent("chk_2", "refunded", "prod_pro",
			map[string]string{"user_id": user.ID.String()}))
		require.NoError(t, err)

		updated, err := f.users.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "free", updated.TierID)

		entries, err := f.archives.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "pro", entries[0].Quota.TierID)
	})

	t.Run("refund of non-current tier is a no-op", func(t *testing.T) {
		t.Parallel()

		user := identity.User{ID: uuid.New(), Email: "jo@example.com", TierID: "pro"}
		f := newFixture(t, user)
		ctx := context.Background()

		err := f.reconciler.HandleEvent(ctx, orderEvent("chk_3", "refunded", "prod_starter",
			map[string]string{"user_id": user.ID.String()}))
		require.NoError(t, err)

		updated, err := f.users.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "pro", updated.TierID)

		count, err := f.archives.CountByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestHandleEvent_UnknownOrderStatus(t *testing.T) {
	t.Parallel()

	user := identity.User{ID: uuid.New(), Email: "jo@example.com", TierID: "starter"}
	f := newFixture(t, user)
	ctx := context.Background()

	err := f.reconciler.HandleEvent(ctx, orderEvent("chk_4", "disputed", "prod_pro",
		map[string]string{"user_id": user.ID.String()}))

	assert.ErrorIs(t, err, lifecycle.ErrUnknownOrderStatus)

	// Event was still recorded; no state changed.
	entry, lerr := f.billing.Get(ctx, "chk_4")
	require.NoError(t, lerr)
	require.NotNil(t, entry)
	assert.Equal(t, "disputed", entry.CurrentStatus)

	updated, uerr := f.users.Get(ctx, user.ID)
	require.NoError(t, uerr)
	assert.Equal(t, "starter", updated.TierID)
}

func TestHandleEvent_UnknownProduct(t *testing.T) {
	t.Parallel()

	user := identity.User{ID: uuid.New(), Email: "jo@example.com", TierID: "starter"}
	f := newFixture(t, user)
	ctx := context.Background()

	// Paid order for a product outside the catalog: logged, no transition.
	err := f.reconciler.HandleEvent(ctx, orderEvent("chk_5", "paid", "prod_mystery",
		map[string]string{"user_id": user.ID.String()}))
	require.NoError(t, err)

	updated, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "starter", updated.TierID)
}

func TestHandleEvent_ResolutionFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// Nobody matches; ingestion must still succeed and the ledger must
	// still record the event.
	err := f.reconciler.HandleEvent(ctx, orderEvent("chk_6", "paid", "prod_pro",
		map[string]string{"email": "ghost@example.com"}))
	require.NoError(t, err)

	entry, err := f.billing.Get(ctx, "chk_6")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Contains(t, entry.Events, "order.updated")
}

func TestHandleEvent_SubscriptionCanceled(t *testing.T) {
	t.Parallel()

	user := identity.User{ID: uuid.New(), Email: "jo@example.com", TierID: "pro"}
	f := newFixture(t, user)
	ctx := context.Background()

	periodEnd := f.now.Add(30 * 24 * time.Hour)
	err := f.reconciler.HandleEvent(ctx, subscriptionEvent("subscription.canceled", "sub_1",
		map[string]string{"user_id": user.ID.String()},
		map[string]any{"status": "canceled", "current_period_end": periodEnd.Format(time.RFC3339)}))
	require.NoError(t, err)

	// No immediate downgrade: tier retained until period end.
	updated, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "pro", updated.TierID)

	rec, err := f.quotas.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, rec.Canceled)
	require.NotNil(t, rec.SubscriptionPeriodEnd)
	assert.True(t, rec.SubscriptionPeriodEnd.Equal(periodEnd))

	count, err := f.archives.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandleEvent_SubscriptionUncanceled(t *testing.T) {
	t.Parallel()

	user := identity.User{ID: uuid.New(), Email: "jo@example.com", TierID: "pro"}
	f := newFixture(t, user)
	ctx := context.Background()

	rec := quota.NewRecord(user.ID, mustTier(t, f, "pro"), f.now)
	periodEnd := f.now.Add(24 * time.Hour)
	rec.Canceled = true
	rec.SubscriptionPeriodEnd = &periodEnd
	require.NoError(t, f.quotas.Save(ctx, rec))

	err := f.reconciler.HandleEvent(ctx, subscriptionEvent("subscription.uncanceled", "sub_2",
		map[string]string{"user_id": user.ID.String()}, nil))
	require.NoError(t, err)

	updated, err := f.quotas.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, updated.Canceled)
	assert.Nil(t, updated.SubscriptionPeriodEnd)
}

func TestHandleEvent_SubscriptionRevoked(t *testing.T) {
	t.Parallel()

	user := identity.User{ID: uuid.New(), Email: "jo@example.com", TierID: "pro"}
	f := newFixture(t, user)
	ctx := context.Background()

	// Period end far in the future must not matter for revocation.
	rec := quota.NewRecord(user.ID, mustTier(t, f, "pro"), f.now)
	periodEnd := f.now.Add(300 * 24 * time.Hour)
	rec.SubscriptionPeriodEnd = &periodEnd
	require.NoError(t, f.quotas.Save(ctx, rec))

	err := f.reconciler.HandleEvent(ctx, subscriptionEvent("subscription.revoked", "sub_3",
		map[string]string{"user_id": user.ID.String()}, nil))
	require.NoError(t, err)

	updated, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "free", updated.TierID)

	entries, err := f.archives.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pro", entries[0].Quota.TierID)

	fresh, err := f.quotas.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "free", fresh.TierID)
	assert.False(t, fresh.Canceled)
	assert.Nil(t, fresh.SubscriptionPeriodEnd)
}

func TestHandleEvent_Unrecognized(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.reconciler.HandleEvent(context.Background(), []byte(`{"type":"benefit.granted","data":{}}`))

	assert.NoError(t, err)
}

func TestHandleEvent_UnparseablePayload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.reconciler.HandleEvent(context.Background(), []byte(`{broken`))

	assert.ErrorIs(t, err, billing.ErrUnparseablePayload)
}

func TestSweep(t *testing.T) {
	t.Parallel()

	expired1 := identity.User{ID: uuid.New(), Email: "a@example.com", TierID: "pro"}
	expired2 := identity.User{ID: uuid.New(), Email: "b@example.com", TierID: "starter"}
	pending := identity.User{ID: uuid.New(), Email: "c@example.com", TierID: "pro"}
	f := newFixture(t, expired1, expired2, pending)
	ctx := context.Background()

	past := f.now.Add(-time.Hour)
	future := f.now.Add(time.Hour)

	for _, tc := range []struct {
		user identity.User
		tier string
		end  *time.Time
	}{
		{expired1, "pro", &past},
		{expired2, "starter", &past},
		{pending, "pro", &future},
	} {
		rec := quota.NewRecord(tc.user.ID, mustTier(t, f, tc.tier), f.now.Add(-48*time.Hour))
		rec.Canceled = true
		rec.SubscriptionPeriodEnd = tc.end
		require.NoError(t, f.quotas.Save(ctx, rec))
	}

	processed, err := f.reconciler.Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	for _, u := range []identity.User{expired1, expired2} {
		updated, err := f.users.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "free", updated.TierID)

		count, err := f.archives.CountByUser(ctx, u.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	}

	untouched, err := f.users.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, "pro", untouched.TierID)

	// Idempotent: a second pass finds nothing left to downgrade.
	processed, err = f.reconciler.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func mustTier(t *testing.T, f *fixture, slug string) catalog.Tier {
	t.Helper()
	tier, err := testCatalog(t).GetTier(context.Background(), slug)
	require.NoError(t, err)
	return tier
}
