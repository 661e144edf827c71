package billing_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotakit/pkg/billing"
)

func TestLedger_Record(t *testing.T) {
	t.Parallel()

	t.Run("merges event types under one transaction", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		ledger := billing.NewLedger(store)
		ctx := context.Background()

		_, err := ledger.Record(ctx, "chk_1", "order.updated",
			json.RawMessage(`{"status":"paid"}`), "paid", nil, nil)
		require.NoError(t, err)

		recorded, err := ledger.Record(ctx, "chk_1", "subscription.canceled",
			json.RawMessage(`{"status":"canceled"}`), "canceled", nil, nil)
		require.NoError(t, err)

		entry, err := store.Get(ctx, "chk_1")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "canceled", entry.CurrentStatus)
		assert.Len(t, entry.Events, 2)
		assert.Contains(t, entry.Events, "order.updated")
		assert.Contains(t, entry.Events, "subscription.canceled")
		assert.False(t, recorded.DuplicateStatus)
	})

	t.Run("same type overwrites without touching others", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		ledger := billing.NewLedger(store)
		ctx := context.Background()

		_, err := ledger.Record(ctx, "chk_2", "order.updated",
			json.RawMessage(`{"status":"pending"}`), "pending", nil, nil)
		require.NoError(t, err)
		_, err = ledger.Record(ctx, "chk_2", "subscription.canceled",
			json.RawMessage(`{"status":"canceled"}`), "canceled", nil, nil)
		require.NoError(t, err)

		_, err = ledger.Record(ctx, "chk_2", "order.updated",
			json.RawMessage(`{"status":"paid"}`), "paid", nil, nil)
		require.NoError(t, err)

		entry, err := store.Get(ctx, "chk_2")
		require.NoError(t, err)
		require.Len(t, entry.Events, 2)

		order, ok := entry.Events["order.updated"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "paid", order["status"])
	})

	t.Run("duplicate status is reported, not suppressed", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		ledger := billing.NewLedger(store)
		ctx := context.Background()

		first, err := ledger.Record(ctx, "chk_3", "order.updated",
			json.RawMessage(`{"status":"paid"}`), "paid", nil, nil)
		require.NoError(t, err)
		assert.False(t, first.DuplicateStatus)

		second, err := ledger.Record(ctx, "chk_3", "order.updated",
			json.RawMessage(`{"status":"paid"}`), "paid", nil, nil)
		require.NoError(t, err)
		assert.True(t, second.DuplicateStatus)

		// The write still happened.
		entry, err := store.Get(ctx, "chk_3")
		require.NoError(t, err)
		assert.Contains(t, entry.Events, "order.updated")
	})

	t.Run("timestamps fall back to now", func(t *testing.T) {
		t.Parallel()

		fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		store := billing.NewMemoryStore()
		ledger := billing.NewLedger(store, billing.WithLedgerClock(func() time.Time { return fixed }))
		ctx := context.Background()

		recorded, err := ledger.Record(ctx, "chk_4", "order.updated", nil, "paid", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, fixed, recorded.Entry.CreatedAt)
		assert.Equal(t, fixed, recorded.Entry.UpdatedAt)

		createdAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		recorded, err = ledger.Record(ctx, "chk_5", "order.updated", nil, "paid", &createdAt, nil)
		require.NoError(t, err)
		assert.Equal(t, createdAt, recorded.Entry.CreatedAt)
	})

	t.Run("missing transaction id rejected", func(t *testing.T) {
		t.Parallel()

		ledger := billing.NewLedger(billing.NewMemoryStore())

		_, err := ledger.Record(context.Background(), "", "order.updated", nil, "paid", nil, nil)

		assert.ErrorIs(t, err, billing.ErrMissingTransaction)
	})
}
