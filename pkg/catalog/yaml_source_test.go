package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotakit/pkg/catalog"
)

const catalogYAML = `
tiers:
  - slug: starter
    name: Starter
    product_ref: prod_starter
    plan_recurring_interval: monthly
    price:
      amount: 900
      currency: USD
    features:
      - slug: optimizer
        name: Optimizer
        limited: true
        max_quota: 2
        recurring_interval: daily
      - slug: export
        name: Export
        max_quota: -1
  - slug: pro
    name: Pro
    product_ref: prod_pro
    plan_recurring_interval: yearly
    price:
      amount: 2900
      currency: USD
    features:
      - slug: optimizer
        name: Optimizer
        max_quota: -1
`

func TestYAMLSource(t *testing.T) {
	t.Parallel()

	t.Run("loads catalog", func(t *testing.T) {
		t.Parallel()

		src := catalog.NewYAMLSource(strings.NewReader(catalogYAML))
		tiers, err := src.Load(context.Background())

		require.NoError(t, err)
		require.Len(t, tiers, 2)

		starter := tiers["starter"]
		assert.Equal(t, "prod_starter", starter.ProductRef)
		assert.Equal(t, catalog.BillingIntervalMonthly, starter.PlanRecurringInterval)
		assert.EqualValues(t, 900, starter.Price.Amount)
		require.Len(t, starter.Features, 2)
		assert.True(t, starter.Features[0].Limited)
		assert.Equal(t, catalog.IntervalDaily, starter.Features[0].RecurringInterval)
		assert.EqualValues(t, catalog.Unlimited, starter.Features[1].MaxQuota)
	})

	t.Run("feeds the service", func(t *testing.T) {
		t.Parallel()

		svc, err := catalog.NewService(context.Background(), catalog.NewYAMLSource(strings.NewReader(catalogYAML)))
		require.NoError(t, err)

		tier, err := svc.GetTierByProductRef(context.Background(), "prod_pro")
		require.NoError(t, err)
		assert.Equal(t, "pro", tier.Slug)
	})

	t.Run("duplicate slugs rejected", func(t *testing.T) {
		t.Parallel()

		doc := `
tiers:
  - slug: starter
    plan_recurring_interval: monthly
  - slug: starter
    plan_recurring_interval: monthly
`
		_, err := catalog.NewYAMLSource(strings.NewReader(doc)).Load(context.Background())

		assert.ErrorIs(t, err, catalog.ErrFailedToLoadTiers)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.NewYAMLSource(strings.NewReader("tiers: [")).Load(context.Background())

		assert.ErrorIs(t, err, catalog.ErrFailedToLoadTiers)
	})
}
