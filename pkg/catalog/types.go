package catalog

import "time"

// FeatureSlug identifies a metered capability.
type FeatureSlug string

// Known capability identifiers.
const (
	FeatureOptimizer FeatureSlug = "optimizer"
	FeatureGenerator FeatureSlug = "generator"
	FeatureAnalyzer  FeatureSlug = "analyzer"
	FeatureExport    FeatureSlug = "export"
)

const (
	// Unlimited marks a feature with no quota cap.
	Unlimited int64 = -1
)

// Interval represents the cadence at which a limited feature's counter resets.
type Interval string

const (
	IntervalNone    Interval = ""
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// BillingInterval represents the billing frequency of a tier.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD would be Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `bson:"amount" yaml:"amount"`
	Currency string `bson:"currency" yaml:"currency"`
}

// Feature describes a metered capability and its quota policy.
// Limited features carry a positive MaxQuota and a reset cadence;
// unlimited features carry MaxQuota 0 or the Unlimited sentinel and no cadence.
type Feature struct {
	Slug              FeatureSlug `bson:"slug" yaml:"slug"`
	Name              string      `bson:"name" yaml:"name"`
	Description       string      `bson:"description" yaml:"description"`
	Limited           bool        `bson:"limited" yaml:"limited"`
	MaxQuota          int64       `bson:"max_quota" yaml:"max_quota"`
	RecurringInterval Interval    `bson:"recurring_interval" yaml:"recurring_interval"`
}

// Tier describes a subscription plan and the features it grants.
// Tiers are immutable once loaded; re-seeding is the only mutation path.
type Tier struct {
	Slug                  string          `bson:"_id" yaml:"slug"`
	Name                  string          `bson:"name" yaml:"name"`
	Price                 Money           `bson:"price" yaml:"price"`
	PlanRecurringInterval BillingInterval `bson:"plan_recurring_interval" yaml:"plan_recurring_interval"`
	Features              []Feature       `bson:"features" yaml:"features"`
	ProductRef            string          `bson:"product_ref" yaml:"product_ref"`
	CreatedAt             time.Time       `bson:"created_at" yaml:"-"`
	UpdatedAt             time.Time       `bson:"updated_at" yaml:"-"`
}

// Feature returns the tier's feature definition for the given slug.
func (t Tier) Feature(slug FeatureSlug) (Feature, bool) {
	for _, f := range t.Features {
		if f.Slug == slug {
			return f, true
		}
	}
	return Feature{}, false
}
