package catalog

import (
	"errors"
	"fmt"
)

// ValidateTier checks a tier's quota policy for internal consistency.
// The invariant is enforced only here, at seed time; quota evaluation
// trusts whatever the catalog loaded.
func ValidateTier(t Tier) error {
	if t.Slug == "" {
		return errors.Join(ErrInvalidTierConfiguration, errors.New("tier slug is empty"))
	}

	switch t.PlanRecurringInterval {
	case BillingIntervalMonthly, BillingIntervalYearly:
	default:
		return errors.Join(ErrInvalidTierConfiguration,
			fmt.Errorf("tier %s has invalid billing interval %q", t.Slug, t.PlanRecurringInterval))
	}

	for _, f := range t.Features {
		if err := validateFeature(t.Slug, f); err != nil {
			return err
		}
	}

	return nil
}

func validateFeature(tierSlug string, f Feature) error {
	if f.Slug == "" {
		return errors.Join(ErrInvalidTierConfiguration,
			fmt.Errorf("tier %s has a feature with empty slug", tierSlug))
	}

	if f.Limited {
		if f.MaxQuota <= 0 {
			return errors.Join(ErrInvalidTierConfiguration,
				fmt.Errorf("tier %s feature %s is limited but has max quota %d", tierSlug, f.Slug, f.MaxQuota))
		}
		switch f.RecurringInterval {
		case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		default:
			return errors.Join(ErrInvalidTierConfiguration,
				fmt.Errorf("tier %s feature %s is limited but has no reset interval", tierSlug, f.Slug))
		}
		return nil
	}

	if f.MaxQuota != 0 && f.MaxQuota != Unlimited {
		return errors.Join(ErrInvalidTierConfiguration,
			fmt.Errorf("tier %s feature %s is unlimited but has max quota %d", tierSlug, f.Slug, f.MaxQuota))
	}
	if f.RecurringInterval != IntervalNone {
		return errors.Join(ErrInvalidTierConfiguration,
			fmt.Errorf("tier %s feature %s is unlimited but has reset interval %q", tierSlug, f.Slug, f.RecurringInterval))
	}

	return nil
}
