package quota

import (
	"time"

	"github.com/dmitrymomot/quotakit/pkg/catalog"
)

// effectiveCount applies the interval-reset rule: the stored counter is
// treated as zero once the feature's reset cadence has rolled over since
// the last use. All comparisons are in UTC.
//
// Yearly features have no calendar rollover here; their counters reset
// only when a tier transition replaces the whole record.
func effectiveCount(u FeatureUsage, now time.Time) int64 {
	if u.LastUsed == nil {
		return u.UsageCount
	}

	last := u.LastUsed.UTC()
	now = now.UTC()

	switch u.RecurringInterval {
	case catalog.IntervalDaily:
		if last.Year() != now.Year() || last.YearDay() != now.YearDay() {
			return 0
		}
	case catalog.IntervalWeekly:
		ly, lw := last.ISOWeek()
		ny, nw := now.ISOWeek()
		if ly != ny || lw != nw {
			return 0
		}
	case catalog.IntervalMonthly:
		if last.Year() != now.Year() || last.Month() != now.Month() {
			return 0
		}
	}

	return u.UsageCount
}
