package entitlements

import (
	"math"
	"time"

	"github.com/nextplay-sports/platform-api/internal/models"
)

const (
	criticalDays = 3
	urgentDays   = 7
)

// RenewalStatus is the lifecycle evaluator's output, rendered as the renewal
// banner and consumed by the reminder job.
type RenewalStatus struct {
	NeedsRenewal     bool `json:"needs_renewal"`
	IsUrgent         bool `json:"is_urgent"`
	IsCritical       bool `json:"is_critical"`
	DaysUntilRenewal int  `json:"days_until_renewal"`
}

// EvaluateStatus computes renewal urgency from end-date proximity. Pure and
// idempotent; it never transitions the membership (expiry is a separate
// batch job). Zero or negative days still reads as critical, not expired.
func EvaluateStatus(m *models.Membership, now time.Time) RenewalStatus {
	if m == nil || m.Tier == models.TierFree || m.EndDate == nil {
		return RenewalStatus{}
	}
	days := int(math.Ceil(m.EndDate.Sub(now).Hours() / 24))
	st := RenewalStatus{DaysUntilRenewal: days}
	switch {
	case days <= criticalDays:
		st.IsCritical = true
	case days <= urgentDays:
		st.IsUrgent = true
	}
	st.NeedsRenewal = st.IsUrgent || st.IsCritical
	return st
}

// ReminderBucketFor picks the reminder bucket for a membership this many
// days from renewal, or "" when no reminder is due. Buckets nest: a
// membership 5 days out that never got its 30- or 7-day reminder falls into
// the 7_days bucket, and the (membership, bucket) uniqueness check keeps
// repeats out.
func ReminderBucketFor(days int) models.ReminderBucket {
	switch {
	case days <= 1:
		return models.Reminder1Day
	case days <= 7:
		return models.Reminder7Days
	case days <= 30:
		return models.Reminder30Days
	default:
		return ""
	}
}
