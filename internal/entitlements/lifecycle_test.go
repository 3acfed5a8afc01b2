package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nextplay-sports/platform-api/internal/models"
)

func membershipEnding(days int, now time.Time) *models.Membership {
	end := now.Add(time.Duration(days) * 24 * time.Hour)
	return &models.Membership{
		ID:     1,
		UserID: "USR00AAAAA",
		Tier:   models.TierProMonthly,
		Status: models.MembershipActive,
		EndDate: &end,
	}
}

func TestEvaluateStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days int
		want RenewalStatus
	}{
		{"far out", 20, RenewalStatus{DaysUntilRenewal: 20}},
		{"eight days is quiet", 8, RenewalStatus{DaysUntilRenewal: 8}},
		{"seven days is urgent", 7, RenewalStatus{NeedsRenewal: true, IsUrgent: true, DaysUntilRenewal: 7}},
		{"four days is urgent", 4, RenewalStatus{NeedsRenewal: true, IsUrgent: true, DaysUntilRenewal: 4}},
		{"three days is critical", 3, RenewalStatus{NeedsRenewal: true, IsCritical: true, DaysUntilRenewal: 3}},
		{"one day is critical", 1, RenewalStatus{NeedsRenewal: true, IsCritical: true, DaysUntilRenewal: 1}},
		{"past due stays critical", -2, RenewalStatus{NeedsRenewal: true, IsCritical: true, DaysUntilRenewal: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateStatus(membershipEnding(tt.days, now), now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateStatus_PartialDaysRoundUp(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	end := now.Add(7*24*time.Hour + time.Hour) // 7 days and 1 hour out
	m := &models.Membership{Tier: models.TierProMonthly, Status: models.MembershipActive, EndDate: &end}

	got := EvaluateStatus(m, now)
	assert.Equal(t, 8, got.DaysUntilRenewal)
	assert.False(t, got.NeedsRenewal)
}

func TestEvaluateStatus_UrgentAndCriticalExclusive(t *testing.T) {
	now := time.Now()
	st := EvaluateStatus(membershipEnding(2, now), now)
	assert.True(t, st.IsCritical)
	assert.False(t, st.IsUrgent)
}

func TestEvaluateStatus_ZeroCases(t *testing.T) {
	now := time.Now()
	end := now.Add(2 * 24 * time.Hour)

	assert.Equal(t, RenewalStatus{}, EvaluateStatus(nil, now))
	assert.Equal(t, RenewalStatus{}, EvaluateStatus(&models.Membership{Tier: models.TierFree, EndDate: &end}, now))
	assert.Equal(t, RenewalStatus{}, EvaluateStatus(&models.Membership{Tier: models.TierProMonthly, Status: models.MembershipActive}, now))
}

func TestReminderBucketFor(t *testing.T) {
	tests := []struct {
		days int
		want models.ReminderBucket
	}{
		{45, ""},
		{31, ""},
		{30, models.Reminder30Days},
		{8, models.Reminder30Days},
		{7, models.Reminder7Days},
		{2, models.Reminder7Days},
		{1, models.Reminder1Day},
		{0, models.Reminder1Day},
		{-3, models.Reminder1Day},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReminderBucketFor(tt.days), "days=%d", tt.days)
	}
}
