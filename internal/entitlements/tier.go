// Package entitlements holds the tier resolution, feature gating, and
// membership lifecycle logic. Everything here fails closed: lookup errors
// resolve to the free tier and unknown features are denied.
package entitlements

import (
	"context"

	"github.com/nextplay-sports/platform-api/internal/cache"
	"github.com/nextplay-sports/platform-api/internal/models"
)

var tierRank = map[models.Tier]int{
	models.TierFree:         0,
	models.TierProMonthly:   1,
	models.TierChampionship: 2,
}

// TierAtLeast reports whether have satisfies the want minimum under the
// total order free < pro_monthly < championship_yearly. Unknown tiers rank
// below free.
func TierAtLeast(have, want models.Tier) bool {
	h, ok := tierRank[have]
	if !ok {
		h = -1
	}
	w, ok := tierRank[want]
	if !ok {
		// unknown minimum: deny everything
		return false
	}
	return h >= w
}

// MembershipGetter is the slice of the store the resolver needs.
type MembershipGetter interface {
	GetCurrentMembership(ctx context.Context, userID string) (*models.Membership, error)
}

type Resolver struct {
	store MembershipGetter
	cache *cache.TTL[models.Tier]
}

func NewResolver(store MembershipGetter, c *cache.TTL[models.Tier]) *Resolver {
	return &Resolver{store: store, cache: c}
}

// ResolveTier returns the user's current tier. No active or trialing
// membership, and any lookup error, resolve to free: entitlement checks must
// never crash a calling page.
func (r *Resolver) ResolveTier(ctx context.Context, userID string) models.Tier {
	if t, ok := r.cache.Get(tierKey(userID)); ok {
		return t
	}
	m, err := r.store.GetCurrentMembership(ctx, userID)
	if err != nil || m == nil {
		// fail closed; do not cache errors so a transient DB blip recovers
		return models.TierFree
	}
	if m.Status != models.MembershipActive && m.Status != models.MembershipTrialing {
		return models.TierFree
	}
	r.cache.Set(tierKey(userID), m.Tier)
	return m.Tier
}

// InvalidateUser drops the cached tier after a membership mutation.
func (r *Resolver) InvalidateUser(userID string) {
	r.cache.Invalidate(tierKey(userID))
}

func tierKey(userID string) string { return "tier:" + userID }
