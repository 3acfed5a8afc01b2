package entitlements

import (
	"context"

	"github.com/nextplay-sports/platform-api/internal/models"
)

// featureMinTier is static configuration: each gated capability and the
// minimum tier that unlocks it. Not mutated at runtime.
var featureMinTier = map[string]models.Tier{
	"profile_basic":        models.TierFree,
	"profile_media":        models.TierFree,
	"highlight_video":      models.TierProMonthly,
	"recruiter_visibility": models.TierProMonthly,
	"evaluation_request":   models.TierProMonthly,
	"advanced_stats":       models.TierProMonthly,
	"social_cross_posting": models.TierChampionship,
	"college_matching":     models.TierChampionship,
	"priority_support":     models.TierChampionship,
}

// Features returns the full catalog. Handlers use it to render the pricing
// matrix; the map is copied so callers cannot mutate the catalog.
func Features() map[string]models.Tier {
	out := make(map[string]models.Tier, len(featureMinTier))
	for k, v := range featureMinTier {
		out[k] = v
	}
	return out
}

type Gate struct {
	resolver *Resolver
}

func NewGate(r *Resolver) *Gate {
	return &Gate{resolver: r}
}

// HasAccess reports whether the user's tier unlocks the feature. Unknown
// feature keys are always denied, never allowed by default. Both the UI
// endpoint and server-side authorization call this same method, so there is
// no client/server gap to bypass.
func (g *Gate) HasAccess(ctx context.Context, userID, featureKey string) bool {
	min, ok := featureMinTier[featureKey]
	if !ok {
		return false
	}
	return TierAtLeast(g.resolver.ResolveTier(ctx, userID), min)
}
