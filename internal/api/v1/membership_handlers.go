package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nextplay-sports/platform-api/internal/auth"
	"github.com/nextplay-sports/platform-api/internal/entitlements"
	"github.com/nextplay-sports/platform-api/internal/service"
	"github.com/nextplay-sports/platform-api/internal/utils"
)

type MembershipHandler struct {
	memberships *service.MembershipService
	resolver    *entitlements.Resolver
	gate        *entitlements.Gate
}

func NewMembershipHandler(m *service.MembershipService, resolver *entitlements.Resolver, gate *entitlements.Gate) *MembershipHandler {
	return &MembershipHandler{memberships: m, resolver: resolver, gate: gate}
}

// GET /memberships/me — current membership plus the renewal banner payload
func (h *MembershipHandler) GetOwnMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	m, st, err := h.memberships.Status(ctx, current.ID, time.Now())
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error fetching membership", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", map[string]interface{}{
		"tier":       h.resolver.ResolveTier(ctx, current.ID),
		"membership": m,
		"renewal":    st,
	}, nil)
}

// GET /features — the feature catalog with minimum tiers
func (h *MembershipHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", entitlements.Features(), nil)
}

// GET /features/{key}/access — the UI gating endpoint. Same resolution logic
// the server-side checks use; never errors, just allow/deny.
func (h *MembershipHandler) CheckFeatureAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	key := chi.URLParam(r, "key")
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", map[string]interface{}{
		"feature": key,
		"allowed": h.gate.HasAccess(ctx, current.ID, key),
	}, nil)
}

// POST /webhooks/payments — subscription-lifecycle events from the payment
// provider, normalized at this edge into a PaymentEvent.
func (h *MembershipHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var ev service.PaymentEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid payload", nil, err.Error())
		return
	}
	if ev.UserID == "" || ev.Type == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "type and user_id are required", nil, nil)
		return
	}
	if err := h.memberships.ApplyPaymentEvent(r.Context(), ev); err != nil {
		utils.WriteErrorResponse(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "processed", nil, nil)
}
