package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/service"
	"github.com/nextplay-sports/platform-api/internal/utils"
)

type AdminHandler struct {
	store       serviceStore
	apps        *service.ApplicationService
	evals       *service.EvaluationService
	memberships *service.MembershipService
}

func NewAdminHandler(store serviceStore, apps *service.ApplicationService, evals *service.EvaluationService, memberships *service.MembershipService) *AdminHandler {
	return &AdminHandler{store: store, apps: apps, evals: evals, memberships: memberships}
}

func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email  *string `json:"email,omitempty"`
		Role   *string `json:"role,omitempty"`
		Active *bool   `json:"active,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid request", nil, err.Error())
		return
	}
	userUpdates := map[string]interface{}{}
	if payload.Email != nil {
		userUpdates["email"] = *payload.Email
	}
	if payload.Role != nil {
		userUpdates["role"] = *payload.Role
	}
	if payload.Active != nil {
		userUpdates["active"] = *payload.Active
	}
	err := h.store.UpdateUserFields(r.Context(), chi.URLParam(r, "id"), userUpdates)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "couldnt process the updates", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "updated", nil, nil)
}

// ListAllUsers returns every account for user management
func (h *AdminHandler) ListAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsersAdmin(r.Context())
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error fetching users", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", users, nil)
}

// LinkParent links a guardian account to an athlete (optionally a recruiter)
func (h *AdminHandler) LinkParent(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ParentID    string `json:"parent_id"`
		AthleteID   string `json:"athlete_id"`
		RecruiterID string `json:"recruiter_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid request", nil, err.Error())
		return
	}
	if payload.ParentID == "" || payload.AthleteID == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "parent_id and athlete_id are required", nil, nil)
		return
	}
	if err := h.store.AddRelation(r.Context(), payload.ParentID, payload.AthleteID, payload.RecruiterID); err != nil {
		utils.WriteJSONResponse(w, http.StatusConflict, false, "link already exists or could not be created", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "linked", nil, nil)
}

// GetAdminDashboard returns all data needed for the admin dashboard in one call
func (h *AdminHandler) GetAdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pendingStatus := models.ApplicationPending
	pendingApps, err := h.apps.List(ctx, &pendingStatus)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "failed to fetch pending applications", nil, err.Error())
		return
	}

	queue, err := h.evals.ListUnclaimed(ctx)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "failed to fetch evaluation queue", nil, err.Error())
		return
	}

	users, err := h.store.ListUsersAdmin(ctx)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "failed to fetch users", nil, err.Error())
		return
	}

	data := map[string]interface{}{
		"pending_applications": pendingApps,
		"evaluation_queue":     queue,
		"users":                users,
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "admin dashboard data fetched", data, nil)
}

/* ------------------ Scheduled job entry points ------------------ */
// The external cron invoker hits these; each is idempotent and safe to run
// repeatedly or overlapping.

// POST /admin/jobs/renewal-reminders
func (h *AdminHandler) RunRenewalReminders(w http.ResponseWriter, r *http.Request) {
	sent, err := h.memberships.SendRenewalReminders(r.Context(), time.Now())
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "reminder job failed", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "reminder job finished", map[string]int{"sent": sent}, nil)
}

// POST /admin/jobs/expire-memberships
func (h *AdminHandler) RunExpireMemberships(w http.ResponseWriter, r *http.Request) {
	n, err := h.memberships.ExpireLapsed(r.Context())
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "expiry job failed", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "expiry job finished", map[string]int64{"expired": n}, nil)
}

// POST /admin/jobs/staleness-check
func (h *AdminHandler) RunStalenessCheck(w http.ResponseWriter, r *http.Request) {
	n, err := h.evals.StalenessCheck(r.Context(), time.Now())
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "staleness check failed", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "staleness check finished", map[string]int{"stale": n}, nil)
}

// POST /admin/jobs/reconcile-orphans
func (h *AdminHandler) RunReconcileOrphans(w http.ResponseWriter, r *http.Request) {
	n, err := h.apps.ReconcileOrphans(r.Context())
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "reconcile job failed", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "reconcile job finished", map[string]int{"orphans": n}, nil)
}

// POST /admin/jobs/purge-tokens
func (h *AdminHandler) RunPurgeTokens(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteExpiredTokens(r.Context()); err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "token purge failed", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "token purge finished", nil, nil)
}
