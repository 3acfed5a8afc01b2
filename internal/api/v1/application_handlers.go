package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nextplay-sports/platform-api/internal/auth"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/service"
	"github.com/nextplay-sports/platform-api/internal/utils"
	"gorm.io/datatypes"
)

type ApplicationHandler struct {
	apps *service.ApplicationService
}

func NewApplicationHandler(apps *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

// POST /applications — public coach application form
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string                 `json:"email"`
		FirstName  string                 `json:"first_name"`
		LastName   string                 `json:"last_name"`
		Sport      string                 `json:"sport"`
		Experience string                 `json:"experience"`
		Credential string                 `json:"credential"`
		Extra      map[string]interface{} `json:"extra"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid request", nil, err.Error())
		return
	}
	if req.Email == "" || req.FirstName == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "email and first_name are required", nil, nil)
		return
	}
	a := &models.CoachApplication{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Sport:      req.Sport,
		Experience: req.Experience,
		Credential: req.Credential,
		Extra:      datatypes.JSONMap(req.Extra),
	}
	if err := h.apps.Submit(r.Context(), a); err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error submitting application", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "application submitted", map[string]interface{}{
		"application_id": a.ID,
	}, nil)
}

// GET /admin/applications?status=pending
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.ApplicationStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.ApplicationStatus(s)
		status = &st
	}
	apps, err := h.apps.List(r.Context(), status)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error fetching applications", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", apps, nil)
}

func appIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// POST /admin/applications/{id}/approve — provisions the coach account.
// Approving twice returns a conflict, never a second account.
func (h *ApplicationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	current := auth.GetUserFromCtx(r.Context())
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	id, ok := appIDParam(r)
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid id", nil, nil)
		return
	}
	coach, err := h.apps.Approve(r.Context(), id, current.ID)
	if err != nil {
		utils.WriteErrorResponse(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "application approved", map[string]interface{}{
		"coach_id": coach.ID,
	}, nil)
}

// POST /admin/applications/{id}/reject
func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	current := auth.GetUserFromCtx(r.Context())
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	id, ok := appIDParam(r)
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid id", nil, nil)
		return
	}
	if err := h.apps.Reject(r.Context(), id, current.ID); err != nil {
		utils.WriteErrorResponse(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "application rejected", nil, nil)
}
