package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nextplay-sports/platform-api/internal/auth"
	"github.com/nextplay-sports/platform-api/internal/config"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/service"
	"github.com/nextplay-sports/platform-api/internal/store"
	"github.com/nextplay-sports/platform-api/internal/utils"
	"gorm.io/datatypes"
)

type EvaluationHandler struct {
	evals   *service.EvaluationService
	storage utils.MediaStorage
	cfg     *config.Config
}

func NewEvaluationHandler(evals *service.EvaluationService, storage utils.MediaStorage, cfg *config.Config) *EvaluationHandler {
	return &EvaluationHandler{evals: evals, storage: storage, cfg: cfg}
}

func evalIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// POST /evaluations — athlete purchases an evaluation (requires the
// evaluation_request feature; the service enforces the gate)
func (h *EvaluationHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	current := auth.GetUserFromCtx(r.Context())
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	if current.Role != models.RoleAthlete {
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "only athletes can request evaluations", nil, nil)
		return
	}
	var req struct {
		PaymentRef string `json:"payment_ref"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid request", nil, err.Error())
		return
	}
	e, err := h.evals.Purchase(r.Context(), current.ID, req.PaymentRef, req.Notes)
	if err != nil {
		utils.WriteErrorResponse(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, true, "evaluation created", e, nil)
}

// GET /evaluations — own evaluations (athlete) or assigned ones (coach)
func (h *EvaluationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}

	f := store.EvaluationListFilter{}
	switch current.Role {
	case models.RoleAthlete:
		f.AthleteID = &current.ID
	case models.RoleCoach:
		f.CoachID = &current.ID
	case models.RoleAdmin:
		// unfiltered
	default:
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "forbidden", nil, nil)
		return
	}
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.EvaluationStatus(s)
		f.Status = &st
	}

	evals, err := h.evals.List(ctx, f)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error fetching evaluations", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", evals, nil)
}

// GET /evaluations/queue — the unclaimed pending queue (coaches)
func (h *EvaluationHandler) Queue(w http.ResponseWriter, r *http.Request) {
	evals, err := h.evals.ListUnclaimed(r.Context())
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error fetching queue", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", evals, nil)
}

// GET /evaluations/{id}
func (h *EvaluationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	id, ok := evalIDParam(r)
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid id", nil, nil)
		return
	}
	e, err := h.evals.Get(ctx, id)
	if err != nil {
		utils.WriteErrorResponse(w, err)
		return
	}
	owner := e.AthleteID == current.ID ||
		(e.CoachID != nil && *e.CoachID == current.ID) ||
		current.Role == models.RoleAdmin
	if !owner {
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "forbidden", nil, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", e, nil)
}

// POST /evaluations/{id}/claim — coach takes ownership; exactly one of
// concurrent claimers wins
func (h *EvaluationHandler) Claim(w http.ResponseWriter, r *http.Request) {
	current := auth.GetUserFromCtx(r.Context())
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	id, ok := evalIDParam(r)
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid id", nil, nil)
		return
	}
	e, err := h.evals.Claim(r.Context(), id, current.ID)
	if err != nil {
		utils.WriteErrorResponse(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "evaluation claimed", e, nil)
}

// POST /evaluations/{id}/complete — assigned coach submits results, with an
// optional multipart report file stored in media storage
func (h *EvaluationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	id, ok := evalIDParam(r)
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid id", nil, nil)
		return
	}

	// Max 25MB: report PDFs and short clips
	if err := r.ParseMultipartForm(25 << 20); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "file too large or invalid form", nil, err.Error())
		return
	}

	var results datatypes.JSON
	if raw := r.FormValue("results"); raw != "" {
		if !json.Valid([]byte(raw)) {
			utils.WriteJSONResponse(w, http.StatusBadRequest, false, "results must be valid JSON", nil, nil)
			return
		}
		results = datatypes.JSON(raw)
	}

	reportKey := ""
	if file, header, err := r.FormFile("report"); err == nil {
		defer file.Close()
		key, err := h.storage.SaveFile(ctx, "eval-reports/"+current.ID, header.Filename, file)
		if err != nil {
			utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "failed to save report", nil, err.Error())
			return
		}
		reportKey = key
	}

	e, err := h.evals.Complete(ctx, id, current.ID, results, reportKey)
	if err != nil {
		utils.WriteErrorResponse(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "evaluation completed", e, nil)
}

type presigner interface {
	PresignGetObject(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

// GET /evaluations/{id}/report — short-lived download link for the report file
func (h *EvaluationHandler) ReportURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	id, ok := evalIDParam(r)
	if !ok {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid id", nil, nil)
		return
	}
	e, err := h.evals.Get(ctx, id)
	if err != nil {
		utils.WriteErrorResponse(w, err)
		return
	}
	owner := e.AthleteID == current.ID ||
		(e.CoachID != nil && *e.CoachID == current.ID) ||
		current.Role == models.RoleAdmin
	if !owner {
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "forbidden", nil, nil)
		return
	}
	if e.ReportKey == "" {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, "no report uploaded", nil, nil)
		return
	}

	url := h.cfg.UploadBaseURL + "/uploads/" + e.ReportKey
	if p, ok := h.storage.(presigner); ok {
		url, err = p.PresignGetObject(ctx, e.ReportKey, 15*time.Minute)
		if err != nil {
			utils.WriteJSONResponse(w, http.StatusBadGateway, false, "failed to sign report url", nil, err.Error())
			return
		}
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", map[string]string{"url": url}, nil)
}
