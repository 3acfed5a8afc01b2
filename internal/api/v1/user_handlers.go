package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nextplay-sports/platform-api/internal/auth"
	"github.com/nextplay-sports/platform-api/internal/config"
	"github.com/nextplay-sports/platform-api/internal/models"
	"github.com/nextplay-sports/platform-api/internal/utils"
	"gorm.io/datatypes"
)

type UserHandler struct {
	store   serviceStore
	storage utils.MediaStorage
	cfg     *config.Config
}

func NewUserHandler(store serviceStore, storage utils.MediaStorage, cfg *config.Config) *UserHandler {
	return &UserHandler{store: store, storage: storage, cfg: cfg}
}

// CanAccessAthleteData: owner, admin, or a linked guardian account.
func CanAccessAthleteData(current *models.User, targetID string, isParent bool) bool {
	if current.ID == targetID || current.Role == models.RoleAdmin {
		return true
	}
	return current.Role == models.RoleParent && isParent
}

// GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "missing id", nil, nil)
		return
	}

	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}

	isParent, _ := h.store.IsParentOf(ctx, current.ID, id)
	// recruiters may view any athlete profile; everyone else needs a link
	if current.Role != models.RoleRecruiter && current.Role != models.RoleCoach &&
		!CanAccessAthleteData(current, id, isParent) {
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "forbidden", nil, nil)
		return
	}

	u, err := h.store.GetUserByID(ctx, id)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, "not found", nil, nil)
		return
	}
	if u.Role == models.RoleCoach {
		if cp, err := h.store.GetCoachProfile(ctx, u.ID); err == nil {
			utils.WriteJSONResponse(w, http.StatusOK, true, "success", map[string]interface{}{
				"user":          u,
				"coach_profile": cp,
			}, nil)
			return
		}
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", u, nil)
}

// GET /users/me - get the profile of the requesting user
func (h *UserHandler) GetSelfProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}

	u, err := h.store.GetUserByID(ctx, current.ID)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, "not found", nil, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", u, nil)
}

// PUT /users/{id} - only allowed to update profile fields (not role, id)
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "missing id", nil, nil)
		return
	}

	// payload with pointers to detect omitted fields
	var payload struct {
		FirstName      *string                 `json:"first_name,omitempty"`
		LastName       *string                 `json:"last_name,omitempty"`
		City           *string                 `json:"city,omitempty"`
		State          *string                 `json:"state,omitempty"`
		Country        *string                 `json:"country,omitempty"`
		Zipcode        *string                 `json:"zipcode,omitempty"`
		Phone          *string                 `json:"phone,omitempty"`
		DOB            *string                 `json:"dob,omitempty"` // ISO date string, optional
		School         *string                 `json:"school,omitempty"`
		GraduationYear *int                    `json:"graduation_year,omitempty"`
		Sport          *string                 `json:"sport,omitempty"`
		Position       *string                 `json:"position,omitempty"`
		HeightCm       *int                    `json:"height_cm,omitempty"`
		WeightKg       *int                    `json:"weight_kg,omitempty"`
		GPA            *float64                `json:"gpa,omitempty"`
		Bio            *string                 `json:"bio,omitempty"`
		AdditionalInfo *map[string]interface{} `json:"additional_info,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "bad request", nil, err.Error())
		return
	}

	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}

	isParent, _ := h.store.IsParentOf(ctx, current.ID, id)
	if !CanAccessAthleteData(current, id, isParent) {
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "forbidden", nil, nil)
		return
	}

	// ensure target exists
	if _, err := h.store.GetUserByID(ctx, id); err != nil {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, "user not found", nil, err.Error())
		return
	}

	userUpdates := map[string]interface{}{}
	if payload.FirstName != nil {
		userUpdates["first_name"] = *payload.FirstName
	}
	if payload.LastName != nil {
		userUpdates["last_name"] = *payload.LastName
	}
	if len(userUpdates) > 0 {
		if err := h.store.UpdateUserFields(ctx, id, userUpdates); err != nil {
			utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "update failed", nil, err.Error())
			return
		}
	}

	detailUpdates := map[string]interface{}{}
	if payload.City != nil {
		detailUpdates["city"] = *payload.City
	}
	if payload.State != nil {
		detailUpdates["state"] = *payload.State
	}
	if payload.Country != nil {
		detailUpdates["country"] = *payload.Country
	}
	if payload.Zipcode != nil {
		detailUpdates["zipcode"] = *payload.Zipcode
	}
	if payload.Phone != nil {
		detailUpdates["phone"] = *payload.Phone
	}
	if payload.School != nil {
		detailUpdates["school"] = *payload.School
	}
	if payload.GraduationYear != nil {
		detailUpdates["graduation_year"] = *payload.GraduationYear
	}
	if payload.Sport != nil {
		detailUpdates["sport"] = *payload.Sport
	}
	if payload.Position != nil {
		detailUpdates["position"] = *payload.Position
	}
	if payload.HeightCm != nil {
		detailUpdates["height_cm"] = *payload.HeightCm
	}
	if payload.WeightKg != nil {
		detailUpdates["weight_kg"] = *payload.WeightKg
	}
	if payload.GPA != nil {
		detailUpdates["gpa"] = *payload.GPA
	}
	if payload.Bio != nil {
		detailUpdates["bio"] = *payload.Bio
	}
	if payload.AdditionalInfo != nil {
		detailUpdates["additional_info"] = datatypes.JSONMap(*payload.AdditionalInfo)
	}
	if payload.DOB != nil {
		if t, err := time.Parse(time.RFC3339, *payload.DOB); err == nil {
			detailUpdates["dob"] = t
		}
	}

	if len(detailUpdates) > 0 {
		if err := h.store.UpdateUserDetailsFields(ctx, id, detailUpdates); err != nil {
			utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "update details failed", nil, err.Error())
			return
		}
	}

	utils.WriteJSONResponse(w, http.StatusOK, true, "updated", nil, nil)
}

// GET /users - admin lists everyone; a parent lists their linked athletes
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}

	switch current.Role {
	case models.RoleAdmin:
		users, err := h.store.ListUsersAdmin(ctx)
		if err != nil {
			utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error", nil, err.Error())
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, true, "success", users, nil)
	case models.RoleParent:
		athletes, err := h.store.ListAthletesForParent(ctx, current.ID)
		if err != nil {
			utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error fetching athletes", nil, err.Error())
			return
		}
		utils.WriteJSONResponse(w, http.StatusOK, true, "success", athletes, nil)
	default:
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "forbidden", nil, nil)
	}
}

// POST /users/reset-password - allows users to reset their own password
func (h *UserHandler) ResetOwnPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}

	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "invalid request", nil, nil)
		return
	}
	if len(payload.NewPassword) < 6 {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "password must be at least 6 characters long", nil, nil)
		return
	}

	hash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error hashing password", nil, nil)
		return
	}
	if err := h.store.UpdateUserFields(ctx, current.ID, map[string]interface{}{
		"password_hash": hash,
	}); err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error updating password", nil, nil)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, true, "password reset successfully", nil, nil)
}

// POST /users/{id}/profile-picture
func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}

	isParent, _ := h.store.IsParentOf(ctx, current.ID, id)
	if !CanAccessAthleteData(current, id, isParent) {
		utils.WriteJSONResponse(w, http.StatusForbidden, false, "forbidden", nil, nil)
		return
	}

	// Max 5MB
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "file too large or invalid form", nil, err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, "missing file field", nil, err.Error())
		return
	}
	defer file.Close()

	// Delete old profile picture file if exists
	user, err := h.store.GetUserByID(ctx, id)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, "user not found", nil, nil)
		return
	}
	if user.UserDetails.ProfilePictureURL != "" {
		_ = h.storage.DeleteFile(ctx, user.UserDetails.ProfilePictureURL)
	}

	key, err := h.storage.SaveFile(ctx, "profile-pictures", header.Filename, file)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "failed to save file", nil, err.Error())
		return
	}

	if err := h.store.UpdateUserDetailsFields(ctx, id, map[string]interface{}{
		"profile_picture_url": key,
	}); err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "failed to update profile", nil, err.Error())
		return
	}

	fullURL := fmt.Sprintf("%s/uploads/%s", h.cfg.UploadBaseURL, key)
	utils.WriteJSONResponse(w, http.StatusOK, true, "profile picture uploaded", map[string]string{
		"key": key,
		"url": fullURL,
	}, nil)
}
