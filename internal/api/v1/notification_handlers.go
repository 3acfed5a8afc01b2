package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nextplay-sports/platform-api/internal/auth"
	"github.com/nextplay-sports/platform-api/internal/utils"
)

type NotificationHandler struct {
	store serviceStore
}

func NewNotificationHandler(store serviceStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// GET /notifications — own notifications, newest first
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	includeDismissed := r.URL.Query().Get("all") == "true"
	list, err := h.store.ListNotificationsForUser(ctx, current.ID, includeDismissed)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error fetching notifications", nil, err.Error())
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "success", list, nil)
}

// POST /notifications/{id}/dismiss — owner only
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	if current == nil {
		utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "unauthorized", nil, nil)
		return
	}
	id := chi.URLParam(r, "id")
	ok, err := h.store.DismissNotification(ctx, id, current.ID)
	if err != nil {
		utils.WriteJSONResponse(w, http.StatusInternalServerError, false, "error dismissing notification", nil, err.Error())
		return
	}
	if !ok {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, "notification not found", nil, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, true, "dismissed", nil, nil)
}
