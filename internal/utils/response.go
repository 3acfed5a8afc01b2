package utils

import (
	"encoding/json"
	"net/http"

	"github.com/nextplay-sports/platform-api/internal/apperr"
	"github.com/nextplay-sports/platform-api/internal/models"
)

func WriteJSONResponse(w http.ResponseWriter, status int, success bool, message string, data interface{}, errVal interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Success: success,
		Message: message,
		Data:    data,
		Error:   errVal,
	})
}

// WriteErrorResponse maps a taxonomy error to its HTTP status and writes the
// standard envelope. Internal errors are not echoed back to the client.
func WriteErrorResponse(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		msg = "internal error"
	}
	WriteJSONResponse(w, status, false, msg, nil, nil)
}
