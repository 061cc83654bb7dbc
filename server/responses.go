package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-drive-uploader/drive"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps an operation error to the HTTP status and the message shown
// to the caller. Messages never carry credential material.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrUnauthenticated),
		errors.Is(err, errors.ErrSessionNotFound),
		errors.Is(err, errors.ErrInvalidSession):
		return http.StatusForbidden, "Not authenticated with Google Drive"

	case errors.Is(err, errors.ErrMissingPayload):
		return http.StatusBadRequest, "No file provided"

	case errors.Is(err, errors.ErrRemoteFetch):
		return http.StatusBadRequest, "Could not fetch the file URL"

	case errors.Is(err, errors.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "File is too large"

	case errors.Is(err, errors.ErrAuthExchange):
		return http.StatusBadRequest, "Authorization with Google Drive failed"

	case errors.Is(err, errors.ErrUploadService):
		var apiErr *drive.APIError
		if errors.As(err, &apiErr) {
			return http.StatusBadGateway, "Upload failed: " + apiErr.Message
		}
		return http.StatusBadGateway, "Upload failed"

	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to write response")
	}
}

func writeJSONError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Err(err).Msg("unexpected error")
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeTextError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Err(err).Msg("unexpected error")
	}
	http.Error(w, msg, status)
}
