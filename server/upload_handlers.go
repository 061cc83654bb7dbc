package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/jrsteele09/go-drive-uploader/acquire"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/jrsteele09/go-drive-uploader/sessions"
	"github.com/rs/zerolog/log"
)

const (
	uploadedMessage = "File uploaded!"

	// maxJSONBody bounds the {"file_url": ...} request shape.
	maxJSONBody = 64 * 1024
)

type remoteUploadRequest struct {
	FileURL string `json:"file_url"`
}

type uploadResponse struct {
	Message string  `json:"message"`
	Link    *string `json:"link"`
	ID      string  `json:"id,omitempty"`
}

// UploadHandler accepts either a multipart body with a "file" field or a
// JSON body naming a file_url, and uploads the content to the session's
// Drive.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, _ := sessions.IDFromContext(r.Context())

		// Nothing is read or fetched for a session that cannot upload.
		if _, err := s.uploads.Credential(sessionID); err != nil {
			writeJSONError(w, err)
			return
		}

		artifact, err := s.acquire(r)
		if err != nil {
			log.Info().Err(err).Msg("upload content rejected")
			writeJSONError(w, err)
			return
		}
		defer func() {
			if err := artifact.Close(); err != nil {
				log.Err(err).Str("path", artifact.Path).Msg("failed to remove upload artifact")
			}
		}()

		result, err := s.uploads.Upload(r.Context(), sessionID, artifact)
		if err != nil {
			log.Warn().Err(err).Str("name", artifact.Name).Msg("upload failed")
			writeJSONError(w, err)
			return
		}

		resp := uploadResponse{Message: uploadedMessage, ID: result.ID}
		if result.Link != "" {
			resp.Link = &result.Link
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// acquire picks the content source from the request's media type.
func (s *Server) acquire(r *http.Request) (*acquire.Artifact, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.Kind(errors.ErrMissingPayload, err)
	}

	switch mediaType {
	case "multipart/form-data":
		return s.acquirer.FromMultipart(r)

	case "application/json":
		var req remoteUploadRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
			return nil, errors.Kind(errors.ErrMissingPayload, errors.Wrapf(err, "decoding request body"))
		}
		return s.acquirer.FromRemote(r.Context(), req.FileURL)

	default:
		return nil, errors.Kind(errors.ErrMissingPayload, errors.New("unsupported content type "+mediaType))
	}
}
