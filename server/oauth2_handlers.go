package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-drive-uploader/sessions"
	"github.com/rs/zerolog/log"
)

const connectedMessage = "Google Drive is now connected. You can return to the application and upload your file."

// AuthorizeHandler sends the browser to the storage provider's consent page.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, _ := sessions.IDFromContext(r.Context())

		authURL, err := s.authFlow.AuthorizeURL(sessionID)
		if err != nil {
			log.Err(err).Msg("failed to start authorization")
			writeTextError(w, err)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OAuthCallbackHandler completes the authorization the provider redirected
// back with.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, _ := sessions.IDFromContext(r.Context())

		if _, err := s.authFlow.Complete(r.Context(), sessionID, r.URL); err != nil {
			log.Warn().Err(err).Msg("authorization callback failed")
			writeTextError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeText)
		fmt.Fprint(w, connectedMessage)
	}
}

// LogoutHandler forgets the session's credential.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, _ := sessions.IDFromContext(r.Context())

		if err := s.authFlow.Revoke(sessionID); err != nil {
			log.Err(err).Msg("failed to drop credential")
			writeTextError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
