// Package authflow runs the three-legged OAuth 2.0 authorization-code
// handshake that gives a Session delegated access to the user's Drive.
package authflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/url"
	"time"

	"github.com/jrsteele09/go-drive-uploader/authflow/staterepo"
	"github.com/jrsteele09/go-drive-uploader/credentials"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type Service struct {
	oauth    *oauth2.Config
	states   staterepo.Repo
	creds    credentials.Repo
	stateTTL time.Duration
	nowTime  func() time.Time
	random   io.Reader
}

func NewService(oauthCfg *oauth2.Config, states staterepo.Repo, creds credentials.Repo, stateTTL time.Duration) *Service {
	return &Service{
		oauth:    oauthCfg,
		states:   states,
		creds:    creds,
		stateTTL: stateTTL,
		nowTime:  time.Now,
		random:   rand.Reader,
	}
}

// generateRandomString creates a random base64url string
func generateRandomString(random io.Reader, length int) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthorizeURL starts a new authorization for the session. It records a
// fresh state bound to the session and returns the provider URL to redirect
// to. The credential store is not touched.
func (s *Service) AuthorizeURL(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.ErrSessionNotFound
	}

	state, err := generateRandomString(s.random, 32)
	if err != nil {
		return "", errors.Wrapf(err, "[authflow AuthorizeURL] generating state")
	}
	verifier := oauth2.GenerateVerifier()

	err = s.states.Upsert(state, &staterepo.AuthFlowState{
		SessionID:    sessionID,
		CodeVerifier: verifier,
		CreatedAt:    s.nowTime(),
	})
	if err != nil {
		return "", errors.Wrapf(err, "[authflow AuthorizeURL] storing state")
	}

	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	), nil
}

// Complete handles the provider's redirect back to the application. On
// success the resulting Credential replaces whatever the session held
// before. Every failure is an ErrAuthExchange and leaves the store as it was.
func (s *Service) Complete(ctx context.Context, sessionID string, callbackURL *url.URL) (*credentials.Credential, error) {
	query := callbackURL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		if desc := query.Get("error_description"); desc != "" {
			providerErr += " - " + desc
		}
		return nil, errors.Kind(errors.ErrAuthExchange, errors.New("provider returned "+providerErr))
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		return nil, errors.Kind(errors.ErrAuthExchange, errors.New("missing code or state parameter"))
	}

	authState, err := s.states.Take(state)
	if err != nil {
		return nil, errors.Kind(errors.ErrAuthExchange, errors.Wrapf(err, "unknown state"))
	}
	if authState.SessionID != sessionID {
		return nil, errors.Kind(errors.ErrAuthExchange, errors.New("state was issued to another session"))
	}
	if s.nowTime().Sub(authState.CreatedAt) > s.stateTTL {
		return nil, errors.Kind(errors.ErrAuthExchange, errors.New("state has expired"))
	}

	tok, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(authState.CodeVerifier))
	if err != nil {
		return nil, errors.Kind(errors.ErrAuthExchange, errors.Wrapf(err, "token exchange"))
	}

	cred := credentials.FromToken(tok, s.oauth)
	if err := cred.Validate(); err != nil {
		return nil, errors.Kind(errors.ErrAuthExchange, err)
	}

	if err := s.creds.Put(sessionID, cred); err != nil {
		return nil, errors.Wrapf(err, "[authflow Complete] storing credential")
	}

	log.Info().Bool("refreshable", cred.RefreshToken != "").Msg("storage provider connected")
	return &cred, nil
}

// Revoke drops the session's credential. Unknown sessions are not an error.
func (s *Service) Revoke(sessionID string) error {
	if sessionID == "" {
		return errors.ErrSessionNotFound
	}
	return s.creds.Delete(sessionID)
}
