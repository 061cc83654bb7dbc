// Package sessions ties a browser to a server-side Session through a signed
// cookie. The cookie carries only the session ID; everything else lives in
// the credential store keyed by that ID.
package sessions

import (
	"context"
	"net/http"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	// CookieName is the name of the cookie carrying the signed session ID
	CookieName = "uploader_session"

	issuer = "go-drive-uploader"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySessionID stores the current request's session ID
const ContextKeySessionID ContextKey = "session_id"

type Manager struct {
	secret  []byte
	maxAge  time.Duration
	secure  bool
	nowTime func() time.Time
}

// NewManager creates a session manager signing cookies with secret. Secure
// cookies are sent with SameSite=None so the uploader can be called from a
// page on another origin.
func NewManager(secret []byte, maxAge time.Duration, secure bool) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.Kind(errors.ErrConfiguration, errors.New("session secret is required"))
	}
	if maxAge <= 0 {
		return nil, errors.Kind(errors.ErrConfiguration, errors.New("session max age must be positive"))
	}
	return &Manager{
		secret:  secret,
		maxAge:  maxAge,
		secure:  secure,
		nowTime: time.Now,
	}, nil
}

// Issue starts a new Session and sets its cookie on w.
func (m *Manager) Issue(w http.ResponseWriter) (string, error) {
	sessionID := uuid.NewString()
	now := m.nowTime()

	claims := jwtlib.RegisteredClaims{
		Issuer:    issuer,
		ID:        sessionID,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(m.maxAge)),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrapf(err, "[sessions Issue] signing session cookie")
	}

	sameSite := http.SameSiteLaxMode
	if m.secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: sameSite,
		MaxAge:   int(m.maxAge.Seconds()),
	})
	return sessionID, nil
}

// Resolve returns the session ID carried by the request's cookie.
// ErrSessionNotFound means there is no cookie, ErrInvalidSession that it was
// tampered with or has expired.
func (m *Manager) Resolve(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", errors.ErrSessionNotFound
	}

	var claims jwtlib.RegisteredClaims
	_, err = jwtlib.ParseWithClaims(cookie.Value, &claims,
		func(*jwtlib.Token) (interface{}, error) { return m.secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(m.nowTime),
	)
	if err != nil {
		return "", errors.Kind(errors.ErrInvalidSession, err)
	}
	if claims.ID == "" {
		return "", errors.Kind(errors.ErrInvalidSession, errors.New("session cookie has no ID"))
	}
	return claims.ID, nil
}

// Middleware makes sure every request runs inside a Session, creating one on
// first contact or when the cookie is no longer valid.
func (m *Manager) Middleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := m.Resolve(r)
			if err != nil {
				if errors.Is(err, errors.ErrInvalidSession) {
					log.Debug().Err(err).Msg("replacing invalid session cookie")
				}
				sessionID, err = m.Issue(w)
				if err != nil {
					log.Err(err).Msg("failed to start session")
					http.Error(w, "Failed to start session", http.StatusInternalServerError)
					return
				}
			}

			next(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		}
	}
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, sessionID)
}

// IDFromContext returns the session ID stored by Middleware.
func IDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(ContextKeySessionID).(string)
	return sessionID, ok && sessionID != ""
}
