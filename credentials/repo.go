package credentials

import "time"

// Repo is the per-Session credential store. Implementations must be safe for
// concurrent use and must never expose one session's entry to another.
type Repo interface {
	// Get returns ErrNotFound when the session holds no credential.
	Get(sessionID string) (*Credential, error)

	// Put stores cred for the session, replacing any previous value.
	Put(sessionID string, cred Credential) error

	// Refresh replaces the session's credential with cred only while the
	// stored access token is still expectToken. It returns ErrNotFound when
	// the entry is gone and ErrCredentialChanged when it was replaced.
	Refresh(sessionID, expectToken string, cred Credential) error

	// Delete is a no-op for unknown sessions.
	Delete(sessionID string) error

	// DeleteExpired removes entries last written before the given time and
	// reports how many were removed.
	DeleteExpired(before time.Time) (int, error)
}
