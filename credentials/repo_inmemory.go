package credentials

import (
	"errors"
	"sync"
	"time"
)

var _ Repo = (*InMemoryRepo)(nil)

type storedCredential struct {
	cred      Credential
	updatedAt time.Time
}

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu      sync.RWMutex
	entries map[string]storedCredential // sessionID -> credential
	nowTime func() time.Time
}

// NewInMemoryRepo creates an empty in-memory credential store
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		entries: make(map[string]storedCredential),
		nowTime: time.Now,
	}
}

func (r *InMemoryRepo) Get(sessionID string) (*Credential, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external modifications
	cred := entry.cred.clone()
	return &cred, nil
}

func (r *InMemoryRepo) Put(sessionID string, cred Credential) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[sessionID] = storedCredential{cred: cred.clone(), updatedAt: r.nowTime()}
	return nil
}

func (r *InMemoryRepo) Refresh(sessionID, expectToken string, cred Credential) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		return ErrNotFound
	}
	if entry.cred.Token != expectToken {
		return ErrCredentialChanged
	}
	r.entries[sessionID] = storedCredential{cred: cred.clone(), updatedAt: r.nowTime()}
	return nil
}

func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, sessionID)
	return nil
}

func (r *InMemoryRepo) DeleteExpired(before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.entries {
		if entry.updatedAt.Before(before) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed, nil
}
