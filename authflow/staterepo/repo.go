package staterepo

import (
	"errors"
	"time"
)

var ErrStateNotFound = errors.New("state not found")

// AuthFlowState is what an issued authorization request remembers until its
// callback arrives.
type AuthFlowState struct {
	SessionID    string
	CodeVerifier string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	// Take returns the state and removes it, so each state is redeemable once.
	Take(state string) (*AuthFlowState, error)
	DeleteExpired(before time.Time) (int, error)
}
