package config

import (
	"strings"
	"time"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreSQLite = "sqlite"
)

type SecurityConfig interface {
	GetSessionSecret() string
	GetMaxSessionAge() time.Duration
	GetSessionStore() string
	GetSessionDBPath() string
	GetCookieSecure() bool
	GetJanitorInterval() time.Duration
}

var _ SecurityConfig = mainConfig{}

func (s *settings) GetSessionSecret() string {
	return s.SessionSecret
}

func (s *settings) GetMaxSessionAge() time.Duration {
	return s.SessionMaxAge
}

func (s *settings) GetSessionStore() string {
	return s.SessionStore
}

func (s *settings) GetSessionDBPath() string {
	return s.SessionDBPath
}

// GetCookieSecure is forced on when the service is served over https.
func (s *settings) GetCookieSecure() bool {
	return s.CookieSecure || strings.HasPrefix(s.BaseURL, "https://")
}

func (s *settings) GetJanitorInterval() time.Duration {
	return s.JanitorInterval
}
