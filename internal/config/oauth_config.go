package config

import "time"

type OAuthConfig interface {
	GetClientSecretsFile() string
	GetClientID() string
	GetClientSecret() string
	GetIssuer() string
	GetRedirectURL() string
	GetAuthStateTTL() time.Duration
}

var _ OAuthConfig = mainConfig{}

// GetClientSecretsFile is the Google "client_secret.json" registration file.
// Ignored when both GetClientID and GetClientSecret are set.
func (s *settings) GetClientSecretsFile() string {
	return s.ClientSecretsFile
}

func (s *settings) GetClientID() string {
	return s.ClientID
}

func (s *settings) GetClientSecret() string {
	return s.ClientSecret
}

// GetIssuer is an optional OIDC issuer used to discover the authorization
// and token endpoints.
func (s *settings) GetIssuer() string {
	return s.Issuer
}

func (s *settings) GetRedirectURL() string {
	if s.RedirectURL != "" {
		return s.RedirectURL
	}
	return s.GetBaseURL() + "/oauth2callback"
}

// GetAuthStateTTL bounds how long an /authorize round trip may take.
func (s *settings) GetAuthStateTTL() time.Duration {
	return s.AuthStateTTL
}
