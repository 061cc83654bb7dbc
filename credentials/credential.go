package credentials

import (
	"errors"
	"slices"
	"time"

	"golang.org/x/oauth2"
)

var (
	ErrNotFound           = errors.New("credential not found")
	ErrMissingAccessToken = errors.New("credential has no access token")
	ErrCredentialChanged  = errors.New("credential changed since it was read")
)

// Credential is the delegated-access bundle for one Session. The JSON layout
// is what the session stores persist.
type Credential struct {
	Token        string    `json:"token"`         // OAuth2 access token
	RefreshToken string    `json:"refresh_token"` // Empty when the provider issued none
	TokenURI     string    `json:"token_uri"`     // Token endpoint used for refresh
	ClientID     string    `json:"client_id"`     // Registered client the token was issued to
	ClientSecret string    `json:"client_secret"` // Needed to refresh
	Scopes       []string  `json:"scopes"`        // Granted scopes, in request order
	Expiry       time.Time `json:"expiry"`        // Zero means the token does not expire
}

// Validate rejects a credential that cannot authorize a request.
func (c *Credential) Validate() error {
	if c == nil || c.Token == "" {
		return ErrMissingAccessToken
	}
	return nil
}

// FromToken builds a Credential from a token issued for cfg.
func FromToken(tok *oauth2.Token, cfg *oauth2.Config) Credential {
	return Credential{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       slices.Clone(cfg.Scopes),
		Expiry:       tok.Expiry,
	}
}

func (c Credential) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.Token,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// OAuth2Config is the minimal config oauth2 needs to refresh this credential.
func (c Credential) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.TokenURI},
		Scopes:       slices.Clone(c.Scopes),
	}
}

// WithToken returns a copy of c carrying the access/refresh values of tok.
// A refresh response without a refresh token keeps the existing one.
func (c Credential) WithToken(tok *oauth2.Token) Credential {
	c.Token = tok.AccessToken
	c.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
	c.Scopes = slices.Clone(c.Scopes)
	return c
}

func (c Credential) clone() Credential {
	c.Scopes = slices.Clone(c.Scopes)
	return c
}
