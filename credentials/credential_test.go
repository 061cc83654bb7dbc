package credentials_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-drive-uploader/credentials"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		Endpoint:     oauth2.Endpoint{TokenURL: "https://oauth2.example.com/token"},
		Scopes:       []string{"https://www.googleapis.com/auth/drive.file"},
	}
}

func TestCredential_Validate(t *testing.T) {
	var nilCred *credentials.Credential
	require.ErrorIs(t, nilCred.Validate(), credentials.ErrMissingAccessToken)
	require.ErrorIs(t, (&credentials.Credential{RefreshToken: "r"}).Validate(), credentials.ErrMissingAccessToken)
	require.NoError(t, (&credentials.Credential{Token: "a"}).Validate())
}

func TestFromToken(t *testing.T) {
	expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cfg := testConfig()
	cred := credentials.FromToken(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}, cfg)

	require.Equal(t, "access", cred.Token)
	require.Equal(t, "refresh", cred.RefreshToken)
	require.Equal(t, "https://oauth2.example.com/token", cred.TokenURI)
	require.Equal(t, "client-1", cred.ClientID)
	require.Equal(t, "secret-1", cred.ClientSecret)
	require.Equal(t, cfg.Scopes, cred.Scopes)
	require.Equal(t, expiry, cred.Expiry)

	// scopes are copied, not shared
	cfg.Scopes[0] = "changed"
	require.Equal(t, "https://www.googleapis.com/auth/drive.file", cred.Scopes[0])

	back := cred.OAuth2Config()
	require.Equal(t, "https://oauth2.example.com/token", back.Endpoint.TokenURL)
	require.Equal(t, "refresh", cred.OAuth2Token().RefreshToken)
}

func TestCredential_JSONLayout(t *testing.T) {
	raw, err := json.Marshal(credentials.Credential{Token: "t", Scopes: []string{"s"}})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"token", "refresh_token", "token_uri", "client_id", "client_secret", "scopes"} {
		require.Contains(t, m, key)
	}
}

func TestCredential_WithToken(t *testing.T) {
	cred := credentials.Credential{Token: "old", RefreshToken: "keep"}

	refreshed := cred.WithToken(&oauth2.Token{AccessToken: "new"})
	require.Equal(t, "new", refreshed.Token)
	require.Equal(t, "keep", refreshed.RefreshToken)
	require.Equal(t, "old", cred.Token)

	rotated := cred.WithToken(&oauth2.Token{AccessToken: "new", RefreshToken: "rotated"})
	require.Equal(t, "rotated", rotated.RefreshToken)
}
