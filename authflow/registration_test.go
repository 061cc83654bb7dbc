package authflow_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-drive-uploader/authflow"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/google"
)

type registrationConfig struct {
	secretsFile  string
	clientID     string
	clientSecret string
	issuer       string
	redirectURL  string
}

func (c registrationConfig) GetClientSecretsFile() string { return c.secretsFile }
func (c registrationConfig) GetClientID() string          { return c.clientID }
func (c registrationConfig) GetClientSecret() string      { return c.clientSecret }
func (c registrationConfig) GetIssuer() string            { return c.issuer }
func (c registrationConfig) GetRedirectURL() string       { return c.redirectURL }

const clientSecretsJSON = `{
  "web": {
    "client_id": "file-client",
    "client_secret": "file-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["https://registered.example.com/oauth2callback"]
  }
}`

func writeSecrets(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client_secret.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadRegistration_ExplicitClient(t *testing.T) {
	cfg, err := authflow.LoadRegistration(context.Background(), registrationConfig{
		secretsFile:  "/does/not/exist.json",
		clientID:     "env-client",
		clientSecret: "env-secret",
		redirectURL:  "http://localhost:8080/oauth2callback",
	})
	require.NoError(t, err)
	require.Equal(t, "env-client", cfg.ClientID)
	require.Equal(t, "env-secret", cfg.ClientSecret)
	require.Equal(t, google.Endpoint, cfg.Endpoint)
	require.Equal(t, []string{authflow.DriveFileScope}, cfg.Scopes)
	require.Equal(t, "http://localhost:8080/oauth2callback", cfg.RedirectURL)
}

func TestLoadRegistration_SecretsFile(t *testing.T) {
	cfg, err := authflow.LoadRegistration(context.Background(), registrationConfig{
		secretsFile: writeSecrets(t, clientSecretsJSON),
		redirectURL: "https://uploader.example.com/oauth2callback",
	})
	require.NoError(t, err)
	require.Equal(t, "file-client", cfg.ClientID)
	require.Equal(t, "file-secret", cfg.ClientSecret)
	require.Equal(t, "https://oauth2.googleapis.com/token", cfg.Endpoint.TokenURL)
	// the configured redirect wins over the registered one
	require.Equal(t, "https://uploader.example.com/oauth2callback", cfg.RedirectURL)
}

func TestLoadRegistration_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  registrationConfig
	}{
		{name: "missing file", cfg: registrationConfig{secretsFile: filepath.Join(t.TempDir(), "missing.json")}},
		{name: "malformed file", cfg: registrationConfig{secretsFile: writeSecrets(t, "{not json")}},
		{name: "no client section", cfg: registrationConfig{secretsFile: writeSecrets(t, `{"other": {}}`)}},
		{name: "only client id", cfg: registrationConfig{clientID: "id", secretsFile: filepath.Join(t.TempDir(), "missing.json")}},
		{name: "unreachable issuer", cfg: registrationConfig{clientID: "id", clientSecret: "s", issuer: "http://127.0.0.1:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authflow.LoadRegistration(context.Background(), tt.cfg)
			require.ErrorIs(t, err, errors.ErrConfiguration)
		})
	}
}

func TestLoadRegistration_IssuerDiscovery(t *testing.T) {
	var issuer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + "/authorize",
			"token_endpoint":         issuer + "/token",
			"jwks_uri":               issuer + "/jwks",
		})
	}))
	defer srv.Close()
	issuer = srv.URL

	cfg, err := authflow.LoadRegistration(context.Background(), registrationConfig{
		clientID:     "id",
		clientSecret: "secret",
		issuer:       issuer,
		redirectURL:  "http://localhost:8080/oauth2callback",
	})
	require.NoError(t, err)
	require.Equal(t, issuer+"/authorize", cfg.Endpoint.AuthURL)
	require.Equal(t, issuer+"/token", cfg.Endpoint.TokenURL)
}
