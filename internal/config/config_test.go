package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-drive-uploader/internal/config"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_Defaults(t *testing.T) {
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8080/oauth2callback", c.GetRedirectURL())
	require.Equal(t, config.SessionStoreMemory, c.GetSessionStore())
	require.False(t, c.GetCookieSecure())
	require.Equal(t, int64(8*1024*1024), c.GetUploadChunkSize())
	require.NotEmpty(t, c.GetTempDir())
}

func TestLoad_Layering(t *testing.T) {
	tomlFile := writeFile(t, "uploader.toml", `
port = "9000"
base_url = "https://uploader.example.com/"
fetch_timeout = "15s"
allowed_origins = ["https://bickie.example.com"]
`)
	envFile := writeFile(t, "test.env", "APP_NAME=from-dotenv\nPORT=9100\n")

	t.Setenv("PORT", "9200")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Cleanup(func() { _ = os.Unsetenv("APP_NAME") }) // set by the dotenv file

	c, err := config.Load(config.LoadOptions{File: tomlFile, EnvFile: envFile})
	require.NoError(t, err)

	// process env beats dotenv beats TOML
	require.Equal(t, ":9200", c.GetPort())
	require.Equal(t, "from-dotenv", c.GetAppName())
	require.Equal(t, "https://uploader.example.com", c.GetBaseURL())
	require.Equal(t, "https://uploader.example.com/oauth2callback", c.GetRedirectURL())
	require.Equal(t, 15*time.Second, c.GetFetchTimeout())
	require.Equal(t, []string{"https://bickie.example.com"}, c.GetAllowedOrigins())
	require.True(t, c.GetCookieSecure())
	require.Equal(t, "s3cret", c.GetSessionSecret())
}

func TestLoad_Validation(t *testing.T) {
	t.Run("chunk size alignment", func(t *testing.T) {
		t.Setenv("UPLOAD_CHUNK_SIZE", "1000")
		_, err := config.Load(config.LoadOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "UPLOAD_CHUNK_SIZE")
	})

	t.Run("unknown session store", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "redis")
		_, err := config.Load(config.LoadOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "SESSION_STORE")
	})

	t.Run("secret required outside DEV", func(t *testing.T) {
		t.Setenv("ENV", "production")
		t.Setenv("SESSION_SECRET", "")
		_, err := config.Load(config.LoadOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "SESSION_SECRET")
	})

	t.Run("missing toml file", func(t *testing.T) {
		_, err := config.Load(config.LoadOptions{File: filepath.Join(t.TempDir(), "nope.toml")})
		require.Error(t, err)
	})
}
