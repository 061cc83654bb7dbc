package config

import (
	"fmt"
	"strings"
	"time"
)

// settings is the single backing struct for every Config getter. Field tags
// name the TOML key and the environment variable for each value.
type settings struct {
	Port     string `toml:"port" env:"PORT"`
	AppName  string `toml:"app_name" env:"APP_NAME"`
	Env      string `toml:"env" env:"ENV"`
	BaseURL  string `toml:"base_url" env:"BASE_URL"`
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`

	ClientSecretsFile string        `toml:"client_secrets_file" env:"CLIENT_SECRETS_FILE"`
	ClientID          string        `toml:"client_id" env:"OAUTH_CLIENT_ID"`
	ClientSecret      string        `toml:"client_secret" env:"OAUTH_CLIENT_SECRET"`
	Issuer            string        `toml:"issuer" env:"OAUTH_ISSUER"`
	RedirectURL       string        `toml:"redirect_url" env:"REDIRECT_URL"`
	AuthStateTTL      time.Duration `toml:"auth_state_ttl" env:"AUTH_STATE_TTL"`

	SessionSecret   string        `toml:"session_secret" env:"SESSION_SECRET"`
	SessionMaxAge   time.Duration `toml:"session_max_age" env:"SESSION_MAX_AGE"`
	SessionStore    string        `toml:"session_store" env:"SESSION_STORE"`
	SessionDBPath   string        `toml:"session_db_path" env:"SESSION_DB_PATH"`
	CookieSecure    bool          `toml:"cookie_secure" env:"COOKIE_SECURE"`
	JanitorInterval time.Duration `toml:"janitor_interval" env:"JANITOR_INTERVAL"`

	TempDir         string        `toml:"temp_dir" env:"TEMP_DIR"`
	MaxUploadBytes  int64         `toml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	FetchTimeout    time.Duration `toml:"fetch_timeout" env:"FETCH_TIMEOUT"`
	UploadTimeout   time.Duration `toml:"upload_timeout" env:"UPLOAD_TIMEOUT"`
	UploadChunkSize int64         `toml:"upload_chunk_size" env:"UPLOAD_CHUNK_SIZE"`
	DriveAPIURL     string        `toml:"drive_api_url" env:"DRIVE_API_URL"`
	DriveUploadURL  string        `toml:"drive_upload_url" env:"DRIVE_UPLOAD_URL"`

	AllowedOrigins []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// driveChunkAlignment is the granularity Drive requires for every chunk
// except the last one of a resumable upload.
const driveChunkAlignment = 256 * 1024

func defaultSettings() *settings {
	return &settings{
		Port:     "8080",
		AppName:  "Drive Uploader",
		Env:      "DEV",
		BaseURL:  "http://localhost:8080",
		LogLevel: "info",

		ClientSecretsFile: "/etc/secrets/client_secret.json",
		AuthStateTTL:      10 * time.Minute,

		SessionMaxAge:   24 * time.Hour,
		SessionStore:    SessionStoreMemory,
		SessionDBPath:   "./data/sessions.db",
		JanitorInterval: 5 * time.Minute,

		MaxUploadBytes:  1 << 30, // 1 GiB
		FetchTimeout:    60 * time.Second,
		UploadTimeout:   10 * time.Minute,
		UploadChunkSize: 8 * 1024 * 1024,
		DriveAPIURL:     "https://www.googleapis.com/drive/v3",
		DriveUploadURL:  "https://www.googleapis.com/upload/drive/v3",
	}
}

var _ EnvConfig = mainConfig{}

func (s *settings) GetPort() string {
	port := s.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (s *settings) GetAppName() string {
	return s.AppName
}

func (s *settings) GetEnv() string {
	if s.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(s.Env)
}

// GetBaseURL returns the externally visible base URL (e.g. "https://uploader.example.com").
// The default OAuth redirect URL is derived from it.
func (s *settings) GetBaseURL() string {
	return strings.TrimRight(s.BaseURL, "/")
}

func (s *settings) GetLogLevel() string {
	return s.LogLevel
}

func (s *settings) validate() error {
	switch {
	case s.SessionMaxAge <= 0:
		return fmt.Errorf("[config] SESSION_MAX_AGE must be positive, got %s", s.SessionMaxAge)
	case s.AuthStateTTL <= 0:
		return fmt.Errorf("[config] AUTH_STATE_TTL must be positive, got %s", s.AuthStateTTL)
	case s.JanitorInterval <= 0:
		return fmt.Errorf("[config] JANITOR_INTERVAL must be positive, got %s", s.JanitorInterval)
	case s.FetchTimeout <= 0 || s.UploadTimeout <= 0:
		return fmt.Errorf("[config] FETCH_TIMEOUT and UPLOAD_TIMEOUT must be positive")
	case s.MaxUploadBytes <= 0:
		return fmt.Errorf("[config] MAX_UPLOAD_BYTES must be positive, got %d", s.MaxUploadBytes)
	case s.UploadChunkSize <= 0 || s.UploadChunkSize%driveChunkAlignment != 0:
		return fmt.Errorf("[config] UPLOAD_CHUNK_SIZE must be a positive multiple of %d, got %d", driveChunkAlignment, s.UploadChunkSize)
	case s.SessionStore != SessionStoreMemory && s.SessionStore != SessionStoreSQLite:
		return fmt.Errorf("[config] SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreSQLite, s.SessionStore)
	case s.SessionSecret == "" && s.GetEnv() != "DEV":
		return fmt.Errorf("[config] SESSION_SECRET is required outside DEV")
	}
	return nil
}
