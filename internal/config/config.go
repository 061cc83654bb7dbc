package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	OAuthConfig
	SecurityConfig
	UploadConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
}

// LoadOptions names the optional files layered under the process environment.
type LoadOptions struct {
	File    string // TOML file
	EnvFile string // dotenv file; "" tries ./.env
}

type mainConfig struct {
	*settings
}

// New returns a Config holding only the built-in defaults.
func New() Config {
	return mainConfig{defaultSettings()}
}

// Load builds the configuration: defaults, then the TOML file, then the
// dotenv file, then the process environment. Later layers win.
func Load(opts LoadOptions) (Config, error) {
	s := defaultSettings()

	if opts.File != "" {
		if _, err := toml.DecodeFile(opts.File, s); err != nil {
			return nil, fmt.Errorf("[config Load] decoding %s: %w", opts.File, err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("[config Load] loading env file %s: %w", opts.EnvFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("ignoring unreadable .env file")
	}

	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("[config Load] parsing environment: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return mainConfig{s}, nil
}
