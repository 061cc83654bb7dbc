package authflow

import (
	"context"
	"os"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DriveFileScope grants access only to files this application creates or
// opens.
const DriveFileScope = "https://www.googleapis.com/auth/drive.file"

// RegistrationConfig is the part of the application config describing the
// OAuth client registration.
type RegistrationConfig interface {
	GetClientSecretsFile() string
	GetClientID() string
	GetClientSecret() string
	GetIssuer() string
	GetRedirectURL() string
}

// LoadRegistration builds the OAuth client config once at startup. Explicit
// client ID and secret take precedence over the client secrets file. When an
// issuer is configured its discovery document supplies the endpoints.
func LoadRegistration(ctx context.Context, cfg RegistrationConfig) (*oauth2.Config, error) {
	var oauthCfg *oauth2.Config

	if cfg.GetClientID() != "" && cfg.GetClientSecret() != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			Endpoint:     google.Endpoint,
		}
	} else {
		raw, err := os.ReadFile(cfg.GetClientSecretsFile())
		if err != nil {
			return nil, errors.Kind(errors.ErrConfiguration, errors.Wrapf(err, "reading client secrets"))
		}
		oauthCfg, err = google.ConfigFromJSON(raw, DriveFileScope)
		if err != nil {
			return nil, errors.Kind(errors.ErrConfiguration, errors.Wrapf(err, "parsing client secrets %s", cfg.GetClientSecretsFile()))
		}
	}

	if issuer := cfg.GetIssuer(); issuer != "" {
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, errors.Kind(errors.ErrConfiguration, errors.Wrapf(err, "discovering issuer %s", issuer))
		}
		oauthCfg.Endpoint = provider.Endpoint()
	}

	oauthCfg.Scopes = []string{DriveFileScope}
	oauthCfg.RedirectURL = cfg.GetRedirectURL()

	if oauthCfg.ClientID == "" || oauthCfg.Endpoint.AuthURL == "" || oauthCfg.Endpoint.TokenURL == "" {
		return nil, errors.Kind(errors.ErrConfiguration, errors.New("client registration is incomplete"))
	}
	return oauthCfg, nil
}
