// Package upload combines acquired content with a Session's credential to
// create a file in the user's Drive.
package upload

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/go-drive-uploader/acquire"
	"github.com/jrsteele09/go-drive-uploader/credentials"
	"github.com/jrsteele09/go-drive-uploader/drive"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// FileCreator is the storage provider surface the orchestrator needs.
type FileCreator interface {
	CreateFile(ctx context.Context, name string, content io.ReaderAt, size int64) (*drive.File, error)
	GetFile(ctx context.Context, fileID string) (*drive.File, error)
}

// Result is the reference to a newly created remote file. Link is empty when
// the provider did not return one.
type Result struct {
	ID   string
	Name string
	Link string
}

type Options struct {
	APIURL     string
	UploadURL  string
	ChunkSize  int64
	Timeout    time.Duration
	HTTPClient *http.Client // base transport for the provider and token refresh
}

type Service struct {
	creds      credentials.Repo
	timeout    time.Duration
	baseClient *http.Client
	newClient  func(*http.Client) FileCreator
}

func NewService(creds credentials.Repo, opts Options) *Service {
	return &Service{
		creds:      creds,
		timeout:    opts.Timeout,
		baseClient: opts.HTTPClient,
		newClient: func(hc *http.Client) FileCreator {
			return drive.NewClient(opts.APIURL, opts.UploadURL, hc, opts.ChunkSize)
		},
	}
}

// Credential returns the session's usable credential, or ErrUnauthenticated.
func (s *Service) Credential(sessionID string) (*credentials.Credential, error) {
	if sessionID == "" {
		return nil, errors.Kind(errors.ErrUnauthenticated, errors.ErrSessionNotFound)
	}

	cred, err := s.creds.Get(sessionID)
	if errors.Is(err, credentials.ErrNotFound) {
		return nil, errors.ErrUnauthenticated
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[upload Credential] reading credential")
	}
	if err := cred.Validate(); err != nil {
		return nil, errors.Kind(errors.ErrUnauthenticated, err)
	}
	return cred, nil
}

// Upload creates one Drive file named after the artifact with its content.
// Without a credential it fails with ErrUnauthenticated before any provider
// call. Provider failures are ErrUploadService and are not retried.
func (s *Service) Upload(ctx context.Context, sessionID string, artifact *acquire.Artifact) (*Result, error) {
	cred, err := s.Credential(sessionID)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if s.baseClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
	}

	tokens := &recordingTokenSource{src: cred.OAuth2Config().TokenSource(ctx, cred.OAuth2Token())}
	client := s.newClient(oauth2.NewClient(ctx, tokens))
	defer s.writeBack(sessionID, cred, tokens)

	content, err := artifact.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "[upload Upload] opening artifact")
	}
	defer content.Close()

	file, err := client.CreateFile(ctx, artifact.Name, content, artifact.Size)
	if err != nil {
		return nil, errors.Kind(errors.ErrUploadService, err)
	}

	link := file.WebViewLink
	if link == "" {
		if meta, err := client.GetFile(ctx, file.ID); err == nil {
			link = meta.WebViewLink
		} else {
			log.Warn().Err(err).Str("file_id", file.ID).Msg("could not look up share link")
		}
	}

	return &Result{ID: file.ID, Name: artifact.Name, Link: link}, nil
}

// writeBack stores a token the oauth2 transport refreshed during the upload,
// so the next request does not refresh again. The write is skipped when the
// session logged out or re-authorized while the upload was running.
func (s *Service) writeBack(sessionID string, cred *credentials.Credential, tokens *recordingTokenSource) {
	tok := tokens.last()
	if tok == nil || tok.AccessToken == cred.Token {
		return
	}

	err := s.creds.Refresh(sessionID, cred.Token, cred.WithToken(tok))
	switch {
	case errors.Is(err, credentials.ErrNotFound), errors.Is(err, credentials.ErrCredentialChanged):
		log.Debug().Err(err).Msg("dropping refreshed token")
	case err != nil:
		log.Err(err).Msg("failed to store refreshed credential")
	default:
		log.Debug().Msg("stored refreshed credential")
	}
}

// recordingTokenSource remembers the last token it handed to the transport
// so writeBack never has to ask the token endpoint again.
type recordingTokenSource struct {
	src oauth2.TokenSource
	mu  sync.Mutex
	tok *oauth2.Token
}

func (r *recordingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := r.src.Token()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.tok = tok
	r.mu.Unlock()
	return tok, nil
}

func (r *recordingTokenSource) last() *oauth2.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tok
}
