// Package acquire obtains upload content, either streamed from an inbound
// multipart request or fetched from a remote URL, into a per-request
// temporary Artifact.
package acquire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/rs/zerolog/log"
)

// FileField is the multipart field carrying a direct upload.
const FileField = "file"

type Options struct {
	TempDir      string
	MaxBytes     int64
	FetchTimeout time.Duration
	HTTPClient   *http.Client // defaults to a client without its own timeout
}

type Acquirer struct {
	tempDir      string
	maxBytes     int64
	fetchTimeout time.Duration
	client       *http.Client
}

func New(opts Options) *Acquirer {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Acquirer{
		tempDir:      tempDir,
		maxBytes:     opts.MaxBytes,
		fetchTimeout: opts.FetchTimeout,
		client:       client,
	}
}

// FromMultipart streams the "file" part of a multipart request body. A
// missing part, a missing filename or empty content is ErrMissingPayload and
// creates nothing on disk.
func (a *Acquirer) FromMultipart(r *http.Request) (*Artifact, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, errors.Kind(errors.ErrMissingPayload, err)
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, errors.Kind(errors.ErrMissingPayload, errors.New("no file part in request"))
		}
		if err != nil {
			return nil, errors.Kind(errors.ErrMissingPayload, errors.Wrapf(err, "reading multipart body"))
		}
		if part.FormName() != FileField {
			part.Close()
			continue
		}

		name := sanitizeName(part.FileName())
		if name == "" {
			part.Close()
			return nil, errors.Kind(errors.ErrMissingPayload, errors.New("file part has no filename"))
		}

		artifact, err := a.store(name, part, errors.ErrMissingPayload)
		part.Close()
		return artifact, err
	}
}

// FromRemote fetches rawURL and stores the response body under the URL's
// final path segment. Unreachable hosts, non-2xx responses, timeouts and
// empty bodies are ErrRemoteFetch.
func (a *Acquirer) FromRemote(ctx context.Context, rawURL string) (*Artifact, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.Kind(errors.ErrMissingPayload, errors.New("no file URL"))
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Kind(errors.ErrRemoteFetch, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Kind(errors.ErrRemoteFetch, fmt.Errorf("unsupported URL %q", rawURL))
	}

	// path.Base would name "https://host/dir/" after "dir"
	name := ""
	if !strings.HasSuffix(u.Path, "/") {
		name = sanitizeName(path.Base(u.Path))
	}
	if name == "" {
		return nil, errors.Kind(errors.ErrMissingPayload, fmt.Errorf("cannot derive a file name from %q", rawURL))
	}

	if a.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Kind(errors.ErrRemoteFetch, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Kind(errors.ErrRemoteFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Kind(errors.ErrRemoteFetch, fmt.Errorf("%s returned %s", u.Host, resp.Status))
	}
	if a.maxBytes > 0 && resp.ContentLength > a.maxBytes {
		return nil, errors.Kind(errors.ErrPayloadTooLarge, fmt.Errorf("remote content is %d bytes", resp.ContentLength))
	}

	return a.store(name, resp.Body, errors.ErrRemoteFetch)
}

// store copies src into a fresh <tempDir>/<uuid>/<name>. readKind classifies
// an empty or unreadable source. Nothing is left on disk when it fails.
func (a *Acquirer) store(name string, src io.Reader, readKind error) (*Artifact, error) {
	buffered := bufio.NewReader(src)
	if _, err := buffered.Peek(1); err != nil {
		if err == io.EOF {
			return nil, errors.Kind(readKind, errors.New("content is empty"))
		}
		return nil, errors.Kind(readKind, err)
	}

	dir := filepath.Join(a.tempDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "[acquire] creating artifact directory")
	}
	artifact := &Artifact{Name: name, Path: filepath.Join(dir, name), dir: dir}

	size, err := a.copyTo(artifact.Path, buffered)
	if err != nil {
		artifact.Close()
		if errors.Is(err, errors.ErrPayloadTooLarge) {
			return nil, err
		}
		return nil, errors.Kind(readKind, err)
	}
	artifact.Size = size

	log.Debug().Str("name", name).Int64("bytes", size).Msg("content acquired")
	return artifact, nil
}

func (a *Acquirer) copyTo(dst string, src io.Reader) (int64, error) {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if a.maxBytes > 0 {
		src = io.LimitReader(src, a.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return n, err
	}
	if a.maxBytes > 0 && n > a.maxBytes {
		return n, errors.Kind(errors.ErrPayloadTooLarge, fmt.Errorf("content exceeds %d bytes", a.maxBytes))
	}
	return n, f.Close()
}

// sanitizeName reduces a client-supplied name to a single path element.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	switch name {
	case ".", "..", "/", "":
		return ""
	}
	return name
}
