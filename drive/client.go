// Package drive is a small client for the parts of the Google Drive v3 API
// the uploader uses: resumable file creation and file metadata lookup.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	userAgent = "go-drive-uploader/1.0"

	// fileFields are requested on every call that returns a File.
	fileFields = "id,name,webViewLink"

	// DefaultChunkSize is a multiple of the 256 KiB granularity Drive
	// requires for every chunk but the last.
	DefaultChunkSize = 8 * 1024 * 1024
)

// File is the subset of Drive file metadata the uploader reports.
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WebViewLink string `json:"webViewLink,omitempty"`
}

type Client struct {
	apiURL     string
	uploadURL  string
	httpClient *http.Client
	chunkSize  int64
}

// NewClient creates a Drive client. httpClient must attach the user's
// credentials, typically oauth2.NewClient. The session URLs Drive hands out
// for resumable uploads are used with the same client.
func NewClient(apiURL, uploadURL string, httpClient *http.Client, chunkSize int64) *Client {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		uploadURL:  strings.TrimRight(uploadURL, "/"),
		httpClient: httpClient,
		chunkSize:  chunkSize,
	}
}

// GetFile fetches the metadata of one file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	endpoint := fmt.Sprintf("%s/files/%s?fields=%s", c.apiURL, url.PathEscape(fileID), url.QueryEscape(fileFields))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("drive: creating get file request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive: get file request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp.StatusCode, body)
	}

	var f File
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("drive: decoding file: %w", err)
	}
	return &f, nil
}

// CreateFile uploads size bytes from content as a new file called name,
// using the resumable protocol in chunkSize pieces. On any failure the
// upload session is cancelled so no partial file is left reachable.
func (c *Client) CreateFile(ctx context.Context, name string, content io.ReaderAt, size int64) (*File, error) {
	if size <= 0 {
		return nil, ErrEmptyUpload
	}

	session, err := c.CreateUploadSession(ctx, name, size)
	if err != nil {
		return nil, err
	}

	file, err := c.uploadChunks(ctx, session, content, size)
	if err != nil {
		// The request context may already be done; cancelling must still go out.
		cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
		defer cancel()
		if cancelErr := c.CancelUploadSession(cancelCtx, session); cancelErr != nil {
			log.Warn().Err(cancelErr).Msg("failed to cancel upload session")
		}
		return nil, err
	}

	log.Info().Str("file_id", file.ID).Int64("bytes", size).Msg("upload complete")
	return file, nil
}

func (c *Client) uploadChunks(ctx context.Context, session *UploadSession, content io.ReaderAt, size int64) (*File, error) {
	for offset := int64(0); offset < size; offset += c.chunkSize {
		length := min(c.chunkSize, size-offset)

		file, err := c.UploadChunk(ctx, session, io.NewSectionReader(content, offset, length), offset, length, size)
		if err != nil {
			return nil, err
		}
		if file != nil {
			if offset+length < size {
				return nil, fmt.Errorf("drive: upload finished at byte %d of %d: %w", offset+length, size, ErrUnexpected)
			}
			return file, nil
		}
	}
	return nil, ErrIncompleteRun
}
