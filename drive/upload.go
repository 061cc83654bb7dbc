package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// statusResumeIncomplete is what Drive answers to every chunk but the last.
const statusResumeIncomplete = 308

const cancelTimeout = 10 * time.Second

// UploadSession is an open resumable upload. URL is the session URI Drive
// returned in the Location header.
type UploadSession struct {
	URL string
}

// CreateUploadSession starts a resumable upload of a new file.
func (c *Client) CreateUploadSession(ctx context.Context, name string, size int64) (*UploadSession, error) {
	metadata, err := json.Marshal(File{Name: name})
	if err != nil {
		return nil, fmt.Errorf("drive: encoding file metadata: %w", err)
	}

	endpoint := c.uploadURL + "/files?uploadType=resumable&fields=" + fileFields
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(metadata))
	if err != nil {
		return nil, fmt.Errorf("drive: creating upload session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "application/octet-stream")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive: upload session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp.StatusCode, body)
	}
	io.Copy(io.Discard, resp.Body)

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, ErrNoSessionURL
	}

	log.Debug().Str("name", name).Int64("size", size).Msg("upload session created")
	return &UploadSession{URL: location}, nil
}

// UploadChunk sends one chunk of the upload. It returns the created File on
// the final chunk and nil for intermediate chunks.
func (c *Client) UploadChunk(
	ctx context.Context, session *UploadSession, chunk io.Reader,
	offset, length, total int64,
) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session.URL, chunk)
	if err != nil {
		return nil, fmt.Errorf("drive: creating chunk upload request: %w", err)
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+length-1, total))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("User-Agent", userAgent)
	req.ContentLength = length

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive: chunk upload request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.handleChunkResponse(resp)
}

// handleChunkResponse processes the HTTP response from an upload chunk
// request. 308 means intermediate chunk; 200/201 means upload complete.
func (c *Client) handleChunkResponse(resp *http.Response) (*File, error) {
	switch resp.StatusCode {
	case statusResumeIncomplete:
		io.Copy(io.Discard, resp.Body)
		log.Debug().Str("range", resp.Header.Get("Range")).Msg("chunk accepted")
		return nil, nil

	case http.StatusOK, http.StatusCreated:
		var f File
		if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
			return nil, fmt.Errorf("drive: decoding final chunk response: %w", err)
		}
		if f.ID == "" {
			return nil, fmt.Errorf("drive: final chunk response has no file id: %w", ErrUnexpected)
		}
		return &f, nil

	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp.StatusCode, body)
	}
}

// CancelUploadSession abandons an upload session. Drive answers a successful
// cancel with 499.
func (c *Client) CancelUploadSession(ctx context.Context, session *UploadSession) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, session.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("drive: creating cancel session request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("drive: cancel upload session request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	const statusClientClosed = 499
	switch resp.StatusCode {
	case statusClientClosed, http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		log.Debug().Msg("upload session cancelled")
		return nil
	default:
		return fmt.Errorf("drive: cancel upload session failed with status %d", resp.StatusCode)
	}
}
