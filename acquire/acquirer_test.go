package acquire_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-drive-uploader/acquire"
	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAcquirer(t *testing.T, maxBytes int64) (*acquire.Acquirer, string) {
	t.Helper()
	dir := t.TempDir()
	return acquire.New(acquire.Options{
		TempDir:      dir,
		MaxBytes:     maxBytes,
		FetchTimeout: 2 * time.Second,
	}), dir
}

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestFromMultipart(t *testing.T) {
	acq, dir := newTestAcquirer(t, 1024)

	artifact, err := acq.FromMultipart(multipartRequest(t, "file", "report.pdf", "pdf-bytes"))
	require.NoError(t, err)
	require.Equal(t, "report.pdf", artifact.Name)
	require.Equal(t, int64(len("pdf-bytes")), artifact.Size)
	require.True(t, strings.HasPrefix(artifact.Path, dir))

	content, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	require.Equal(t, "pdf-bytes", string(content))

	require.NoError(t, artifact.Close())
	require.NoError(t, artifact.Close())
	require.Empty(t, dirEntries(t, dir))
}

func TestFromMultipart_StripsDirectories(t *testing.T) {
	acq, _ := newTestAcquirer(t, 1024)

	artifact, err := acq.FromMultipart(multipartRequest(t, "file", `..\..\etc\passwd`, "x"))
	require.NoError(t, err)
	defer artifact.Close()
	require.Equal(t, "passwd", artifact.Name)
}

func TestFromMultipart_MissingPayload(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{name: "empty content", req: func(t *testing.T) *http.Request { return multipartRequest(t, "file", "empty.txt", "") }},
		{name: "no file part", req: func(t *testing.T) *http.Request { return multipartRequest(t, "", "", "") }},
		{name: "wrong field", req: func(t *testing.T) *http.Request { return multipartRequest(t, "document", "a.txt", "data") }},
		{name: "no filename", req: func(t *testing.T) *http.Request { return multipartRequest(t, "file", "", "data") }},
		{name: "not multipart", req: func(t *testing.T) *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("raw"))
			req.Header.Set("Content-Type", "text/plain")
			return req
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acq, dir := newTestAcquirer(t, 1024)
			_, err := acq.FromMultipart(tt.req(t))
			require.ErrorIs(t, err, errors.ErrMissingPayload)
			require.Empty(t, dirEntries(t, dir))
		})
	}
}

func TestFromMultipart_TooLarge(t *testing.T) {
	acq, dir := newTestAcquirer(t, 4)

	_, err := acq.FromMultipart(multipartRequest(t, "file", "big.bin", "12345"))
	require.ErrorIs(t, err, errors.ErrPayloadTooLarge)
	require.Empty(t, dirEntries(t, dir))
}

func TestFromMultipart_SameNameIsolated(t *testing.T) {
	acq, _ := newTestAcquirer(t, 1024)

	first, err := acq.FromMultipart(multipartRequest(t, "file", "same.txt", "first"))
	require.NoError(t, err)
	defer first.Close()
	second, err := acq.FromMultipart(multipartRequest(t, "file", "same.txt", "second"))
	require.NoError(t, err)
	defer second.Close()

	require.NotEqual(t, first.Path, second.Path)
	a, _ := os.ReadFile(first.Path)
	b, _ := os.ReadFile(second.Path)
	assert.Equal(t, "first", string(a))
	assert.Equal(t, "second", string(b))
}

func TestFromRemote(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/photo.jpg":
			w.Write([]byte("jpeg-bytes"))
		case "/files/empty.txt":
			w.WriteHeader(http.StatusOK)
		case "/files/big.bin":
			w.Write(bytes.Repeat([]byte("a"), 100))
		case "/files/slow.bin":
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer origin.Close()

	t.Run("success", func(t *testing.T) {
		acq, dir := newTestAcquirer(t, 1024)
		artifact, err := acq.FromRemote(context.Background(), origin.URL+"/files/photo.jpg?size=large")
		require.NoError(t, err)
		require.Equal(t, "photo.jpg", artifact.Name)

		content, err := os.ReadFile(artifact.Path)
		require.NoError(t, err)
		require.Equal(t, "jpeg-bytes", string(content))

		require.NoError(t, artifact.Close())
		require.Empty(t, dirEntries(t, dir))
	})

	failures := []struct {
		name string
		url  string
		kind error
	}{
		{name: "not found", url: origin.URL + "/files/missing.txt", kind: errors.ErrRemoteFetch},
		{name: "empty body", url: origin.URL + "/files/empty.txt", kind: errors.ErrRemoteFetch},
		{name: "unreachable", url: "http://127.0.0.1:1/file.txt", kind: errors.ErrRemoteFetch},
		{name: "unsupported scheme", url: "ftp://example.com/file.txt", kind: errors.ErrRemoteFetch},
		{name: "no name", url: origin.URL + "/", kind: errors.ErrMissingPayload},
		{name: "directory URL", url: origin.URL + "/files/", kind: errors.ErrMissingPayload},
		{name: "blank", url: "  ", kind: errors.ErrMissingPayload},
		{name: "too large", url: origin.URL + "/files/big.bin", kind: errors.ErrPayloadTooLarge},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			acq, dir := newTestAcquirer(t, 10)
			_, err := acq.FromRemote(context.Background(), tt.url)
			require.ErrorIs(t, err, tt.kind)
			require.Empty(t, dirEntries(t, dir))
		})
	}

	t.Run("timeout", func(t *testing.T) {
		dir := t.TempDir()
		acq := acquire.New(acquire.Options{TempDir: dir, MaxBytes: 1024, FetchTimeout: 50 * time.Millisecond})
		_, err := acq.FromRemote(context.Background(), origin.URL+"/files/slow.bin")
		require.ErrorIs(t, err, errors.ErrRemoteFetch)
		require.Empty(t, dirEntries(t, filepath.Clean(dir)))
	})
}
