package errors_test

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/jrsteele09/go-drive-uploader/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	t.Run("kind and cause both match", func(t *testing.T) {
		err := errors.Kind(errors.ErrRemoteFetch, io.ErrUnexpectedEOF)
		require.True(t, errors.Is(err, errors.ErrRemoteFetch))
		require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
		require.False(t, errors.Is(err, errors.ErrUploadService))
	})

	t.Run("nil cause returns kind", func(t *testing.T) {
		require.Equal(t, errors.ErrMissingPayload, errors.Kind(errors.ErrMissingPayload, nil))
	})
}

func TestWrapf(t *testing.T) {
	require.NoError(t, errors.Wrapf(nil, "nothing"))

	err := errors.Wrapf(errors.ErrAuthExchange, "session %s", "abc")
	require.EqualError(t, err, "session abc: authorization exchange failed")
	require.True(t, stderrors.Is(err, errors.ErrAuthExchange))
}
