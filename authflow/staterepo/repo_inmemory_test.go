package staterepo_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-drive-uploader/authflow/staterepo"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo_TakeIsSingleUse(t *testing.T) {
	r := staterepo.NewInMemoryRepo()
	created := time.Now()

	authState := &staterepo.AuthFlowState{SessionID: "s1", CodeVerifier: "v1", CreatedAt: created}
	require.NoError(t, r.Upsert("state-1", authState))

	// later changes to the caller's value are not seen by the repo
	authState.SessionID = "changed"

	got, err := r.Take("state-1")
	require.NoError(t, err)
	require.Equal(t, "s1", got.SessionID)
	require.Equal(t, "v1", got.CodeVerifier)

	_, err = r.Take("state-1")
	require.ErrorIs(t, err, staterepo.ErrStateNotFound)
}

func TestInMemoryRepo_Validation(t *testing.T) {
	r := staterepo.NewInMemoryRepo()
	require.Error(t, r.Upsert("", &staterepo.AuthFlowState{}))
	require.Error(t, r.Upsert("x", nil))
	_, err := r.Take("")
	require.Error(t, err)
}

func TestInMemoryRepo_DeleteExpired(t *testing.T) {
	r := staterepo.NewInMemoryRepo()
	now := time.Now()

	require.NoError(t, r.Upsert("old", &staterepo.AuthFlowState{SessionID: "a", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, r.Upsert("new", &staterepo.AuthFlowState{SessionID: "b", CreatedAt: now}))

	removed, err := r.DeleteExpired(now.Add(-10 * time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = r.Take("old")
	require.ErrorIs(t, err, staterepo.ErrStateNotFound)
	_, err = r.Take("new")
	require.NoError(t, err)
}
