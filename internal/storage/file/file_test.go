package file

import (
	"aclue/internal/storage"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestStorage_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s := New(path)
	require.NoError(t, s.Set(ctx, "aclue_access_token", "A1"))
	require.NoError(t, s.Set(ctx, "aclue_refresh_token", "R1"))

	reopened := New(path)
	v, err := reopened.Get(ctx, "aclue_access_token")
	require.NoError(t, err)
	assert.Equal(t, "A1", v)

	require.NoError(t, reopened.Remove(ctx, "aclue_access_token"))

	_, err = s.Get(ctx, "aclue_access_token")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	v, err = s.Get(ctx, "aclue_refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "R1", v)
}

func TestStorage_MissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"))

	_, err := s.Get(context.Background(), "anything")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := New(path)
	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
