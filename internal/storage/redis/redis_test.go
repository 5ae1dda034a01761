package redis

import (
	"aclue/internal/storage"
	"aclue/internal/tests/mock"
	"context"
	"errors"
	redis2 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestRepositoryRedis_Get(t *testing.T) {
	ctx := context.Background()
	client := mock.NewMockRedisClient()
	repo := NewRepositoryRedis(client, "aclue:", 0)

	client.On("Get", ctx, "aclue:aclue_access_token").
		Return(redis2.NewStringResult("A1", nil)).
		Once()
	client.On("Get", ctx, "aclue:aclue_refresh_token").
		Return(redis2.NewStringResult("", redis2.Nil)).
		Once()
	client.On("Get", ctx, "aclue:aclue_user").
		Return(redis2.NewStringResult("", errors.New("i/o timeout"))).
		Once()

	v, err := repo.Get(ctx, "aclue_access_token")
	require.NoError(t, err)
	assert.Equal(t, "A1", v)

	_, err = repo.Get(ctx, "aclue_refresh_token")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.Get(ctx, "aclue_user")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)

	client.AssertExpectations(t)
}

func TestRepositoryRedis_SetUsesTTL(t *testing.T) {
	ctx := context.Background()
	client := mock.NewMockRedisClient()
	repo := NewRepositoryRedis(client, "aclue:", time.Hour)

	client.On("Set", ctx, "aclue:aclue_notifications", "[]", time.Hour).
		Return(redis2.NewStatusResult("OK", nil)).
		Once()

	require.NoError(t, repo.Set(ctx, "aclue_notifications", "[]"))
	client.AssertExpectations(t)
}

func TestRepositoryRedis_RemovePrefixesAllKeys(t *testing.T) {
	ctx := context.Background()
	client := mock.NewMockRedisClient()
	repo := NewRepositoryRedis(client, "aclue:", 0)

	client.On("Del", ctx, []string{"aclue:a", "aclue:b", "aclue:c"}).
		Return(redis2.NewIntResult(2, nil)).
		Once()

	require.NoError(t, repo.Remove(ctx, "a", "b", "c"))
	require.NoError(t, repo.Remove(ctx))

	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "Del", 1)
}
