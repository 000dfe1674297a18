package rolestore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"art-of-prompting/internal/common/config"
	"art-of-prompting/internal/common/database"
	apperrors "art-of-prompting/internal/common/errors"
)

// countingStore is an in-memory Store that records how often it is hit.
type countingStore struct {
	roles       map[string]string
	getCalls    int
	listCalls   int
	sortedRoles []string
}

func (s *countingStore) GetContext(_ context.Context, title string) (string, error) {
	s.getCalls++
	desc, ok := s.roles[title]
	if !ok {
		return "", apperrors.NewRoleNotFoundError(title)
	}
	return desc, nil
}

func (s *countingStore) ListRoles(_ context.Context) ([]string, error) {
	s.listCalls++
	return s.sortedRoles, nil
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rc, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func newCountingStore() *countingStore {
	return &countingStore{
		roles:       map[string]string{"Chef": "Cooks", "Data Scientist": "Analyzes data to find patterns"},
		sortedRoles: []string{"Chef", "Data Scientist"},
	}
}

func TestCachedStore_GetContext_ReadThrough(t *testing.T) {
	mr, rc := setupRedis(t)
	backing := newCountingStore()
	store := NewCachedStore(backing, rc, time.Minute, "aop:", createTestLogger(t))
	ctx := context.Background()

	got, err := store.GetContext(ctx, "Data Scientist")
	require.NoError(t, err)
	assert.Equal(t, "Analyzes data to find patterns", got)
	assert.Equal(t, 1, backing.getCalls)

	cached, err := mr.Get("aop:role:Data Scientist")
	require.NoError(t, err)
	assert.Equal(t, "Analyzes data to find patterns", cached)

	got, err = store.GetContext(ctx, "Data Scientist")
	require.NoError(t, err)
	assert.Equal(t, "Analyzes data to find patterns", got)
	assert.Equal(t, 1, backing.getCalls, "second lookup should be served from redis")
}

func TestCachedStore_GetContext_NotFoundIsNotCached(t *testing.T) {
	mr, rc := setupRedis(t)
	backing := newCountingStore()
	store := NewCachedStore(backing, rc, time.Minute, "aop:", createTestLogger(t))

	for i := 0; i < 2; i++ {
		_, err := store.GetContext(context.Background(), "Pirate")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRoleNotFound))
	}
	assert.Equal(t, 2, backing.getCalls)
	assert.False(t, mr.Exists("aop:role:Pirate"))
}

func TestCachedStore_FallsThroughWhenRedisDown(t *testing.T) {
	mr, rc := setupRedis(t)
	backing := newCountingStore()
	store := NewCachedStore(backing, rc, time.Minute, "aop:", createTestLogger(t))
	mr.Close()

	got, err := store.GetContext(context.Background(), "Chef")
	require.NoError(t, err)
	assert.Equal(t, "Cooks", got)

	roles, err := store.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Chef", "Data Scientist"}, roles)
}

func TestCachedStore_ListRolesAndInvalidate(t *testing.T) {
	mr, rc := setupRedis(t)
	backing := newCountingStore()
	store := NewCachedStore(backing, rc, time.Minute, "aop:", createTestLogger(t))
	ctx := context.Background()

	_, err := store.ListRoles(ctx)
	require.NoError(t, err)
	roles, err := store.ListRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chef", "Data Scientist"}, roles)
	assert.Equal(t, 1, backing.listCalls)
	assert.True(t, mr.Exists("aop:roles"))

	_, err = store.GetContext(ctx, "Chef")
	require.NoError(t, err)

	removed, err := store.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.ListRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.listCalls)
}
