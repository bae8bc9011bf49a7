package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/domain/repository"
)

var _ repository.SessionRepository = (*SessionStore)(nil)

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	s := &SessionStore{client: fake, key: DefaultKey, ttl: 12 * time.Hour}

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, domainErrors.ErrNotFound)

	rec := model.SessionRecord{
		ID:        "s-9",
		Principal: model.Principal{ID: 9, Username: "trainee1", Role: model.RoleTrainee},
		Token:     "tok",
		SavedAt:   time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, rec))
	assert.Equal(t, 12*time.Hour, fake.ttls[DefaultKey])
	assert.JSONEq(t,
		`{"id":"s-9","userId":9,"username":"trainee1","role":"trainee","token":"tok","savedAt":"2026-10-15T07:00:00Z"}`,
		fake.values[DefaultKey])

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, domainErrors.ErrNotFound)
	require.NoError(t, s.Close())
}

func TestSessionStoreErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	s := &SessionStore{client: fake, key: DefaultKey}

	fake.values[DefaultKey] = "{not json"
	_, err := s.Load(ctx)
	require.Error(t, err)

	fake.err = errors.New("connection reset")
	_, err = s.Load(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domainErrors.ErrNotFound))
	assert.Error(t, s.Save(ctx, model.SessionRecord{}))
	assert.Error(t, s.Clear(ctx))
}
