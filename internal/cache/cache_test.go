package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyscraper-platform/pkg/metrics"
)

// fakeRedis keeps values in memory and remembers the last TTL it was given
type fakeRedis struct {
	values  map[string]string
	lastTTL time.Duration
	failGet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = string(value.([]byte))
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error { return nil }

type entry struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	collector := metrics.NewCollectorWithRegistry("test", prometheus.NewRegistry())
	c := newRedisCache(fake, 5*time.Minute, collector)

	var got entry
	found, err := c.Get(ctx, "city:chicago", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "city:chicago", entry{Name: "Chicago", Rating: 20}))
	assert.Equal(t, 5*time.Minute, fake.lastTTL)
	assert.Contains(t, fake.values, "skyscraper:city:chicago")

	found, err = c.Get(ctx, "city:chicago", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry{Name: "Chicago", Rating: 20}, got)

	fake.values["skyscraper:broken"] = "{not json"
	_, err = c.Get(ctx, "broken", &got)
	assert.Error(t, err)

	fake.failGet = errors.New("connection refused")
	found, err = c.Get(ctx, "city:chicago", &got)
	assert.False(t, found)
	assert.ErrorContains(t, err, "connection refused")

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.CacheRequestsTotal.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.CacheRequestsTotal.WithLabelValues("miss")))
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.CacheRequestsTotal.WithLabelValues("error")))

	assert.NoError(t, c.Ping(ctx))
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Name: "x"}))
	var got entry
	found, err := c.Get(ctx, "k", &got)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Close())
}
