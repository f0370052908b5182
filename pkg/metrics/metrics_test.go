package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectorWithRegistry("test", reg)

	c.RecordAPIRequest("/api/world", "GET", "200")
	c.RecordAPIRequest("/api/world", "GET", "200")
	c.RecordScrapedCity("saved", 12)
	c.RecordScrapedCity("empty", 0)
	c.RecordDocumentsLoaded("file", 3)
	c.RecordCacheResult("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/api/world", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ScrapeCitiesTotal.WithLabelValues("saved")))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.ScrapeTowersTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.DocumentsLoadedTotal.WithLabelValues("file")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheRequestsTotal.WithLabelValues("hit")))

	// a second collector on its own registry must not collide
	require.NotPanics(t, func() { NewCollectorWithRegistry("test", prometheus.NewRegistry()) })
}

func TestTimer(t *testing.T) {
	c := NewCollectorWithRegistry("timer", prometheus.NewRegistry())
	timer := c.NewTimer(c.RankingBuildDuration.WithLabelValues("world"))
	assert.GreaterOrEqual(t, timer.ObserveDuration().Nanoseconds(), int64(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.RankingBuildDuration))
}
