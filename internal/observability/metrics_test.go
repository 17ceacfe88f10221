package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ArticleRelay/internal/domain"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordFetched(3)
	m.RecordSkipped()
	m.RecordPersisted()
	m.RecordPublished()
	m.RecordFailure(domain.Failed(domain.FailureDelivery, errors.New("boom")))
	m.RecordRun("poll", nil, time.Second)

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 7)
}

func TestRecordCounters(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())

	m.RecordFetched(3)
	m.RecordFetched(2)
	m.RecordSkipped()
	m.RecordPersisted()
	m.RecordPublished()

	assert.Equal(t, 5.0, testutil.ToFloat64(m.EntriesFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntriesSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArticlesPersisted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArticlesPublished))
}

func TestRecordFailureByKind(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())

	m.RecordFailure(domain.Succeeded())
	m.RecordFailure(domain.Failed(domain.FailureEnrichment, errors.New("403")))
	m.RecordFailure(domain.Failed(domain.FailureEnrichment, errors.New("timeout")))
	m.RecordFailure(domain.Failed(domain.FailurePersistence, errors.New("disk")))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemFailures.WithLabelValues("enrichment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemFailures.WithLabelValues("persistence")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ItemFailures))
}

func TestRecordRun(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRun("poll", nil, 2*time.Second)
	m.RecordRun("poll", errors.New("feed down"), time.Second)
	m.RecordRun("export", nil, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("poll", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("poll", StatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("export", StatusSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RunDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFetched(1)
		m.RecordSkipped()
		m.RecordPersisted()
		m.RecordPublished()
		m.RecordFailure(domain.Failed(domain.FailureSource, errors.New("x")))
		m.RecordRun("poll", nil, time.Second)
	})
}
