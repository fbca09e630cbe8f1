package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDatabaseOperation_Outcome(t *testing.T) {
	okBefore := testutil.ToFloat64(DatabaseOperationsTotal.WithLabelValues("find_by_id", "user", "ok"))
	errBefore := testutil.ToFloat64(DatabaseOperationsTotal.WithLabelValues("find_by_id", "user", "error"))

	RecordDatabaseOperation("find_by_id", "user", time.Millisecond, nil)
	RecordDatabaseOperation("find_by_id", "user", time.Millisecond, errors.New("falha"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(DatabaseOperationsTotal.WithLabelValues("find_by_id", "user", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(DatabaseOperationsTotal.WithLabelValues("find_by_id", "user", "error")))
}

func TestRecordHttpRequest(t *testing.T) {
	before := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/user/", "200"))

	RecordHttpRequest("GET", "/user/", "200", 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/user/", "200")))
}

func TestCacheCounters(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits)
	misses := testutil.ToFloat64(CacheMisses)

	RecordCacheHit()
	RecordCacheMiss()
	RecordCacheMiss()

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheHits))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheMisses))
}
