package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStore("product.reload", 1, "ok", time.Millisecond)
		m.IncStoreRetry("product.reload", "busy")
		m.IncStoreFailure("product.reload", "fatal")
		m.IncReconnect()
		m.IncCacheLookup("product", "hit")
		m.SetCacheSize("product", 3)
		m.AddReconcile("inserted", 2)
		m.IncHierarchyWarning("cycle")
		m.AddImported("product", 1)
	})
	assert.Nil(t, m.Registry())
	assert.Nil(t, Init(false))
}

func TestMetricsCount(t *testing.T) {
	m := New()
	m.IncStoreRetry("hierarchy.reconcile", "busy")
	m.IncStoreRetry("hierarchy.reconcile", "busy")
	m.IncReconnect()
	m.SetCacheSize("product", 7)
	m.AddReconcile("deleted", 0)
	m.AddReconcile("inserted", 3)
	m.IncHierarchyWarning("cycle")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeRetries.WithLabelValues("hierarchy.reconcile", "busy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeReconnects))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.cacheSize.WithLabelValues("product")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconcileChanges.WithLabelValues("inserted")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.reconcileChanges))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hierarchyWarnings.WithLabelValues("cycle")))
}
