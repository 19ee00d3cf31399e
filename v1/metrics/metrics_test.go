package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/milvus-adapter/v1/observability"
)

func TestObserveOperation(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "test"})

	m.ObserveOperation(observability.OperationContext{
		Component: "milvus", Operation: "search", Duration: 20 * time.Millisecond, Size: 10,
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "milvus", Operation: "search", Duration: time.Millisecond, Error: errors.New("boom"),
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "milvus", Operation: "insert", Size: 3,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("milvus", "search", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("milvus", "search", statusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("milvus", "insert", statusSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.operationDuration))
	assert.Equal(t, 2, testutil.CollectAndCount(m.operationSize))
}

func TestServiceLabelAndNamespace(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "milvusctl", Namespace: "search"})
	m.ObserveOperation(observability.OperationContext{Component: "milvus", Operation: "query"})

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() != "search_operations_total" {
			continue
		}
		found = true
		labels := map[string]string{}
		for _, l := range f.GetMetric()[0].GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, "milvusctl", labels["service"])
		assert.Equal(t, "query", labels["operation"])
	}
	assert.True(t, found)
}

func TestCustomMetrics(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "test"})

	c := m.CreateCounter("reindex_total", "reindex runs", []string{"collection"})
	c.WithLabelValues("docs").Add(2)
	g := m.CreateGauge("rows", "rows loaded", []string{"collection"})
	g.WithLabelValues("docs").Set(5)
	h := m.CreateHistogram("batch_size", "rows per batch", nil, []float64{1, 10})
	h.WithLabelValues().Observe(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.WithLabelValues("docs")))
	assert.Equal(t, 5.0, testutil.ToFloat64(g.WithLabelValues("docs")))
	assert.Equal(t, 1, testutil.CollectAndCount(h))
	assert.Panics(t, func() { m.CreateCounter("reindex_total", "again", []string{"collection"}) })
}

func TestHandlerServesMetrics(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "test", EnableDefaultCollectors: true})
	assert.Equal(t, DefaultMetricsAddress, m.Server.Addr)
	m.ObserveOperation(observability.OperationContext{Component: "milvus", Operation: "delete"})

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `operations_total{component="milvus",operation="delete",service="test",status="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestFXModule(t *testing.T) {
	var (
		m        *Metrics
		observer observability.Observer
		iface    MetricsCollector
	)
	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() Config { return Config{Address: "127.0.0.1:0", ServiceName: "fx"} }),
		fx.Populate(&m, &observer, &iface),
	)
	app.RequireStart()
	assert.Same(t, m, observer)
	assert.Same(t, m, iface)
	app.RequireStop()
}
