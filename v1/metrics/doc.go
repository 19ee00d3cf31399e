// Package metrics provides Prometheus-based operation metrics.
//
// *Metrics implements observability.Observer. Attached to a client, every
// reported operation updates three series, all labelled with the constant
// "service" label:
//
//	operations_total{component, operation, status}   counter, status is success or error
//	operation_duration_seconds{component, operation} histogram
//	operation_size{component, operation}             histogram of rows or hits, successes only
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:     ":9090",
//		ServiceName: "milvusctl",
//	})
//	go m.Server.ListenAndServe()
//
//	client.WithObserver(m)
//
// # FX Module Integration
//
// FXModule provides *Metrics, MetricsCollector and observability.Observer.
// milvus.FXModule takes an optional Observer, so composing both modules is
// enough to instrument the Milvus client:
//
//	app := fx.New(
//		metrics.FXModule,
//		milvus.FXModule,
//		fx.Provide(func() metrics.Config { return metrics.Config{ServiceName: "milvusctl"} }),
//	)
//
// # Configuration
//
//	METRICS_ADDRESS=:9090
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true
//	METRICS_NAMESPACE=search
//	METRICS_SERVICE_NAME=milvusctl
//
// # Custom Metrics
//
// CreateCounter, CreateHistogram and CreateGauge register additional
// collectors on the same registry, under the same service label.
//
// # Thread Safety
//
// All methods on Metrics are safe for concurrent use by multiple goroutines.
package metrics
