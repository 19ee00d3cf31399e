// Package tracer provides distributed tracing on top of OpenTelemetry.
//
// NewClient builds a TracerProvider, optionally exporting to an OTLP/HTTP
// collector, and installs it with the W3C trace context propagator as the
// OpenTelemetry globals. The Milvus client opens its spans through the global
// provider, so once a Tracer exists every adapter call shows up as a client
// span with db.system, db.operation and db.collection.name attributes.
//
// Basic usage:
//
//	tr, err := tracer.NewClient(tracer.Config{ServiceName: "milvusctl"}, log)
//	if err != nil {
//		return err
//	}
//	defer tr.Shutdown(ctx)
//
//	ctx, span := tr.StartSpan(ctx, "reindex")
//	defer span.End()
//
// # Propagation
//
// GetCarrier and SetCarrierOnContext move the trace context across process
// boundaries as a plain string map:
//
//	headers := tr.GetCarrier(ctx)
//	// ... on the receiving side
//	ctx = tr.SetCarrierOnContext(ctx, headers)
//
// # Configuration
//
//	TRACER_SERVICE_NAME=milvusctl
//	APP_ENV=production
//	TRACER_ENABLE_EXPORT=true
//	TRACER_ENDPOINT=otel-collector:4318
//	TRACER_INSECURE=true
package tracer
