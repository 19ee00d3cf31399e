// Package logger provides structured logging on top of Uber's zap.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - Logger interface: Defines the contract for logging operations
//   - LoggerClient struct: Concrete implementation of the Logger interface
//   - NewLoggerClient constructor: Returns *LoggerClient (concrete type)
//   - FX module: Provides both *LoggerClient and Logger interface for dependency injection
//
// Every method takes a message, an optional error and optional field maps:
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       "info",
//		ServiceName: "milvusctl",
//	})
//
//	log.Info("Search finished", nil, map[string]interface{}{
//		"collection": "docs",
//		"hits":       10,
//	})
//
// *LoggerClient satisfies milvus.Logger, so it can be handed to the Milvus
// client directly or picked up by milvus.FXModule:
//
//	app := fx.New(
//		logger.FXModule,
//		milvus.FXModule,
//		fx.Provide(
//			func() logger.Config { return logger.Config{Level: "debug"} },
//			func(l *logger.LoggerClient) milvus.Logger { return l },
//		),
//	)
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug          # Log level (debug, info, warning, error)
//	LOGGER_SERVICE_NAME=milvusctl   # Value of the "service" field
//	LOGGER_ENABLE_TRACING=true      # Enable distributed tracing integration
//
// # Tracing Integration
//
// When EnableTracing is set, the *WithContext methods add the OpenTelemetry
// trace_id and span_id of the span carried by the context:
//
//	ctx, span := tracer.StartSpan(ctx, "reindex")
//	defer span.End()
//	log.InfoWithContext(ctx, "Reindex started", nil, nil)
//
// # Thread Safety
//
// All methods on the Logger interface are safe for concurrent use by multiple
// goroutines.
package logger
