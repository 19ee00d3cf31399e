package milvus

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"github.com/Aleph-Alpha/milvus-adapter/v1/observability"
	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
)

//
// ──────────────────────────────────────────────────────────────
//   MILVUS CLIENT
// ──────────────────────────────────────────────────────────────
//
// Client executes logical vectordb requests against a Milvus server.
// Every operation describes the target collection first, so omitted
// parameters (vector field, output fields, metric type) always reflect the
// live schema and index. Nothing is cached between calls.
//

const tracerName = "github.com/Aleph-Alpha/milvus-adapter/v1/milvus"

// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	api  Service
	conn *grpc.ClientConn
	cfg  Config

	consistency vectordb.ConsistencyLevel

	// logger is used for structured logging
	logger Logger

	// observer provides optional observability hooks for tracking operations
	observer observability.Observer

	// limiter is nil unless cfg.RateLimit is set
	limiter *rate.Limiter

	tracer trace.Tracer
	closed atomic.Bool
}

var _ vectordb.Service = (*Client)(nil)

// NewClient ──────────────────────────────────────────────────────────────
// NewClient
// ──────────────────────────────────────────────────────────────
//
// NewClient dials the Milvus proxy at cfg.Address() and, when
// cfg.HealthCheck is set, verifies the server is healthy before returning.
//
// grpc.NewClient connects lazily, so the health check is what makes an
// unreachable server fail here rather than on the first operation.
//
// Example:
//
//	client, err := milvus.NewClient(*milvus.FromEndpoint("localhost"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("[Milvus] endpoint is required")
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if cfg.MaxRecvMsgSize > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize)))
	}
	if cfg.KeepAlive {
		interval := cfg.KeepAliveTime
		if interval <= 0 {
			interval = DefaultKeepAliveTime
		}
		opts = append(opts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                interval,
			Timeout:             interval / 3,
			PermitWithoutStream: true,
		}))
	}
	if headers := requestHeaders(cfg); len(headers) > 0 {
		opts = append(opts, grpc.WithUnaryInterceptor(headerInterceptor(headers)))
	}

	conn, err := grpc.NewClient(cfg.Address(), opts...)
	if err != nil {
		return nil, fmt.Errorf("[Milvus] failed to initialize client: %w", err)
	}

	c, err := NewClientWithService(milvuspb.NewMilvusServiceClient(conn), cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.conn = conn

	if cfg.HealthCheck {
		ctx := context.Background()
		if cfg.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
		}
		if err := c.HealthCheck(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	c.logInfo("Milvus client connected", map[string]interface{}{"address": cfg.Address(), "db": cfg.DBName})
	return c, nil
}

// NewClientWithService builds a client on top of an existing Service
// implementation, such as a shared milvuspb.MilvusServiceClient or a mock.
// It performs no network calls.
func NewClientWithService(api Service, cfg Config) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("[Milvus] service is required")
	}
	level, err := ParseConsistencyLevel(cfg.ConsistencyLevel)
	if err != nil {
		return nil, err
	}
	if cfg.SearchConcurrency <= 0 {
		cfg.SearchConcurrency = DefaultSearchConcurrency
	}

	c := &Client{
		api:         api,
		cfg:         cfg,
		consistency: level,
		logger:      cfg.Logger,
		tracer:      otel.Tracer(tracerName),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// requestHeaders returns the metadata Milvus reads the database and
// credentials from.
func requestHeaders(cfg Config) map[string]string {
	headers := make(map[string]string)
	if cfg.DBName != "" {
		headers["dbname"] = cfg.DBName
	}
	if cfg.Username != "" {
		headers["authorization"] = base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
	}
	return headers
}

func headerInterceptor(headers map[string]string) grpc.UnaryClientInterceptor {
	pairs := make([]string, 0, 2*len(headers))
	for k, v := range headers {
		pairs = append(pairs, k, v)
	}
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(metadata.AppendToOutgoingContext(ctx, pairs...), method, req, reply, cc, opts...)
	}
}

// HealthCheck reports an error unless the server answers healthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	resp, err := c.api.CheckHealth(ctx, &milvuspb.CheckHealthRequest{})
	if err != nil {
		return fmt.Errorf("[Milvus] health check failed: %w", err)
	}
	if err := checkStatus("check_health", "", resp.GetStatus()); err != nil {
		return err
	}
	if !resp.GetIsHealthy() {
		return fmt.Errorf("[Milvus] server is unhealthy: %s", strings.Join(resp.GetReasons(), "; "))
	}
	return nil
}

// Service returns the underlying gRPC service.
// This is useful for calls the client does not wrap, such as collection management.
func (c *Client) Service() Service {
	return c.api
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Close releases the gRPC connection. Operations on a closed client return
// ErrClosed. Closing twice is a no-op.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.logInfo("Closing Milvus client", nil)
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("[Milvus] failed to close connection: %w", err)
		}
	}
	return nil
}

// WithObserver sets the observer for this client and returns the client for method chaining.
// The observer receives events about Milvus operations (e.g., insert, search, query).
//
// Example:
//
//	client := client.WithObserver(myObserver).WithLogger(myLogger)
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

func (c *Client) logInfo(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, nil, fields)
	}
}

func (c *Client) logDebug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, nil, fields)
	}
}

func (c *Client) logError(msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Error(msg, err, fields)
	}
}
