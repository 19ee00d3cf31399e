package milvus

import (
	"fmt"
	"strings"
	"time"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
)

// Config holds connection and behavior settings for the Milvus client.
//
// Example (programmatic):
//
//	cfg := milvus.DefaultConfig()
//	cfg.Endpoint = "milvus.internal"
//	cfg.Timeout = 10 * time.Second
//
// Example (builder style):
//
//	cfg := milvus.FromEndpoint("milvus.internal").
//	    WithDBName("search").
//	    WithTimeout(10 * time.Second)
type Config struct {
	// Hostname of the Milvus proxy, e.g. "localhost".
	Endpoint string `yaml:"endpoint" env:"MILVUS_ENDPOINT"`

	// gRPC port of the Milvus proxy. Defaults to 19530.
	Port int `yaml:"port" env:"MILVUS_PORT"`

	// Database requests run against when they name none. Empty is the
	// server's "default" database.
	DBName string `yaml:"db_name" env:"MILVUS_DB_NAME"`

	// Optional credentials for deployments with authentication enabled.
	Username string `yaml:"username" env:"MILVUS_USERNAME"`
	Password string `yaml:"password" env:"MILVUS_PASSWORD"`

	// Maximum duration of one operation, including its describe calls.
	// Zero means no per-operation deadline.
	Timeout time.Duration `yaml:"timeout" env:"MILVUS_TIMEOUT"`

	// Deadline of the health check performed while connecting.
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"MILVUS_CONNECT_TIMEOUT"`

	// Send gRPC keepalive pings on idle connections.
	KeepAlive bool `yaml:"keep_alive" env:"MILVUS_KEEP_ALIVE"`

	// Interval between keepalive pings.
	KeepAliveTime time.Duration `yaml:"keep_alive_time" env:"MILVUS_KEEP_ALIVE_TIME"`

	// Largest response message the client accepts, in bytes.
	MaxRecvMsgSize int `yaml:"max_recv_msg_size" env:"MILVUS_MAX_RECV_MSG_SIZE"`

	// Consistency level applied to queries and searches that set none:
	// "strong", "session", "bounded", "eventually" or empty for the
	// collection default.
	ConsistencyLevel string `yaml:"consistency_level" env:"MILVUS_CONSISTENCY_LEVEL"`

	// Maximum number of searches SearchBatch runs concurrently.
	SearchConcurrency int `yaml:"search_concurrency" env:"MILVUS_SEARCH_CONCURRENCY"`

	// Client-side limit on operations per second, shared by all goroutines
	// using the client. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" env:"MILVUS_RATE_LIMIT"`

	// Operations allowed in a burst above RateLimit. Defaults to 1.
	RateBurst int `yaml:"rate_burst" env:"MILVUS_RATE_BURST"`

	// Whether NewClient verifies the server is healthy before returning.
	HealthCheck bool `yaml:"health_check" env:"MILVUS_HEALTH_CHECK"`

	// Logger is an optional logger from the v1/logger package.
	Logger Logger `yaml:"-"`
}

// Logger is an interface that matches the v1/logger.Logger method set.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Default values for configuration
const (
	DefaultEndpoint          = "localhost"
	DefaultPort              = 19530
	DefaultTimeout           = 30 * time.Second
	DefaultConnectTimeout    = 5 * time.Second
	DefaultKeepAliveTime     = 30 * time.Second
	DefaultMaxRecvMsgSize    = 64 << 20
	DefaultSearchConcurrency = 10
)

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:          DefaultEndpoint,
		Port:              DefaultPort,
		Timeout:           DefaultTimeout,
		ConnectTimeout:    DefaultConnectTimeout,
		KeepAlive:         true,
		KeepAliveTime:     DefaultKeepAliveTime,
		MaxRecvMsgSize:    DefaultMaxRecvMsgSize,
		SearchConcurrency: DefaultSearchConcurrency,
		HealthCheck:       true,
	}
}

// FromEndpoint returns a default config pre-filled with a specific endpoint.
func FromEndpoint(host string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = host
	return cfg
}

// Address returns the host:port the client dials.
func (c *Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", c.Endpoint, port)
}

// Builder-style helpers
func (c *Config) WithPort(port int) *Config {
	c.Port = port
	return c
}

func (c *Config) WithDBName(name string) *Config {
	c.DBName = name
	return c
}

func (c *Config) WithCredentials(username, password string) *Config {
	c.Username = username
	c.Password = password
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithConnectTimeout(d time.Duration) *Config {
	c.ConnectTimeout = d
	return c
}

func (c *Config) WithKeepAlive(enabled bool) *Config {
	c.KeepAlive = enabled
	return c
}

func (c *Config) WithConsistencyLevel(level string) *Config {
	c.ConsistencyLevel = level
	return c
}

func (c *Config) WithSearchConcurrency(n int) *Config {
	c.SearchConcurrency = n
	return c
}

func (c *Config) WithRateLimit(perSecond float64, burst int) *Config {
	c.RateLimit = perSecond
	c.RateBurst = burst
	return c
}

func (c *Config) WithHealthCheck(enabled bool) *Config {
	c.HealthCheck = enabled
	return c
}

// ParseConsistencyLevel maps a configured level name to its value.
// Names are case-insensitive; the empty string is ConsistencyDefault.
func ParseConsistencyLevel(name string) (vectordb.ConsistencyLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return vectordb.ConsistencyDefault, nil
	case "strong":
		return vectordb.ConsistencyStrong, nil
	case "session":
		return vectordb.ConsistencySession, nil
	case "bounded":
		return vectordb.ConsistencyBounded, nil
	case "eventually":
		return vectordb.ConsistencyEventually, nil
	}
	return vectordb.ConsistencyDefault, fmt.Errorf("[Milvus] unknown consistency level %q", name)
}
