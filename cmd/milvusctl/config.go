package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Aleph-Alpha/milvus-adapter/v1/embedding"
	"github.com/Aleph-Alpha/milvus-adapter/v1/logger"
	"github.com/Aleph-Alpha/milvus-adapter/v1/metrics"
	"github.com/Aleph-Alpha/milvus-adapter/v1/milvus"
	"github.com/Aleph-Alpha/milvus-adapter/v1/tracer"
)

const envPrefix = "MILVUSCTL"

// appConfig is the milvusctl configuration file layout.
type appConfig struct {
	Milvus    milvus.Config    `yaml:"milvus"`
	Logger    logger.Config    `yaml:"logger"`
	Tracer    tracer.Config    `yaml:"tracer"`
	Metrics   metricsConfig    `yaml:"metrics"`
	Embedding embedding.Config `yaml:"embedding"`
}

// metricsConfig serves /metrics for the lifetime of the command when Enabled.
type metricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	metrics.Config `yaml:",squash"`
}

// setDefaults registers every key, so that AutomaticEnv can override keys
// missing from the config file.
func setDefaults(v *viper.Viper) {
	d := milvus.DefaultConfig()
	v.SetDefault("milvus.endpoint", d.Endpoint)
	v.SetDefault("milvus.port", d.Port)
	v.SetDefault("milvus.db_name", d.DBName)
	v.SetDefault("milvus.username", "")
	v.SetDefault("milvus.password", "")
	v.SetDefault("milvus.timeout", d.Timeout)
	v.SetDefault("milvus.connect_timeout", d.ConnectTimeout)
	v.SetDefault("milvus.keep_alive", d.KeepAlive)
	v.SetDefault("milvus.keep_alive_time", d.KeepAliveTime)
	v.SetDefault("milvus.max_recv_msg_size", d.MaxRecvMsgSize)
	v.SetDefault("milvus.consistency_level", d.ConsistencyLevel)
	v.SetDefault("milvus.search_concurrency", d.SearchConcurrency)
	v.SetDefault("milvus.rate_limit", d.RateLimit)
	v.SetDefault("milvus.rate_burst", d.RateBurst)
	v.SetDefault("milvus.health_check", d.HealthCheck)

	v.SetDefault("logger.level", logger.Warning)
	v.SetDefault("logger.service_name", "milvusctl")
	v.SetDefault("logger.enable_tracing", false)

	v.SetDefault("tracer.service_name", "milvusctl")
	v.SetDefault("tracer.app_env", "")
	v.SetDefault("tracer.enable_export", false)
	v.SetDefault("tracer.endpoint", "")
	v.SetDefault("tracer.insecure", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", metrics.DefaultMetricsAddress)
	v.SetDefault("metrics.enable_default_collectors", true)
	v.SetDefault("metrics.namespace", "")
	v.SetDefault("metrics.service_name", "milvusctl")

	v.SetDefault("embedding.endpoint", "")
	v.SetDefault("embedding.token", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.http_timeout", embedding.DefaultHTTPTimeout)
}

// globalFlags returns the flags shared by every command. Each one overrides
// the config key it is bound to.
func globalFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("milvusctl", pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("endpoint", "", "Milvus proxy host")
	fs.Int("port", 0, "Milvus proxy gRPC port")
	fs.String("db", "", "database name")
	fs.String("log-level", "", "log level (debug, info, warning, error)")
	return fs
}

var flagKeys = map[string]string{
	"endpoint":  "milvus.endpoint",
	"port":      "milvus.port",
	"db":        "milvus.db_name",
	"log-level": "logger.level",
}

// loadConfig merges, from lowest to highest precedence, defaults, the config
// file, MILVUSCTL_* environment variables and explicitly set flags.
//
// Without --config a "milvusctl.yaml" is looked up in the working directory
// and in $HOME/.config/milvusctl; a missing file is not an error.
func loadConfig(fs *pflag.FlagSet) (*appConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	path, _ := fs.GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("milvusctl")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/milvusctl")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg appConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if _, err := milvus.ParseConsistencyLevel(cfg.Milvus.ConsistencyLevel); err != nil {
		return nil, err
	}
	return &cfg, nil
}
