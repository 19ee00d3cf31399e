package embedding

import (
	"fmt"
	"time"
)

// DefaultHTTPTimeout bounds one embeddings request when Config.HTTPTimeout is zero.
const DefaultHTTPTimeout = 30 * time.Second

// Config points the client at an OpenAI-compatible inference service.
//
// Endpoint is the root of the service; the client appends "/embeddings".
type Config struct {
	Endpoint    string        `yaml:"endpoint" envconfig:"EMBEDDING_ENDPOINT"`
	Token       string        `yaml:"token" envconfig:"EMBEDDING_SERVICE_TOKEN"`
	Model       string        `yaml:"model" envconfig:"EMBEDDING_MODEL"`
	HTTPTimeout time.Duration `yaml:"http_timeout" envconfig:"EMBEDDING_HTTP_TIMEOUT"`
}

// Validate ensures required fields are present.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("embedding: missing endpoint")
	}
	if c.Model == "" {
		return fmt.Errorf("embedding: missing model")
	}
	return nil
}
