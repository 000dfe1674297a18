// internal/modelclient/config.go
package modelclient

import (
	"time"

	"art-of-prompting/internal/common/config"
)

const (
	BackendOllama = "ollama"
	BackendEino   = "eino"
)

type Config struct {
	Backend     string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// NewConfig adapts the application configuration.
func NewConfig(c config.InferenceConfig) *Config {
	return &Config{
		Backend:     c.Backend,
		BaseURL:     c.BaseURL,
		Timeout:     config.GetDuration(c.Timeout),
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}
