// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Inference InferenceConfig `mapstructure:"inference"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	Report    ReportConfig    `mapstructure:"report"`
	Importer  ImporterConfig  `mapstructure:"importer"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	BodyLimit       string   `mapstructure:"body_limit"`
}

// Address returns host:port for the listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver         string      `mapstructure:"driver"` // postgres | mysql | sqlite
	DSN            string      `mapstructure:"dsn"`
	Host           string      `mapstructure:"host"`
	Port           int         `mapstructure:"port"`
	Database       string      `mapstructure:"database"`
	User           string      `mapstructure:"user"`
	Password       string      `mapstructure:"password"`
	SSLMode        string      `mapstructure:"sslmode"`
	MaxConnections int         `mapstructure:"max_connections"`
	MaxIdle        int         `mapstructure:"max_idle"`
	Table          string      `mapstructure:"table"`
	RoleColumn     string      `mapstructure:"role_column"`
	ContextColumn  string      `mapstructure:"context_column"`
	Redis          RedisConfig `mapstructure:"redis"`
}

// GetDSN returns the driver-specific connection string. An explicit DSN wins.
func (d DatabaseConfig) GetDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			d.User, d.Password, d.Host, d.Port, d.Database)
	case "sqlite":
		return d.Database
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
		)
	}
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls the Redis read-through cache in front of the role store.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TTL       int    `mapstructure:"ttl"` // milliseconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

// --- Domain Configuration Sections ---

// InferenceConfig describes the model-serving endpoint and the models compared per request.
type InferenceConfig struct {
	Backend        string        `mapstructure:"backend"` // ollama | eino
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        int           `mapstructure:"timeout"` // milliseconds
	MaxTokens      int           `mapstructure:"max_tokens"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Models         []ModelConfig `mapstructure:"models"`
}

// ModelConfig names one model taking part in a comparison.
type ModelConfig struct {
	ID    string `mapstructure:"id"`
	Label string `mapstructure:"label"`
}

// PromptConfig holds the composer options offered to the front end.
type PromptConfig struct {
	Formats            []string `mapstructure:"formats"`
	Styles             []string `mapstructure:"styles"`
	ClosingInstruction string   `mapstructure:"closing_instruction"`
	DisableClosing     bool     `mapstructure:"disable_closing"`
}

// ReportConfig holds settings for report downloads and the PDF renderer.
type ReportConfig struct {
	Title          string `mapstructure:"title"`
	FilenamePrefix string `mapstructure:"filename_prefix"`
	Renderer       string `mapstructure:"renderer"` // wkhtmltopdf | chromium | none
	Binary         string `mapstructure:"binary"`
	Timeout        int    `mapstructure:"timeout"` // milliseconds
}

// ImporterConfig holds defaults for the role-importer tool.
type ImporterConfig struct {
	File  string `mapstructure:"file"`
	Sheet string `mapstructure:"sheet"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
