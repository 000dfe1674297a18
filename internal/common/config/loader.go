// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultClosingInstruction is appended after the Task section unless disabled.
const DefaultClosingInstruction = "Please produce a complete, well-structured response for the task above. " +
	"Label sections clearly if appropriate and keep responses within reasonable length."

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml on top,
// then applies environment overrides, defaults and validation.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)
	applyLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found from the working directory upwards.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyLegacyEnv lets the variables the desktop tool has always read win over
// the config file. INFERENCE_MODELS must be set here: AutomaticEnv would
// otherwise hand its raw string to the models list and fail decoding.
func applyLegacyEnv(v *viper.Viper) {
	for env, key := range map[string]string{
		"OLLAMA_HOST":    "inference.base_url",
		"CONTEXT_TABLE":  "database.table",
		"ROLE_COLUMN":    "database.role_column",
		"CONTEXT_COLUMN": "database.context_column",
	} {
		if val := strings.TrimSpace(os.Getenv(env)); val != "" {
			v.Set(key, val)
		}
	}

	// an empty variable is ignored by AutomaticEnv as well
	if val := os.Getenv("INFERENCE_MODELS"); val != "" {
		models := make([]map[string]interface{}, 0)
		for _, m := range ParseModelList(val) {
			models = append(models, map[string]interface{}{"id": m.ID, "label": m.Label})
		}
		v.Set("inference.models", models)
	}
}

// overrideEmptyConfig fills values the config file left empty from the
// environment.
func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("DATABASE_URL"); val != "" && cfg.Database.DSN == "" {
		cfg.Database.DSN = val
	}
	if cfg.Database.User == "" {
		cfg.Database.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Password == "" {
		cfg.Database.Password = os.Getenv("DB_PASSWORD")
	}
	if val := os.Getenv("KCOMP_PATH"); val != "" && cfg.Importer.File == "" {
		cfg.Importer.File = val
	}
}

// ParseModelList parses "id=Label,id2=Label2". A missing label falls back to the id.
func ParseModelList(raw string) []ModelConfig {
	var out []ModelConfig
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, label, found := strings.Cut(item, "=")
		id = strings.TrimSpace(id)
		label = strings.TrimSpace(label)
		if !found || label == "" {
			label = id
		}
		out = append(out, ModelConfig{ID: id, Label: label})
	}
	return out
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "art-of-prompting"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 180000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "2M"
	}

	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" && cfg.Database.Database == "" {
		cfg.Database.Database = "art_of_prompting.db"
	}
	if cfg.Database.Port == 0 {
		switch cfg.Database.Driver {
		case "postgres":
			cfg.Database.Port = 5432
		case "mysql":
			cfg.Database.Port = 3306
		}
	}
	if cfg.Database.MaxConnections == 0 {
		cfg.Database.MaxConnections = 10
	}
	if cfg.Database.MaxIdle == 0 {
		cfg.Database.MaxIdle = 2
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Table == "" {
		cfg.Database.Table = "role_contexts"
	}
	if cfg.Database.RoleColumn == "" {
		cfg.Database.RoleColumn = "role"
	}
	if cfg.Database.ContextColumn == "" {
		cfg.Database.ContextColumn = "context"
	}

	// Cache defaults
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 300000
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "aop:"
	}

	// Inference defaults
	if cfg.Inference.Backend == "" {
		cfg.Inference.Backend = "ollama"
	}
	if cfg.Inference.BaseURL == "" {
		cfg.Inference.BaseURL = "http://localhost:11434"
	}
	cfg.Inference.BaseURL = strings.TrimRight(cfg.Inference.BaseURL, "/")
	if cfg.Inference.Timeout == 0 {
		cfg.Inference.Timeout = 60000
	}
	if cfg.Inference.MaxTokens == 0 {
		cfg.Inference.MaxTokens = 800
	}
	if cfg.Inference.MaxConcurrency == 0 {
		cfg.Inference.MaxConcurrency = 4
	}
	if len(cfg.Inference.Models) == 0 {
		cfg.Inference.Models = []ModelConfig{
			{ID: envOr("MISTRAL_MODEL", "mistral:latest"), Label: "Mistral"},
			{ID: envOr("QWEN_MODEL", "qwen3:4b"), Label: "Qwen"},
		}
	}
	for i, m := range cfg.Inference.Models {
		if m.Label == "" {
			cfg.Inference.Models[i].Label = m.ID
		}
	}

	// Prompt defaults
	if len(cfg.Prompt.Formats) == 0 {
		cfg.Prompt.Formats = []string{
			"Research report", "Project report", "Blog post", "Email",
			"Code", "Presentation outline", "Bullet summary",
		}
	}
	if len(cfg.Prompt.Styles) == 0 {
		cfg.Prompt.Styles = []string{"Professional", "Casual", "Funky", "Academic", "Concise", "Humorous"}
	}
	if cfg.Prompt.ClosingInstruction == "" && !cfg.Prompt.DisableClosing {
		cfg.Prompt.ClosingInstruction = DefaultClosingInstruction
	}

	// Report defaults
	if cfg.Report.Title == "" {
		cfg.Report.Title = "Art Of Prompting - Report"
	}
	if cfg.Report.FilenamePrefix == "" {
		cfg.Report.FilenamePrefix = "art_of_prompting_report"
	}
	if cfg.Report.Renderer == "" {
		cfg.Report.Renderer = "wkhtmltopdf"
	}
	if cfg.Report.Timeout == 0 {
		cfg.Report.Timeout = 60000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Database.Driver {
	case "postgres", "mysql":
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return fmt.Errorf("database.host or database.dsn is required for driver %s", cfg.Database.Driver)
		}
	case "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", cfg.Database.Driver)
	}

	for name, ident := range map[string]string{
		"database.table":          cfg.Database.Table,
		"database.role_column":    cfg.Database.RoleColumn,
		"database.context_column": cfg.Database.ContextColumn,
	} {
		if !identifierPattern.MatchString(ident) {
			return fmt.Errorf("%s %q is not a valid identifier", name, ident)
		}
	}

	if cfg.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when cache is enabled")
	}

	switch cfg.Inference.Backend {
	case "ollama", "eino":
	default:
		return fmt.Errorf("inference.backend %q is not supported", cfg.Inference.Backend)
	}

	u, err := url.Parse(cfg.Inference.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("inference.base_url %q is not a valid URL", cfg.Inference.BaseURL)
	}

	seen := make(map[string]bool, len(cfg.Inference.Models))
	for _, m := range cfg.Inference.Models {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("inference.models entries require an id")
		}
		if seen[m.ID] {
			return fmt.Errorf("inference.models contains %q twice", m.ID)
		}
		seen[m.ID] = true
	}

	for name, n := range map[string]int{
		"server.read_timeout":       cfg.Server.ReadTimeout,
		"server.write_timeout":      cfg.Server.WriteTimeout,
		"server.shutdown_timeout":   cfg.Server.ShutdownTimeout,
		"cache.ttl":                 cfg.Cache.TTL,
		"inference.timeout":         cfg.Inference.Timeout,
		"inference.max_tokens":      cfg.Inference.MaxTokens,
		"inference.max_concurrency": cfg.Inference.MaxConcurrency,
		"report.timeout":            cfg.Report.Timeout,
	} {
		if n < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, n)
		}
	}

	switch cfg.Report.Renderer {
	case "wkhtmltopdf", "chromium", "none":
	default:
		return fmt.Errorf("report.renderer %q is not supported", cfg.Report.Renderer)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
