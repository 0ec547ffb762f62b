package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the path checked for YAML configuration.
	DefaultConfigFile = "planforge.yaml"
	// DefaultEnvFile is the dotenv file read before the environment.
	DefaultEnvFile = ".env"
)

// Load returns a Config using the hierarchy: defaults < YAML < .env < ENV.
// Both files are optional; missing files are not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile, DefaultEnvFile)
}

// LoadFrom returns a Config loaded from the given YAML and dotenv paths.
// Values in the dotenv file never override variables already present in
// the process environment.
func LoadFrom(yamlPath, envPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadDotenv(envPath); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadDotenv exports the variables of a .env file that are not set yet.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PLANFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "PLANFORGE_CORS_ORIGIN")
	setDuration(&cfg.Server.ReadTimeout, "PLANFORGE_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "PLANFORGE_WRITE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "PLANFORGE_SHUTDOWN_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PLANFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PLANFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PLANFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PLANFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PLANFORGE_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setDuration(&cfg.NATS.StreamAge, "PLANFORGE_NATS_STREAM_AGE")

	// Generator
	setString(&cfg.Generator.Provider, "PLANFORGE_GENERATOR")
	setString(&cfg.Generator.APIKey, "GEMINI_API_KEY")
	if cfg.Generator.Provider == "litellm" {
		setString(&cfg.Generator.APIKey, "LITELLM_MASTER_KEY")
		setString(&cfg.Generator.BaseURL, "LITELLM_URL")
	}
	setString(&cfg.Generator.BaseURL, "PLANFORGE_GENERATOR_URL")
	setString(&cfg.Generator.Model, "PLANFORGE_GENERATOR_MODEL")
	setDuration(&cfg.Generator.Timeout, "PLANFORGE_GENERATOR_TIMEOUT")
	setFloat64(&cfg.Generator.Temperature, "PLANFORGE_GENERATOR_TEMPERATURE")
	setFloat64(&cfg.Generator.TopP, "PLANFORGE_GENERATOR_TOP_P")
	setInt(&cfg.Generator.TopK, "PLANFORGE_GENERATOR_TOP_K")
	setInt(&cfg.Generator.MaxOutputTokens, "PLANFORGE_GENERATOR_MAX_TOKENS")

	setString(&cfg.Logging.Level, "PLANFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PLANFORGE_LOG_SERVICE")
	setString(&cfg.Logging.Format, "PLANFORGE_LOG_FORMAT")
	setBool(&cfg.Logging.Async, "PLANFORGE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "PLANFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PLANFORGE_BREAKER_TIMEOUT")

	// Rate limiting
	setInt(&cfg.Rate.Limit, "PLANFORGE_RATE_LIMIT")
	setDuration(&cfg.Rate.Interval, "PLANFORGE_RATE_INTERVAL")
	setString(&cfg.Rate.Backend, "PLANFORGE_RATE_BACKEND")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	// Cache
	setDuration(&cfg.Cache.DefaultTTL, "PLANFORGE_CACHE_TTL")
	setDuration(&cfg.Cache.PlanTTL, "PLANFORGE_CACHE_PLAN_TTL")
	setInt64(&cfg.Cache.L1MaxSizeMB, "PLANFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "PLANFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "PLANFORGE_CACHE_L2_TTL")
	setDuration(&cfg.Idempotency.TTL, "PLANFORGE_IDEMPOTENCY_TTL")

	setBool(&cfg.Auth.Enabled, "PLANFORGE_AUTH_ENABLED")
	setDuration(&cfg.Auth.VerifyTTL, "PLANFORGE_AUTH_VERIFY_TTL")

	setBool(&cfg.MCP.Enabled, "PLANFORGE_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "PLANFORGE_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "PLANFORGE_MCP_API_KEY")
	setString(&cfg.MCP.OwnerID, "PLANFORGE_MCP_OWNER")

	setBool(&cfg.OTEL.Enabled, "PLANFORGE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "PLANFORGE_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "PLANFORGE_OTEL_SAMPLE_RATE")

	setBool(&cfg.Metrics.Enabled, "PLANFORGE_METRICS_ENABLED")
	setString(&cfg.Metrics.Path, "PLANFORGE_METRICS_PATH")

	// Integrations
	setString(&cfg.Integrations.Slack.WebhookURL, "SLACK_WEBHOOK_URL")
	setString(&cfg.Integrations.Slack.Channel, "SLACK_CHANNEL")
	setString(&cfg.Integrations.Discord.WebhookURL, "DISCORD_WEBHOOK_URL")
	setString(&cfg.Integrations.Discord.Username, "DISCORD_USERNAME")
}

// validate checks that required fields are set. A missing generator key is
// not an error: it surfaces per request as a configuration error.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	switch cfg.Generator.Provider {
	case "gemini":
	case "litellm":
		if cfg.Generator.BaseURL == "" {
			return errors.New("generator.base_url is required for litellm")
		}
	default:
		return fmt.Errorf("generator.provider %q is not supported", cfg.Generator.Provider)
	}
	if cfg.Generator.Temperature < 0 || cfg.Generator.Temperature > 2 {
		return errors.New("generator.temperature must be within [0, 2]")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Limit < 1 {
		return errors.New("rate.limit must be >= 1")
	}
	if cfg.Rate.Interval <= 0 {
		return errors.New("rate.interval must be positive")
	}
	switch cfg.Rate.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis rate backend")
		}
	default:
		return fmt.Errorf("rate.backend %q is not supported", cfg.Rate.Backend)
	}
	if cfg.Auth.Enabled && len(cfg.Auth.Keys) == 0 {
		return errors.New("auth.keys must not be empty when auth is enabled")
	}
	for i, k := range cfg.Auth.Keys {
		if k.Owner == "" || k.Hash == "" {
			return fmt.Errorf("auth.keys[%d] needs owner and hash", i)
		}
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	if cfg.MCP.Enabled && cfg.MCP.APIKey == "" {
		return errors.New("mcp.api_key is required when mcp is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
