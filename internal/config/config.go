package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// PathEnvVar names an optional YAML file layered between defaults and env.
const PathEnvVar = "CONFIG_PATH"

// Config holds all configuration for the application.
type Config struct {
	AppEnv  string        `koanf:"app_env" validate:"required"`
	Store   StoreConfig   `koanf:"store"`
	Redis   RedisConfig   `koanf:"redis"`
	GRPC    GRPCConfig    `koanf:"grpc"`
	Metrics MetricsConfig `koanf:"metrics"`
	Insight InsightConfig `koanf:"insight"`
}

type StoreConfig struct {
	Driver          string `koanf:"driver" validate:"oneof=sqlite3 mongo"`
	Path            string `koanf:"path" validate:"required_if=Driver sqlite3"`
	MongoURI        string `koanf:"mongo_uri" validate:"required_if=Driver mongo"`
	MongoDatabase   string `koanf:"mongo_database" validate:"required_if=Driver mongo"`
	MongoCollection string `koanf:"mongo_collection" validate:"required_if=Driver mongo"`
}

type RedisConfig struct {
	Addr     string        `koanf:"addr" validate:"required"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0,lte=15"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`
}

type GRPCConfig struct {
	Port       int  `koanf:"port" validate:"min=1,max=65535"`
	Reflection bool `koanf:"reflection"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port" validate:"min=1,max=65535"`
}

// InsightConfig configures the text-insight client. An empty APIKey disables
// it and every report carries the fallback insight.
type InsightConfig struct {
	APIKey          string        `koanf:"api_key"`
	BaseURL         string        `koanf:"base_url" validate:"omitempty,url"`
	Model           string        `koanf:"model" validate:"required"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxTokens       int           `koanf:"max_tokens" validate:"gt=0"`
	Temperature     float32       `koanf:"temperature" validate:"gte=0,lte=2"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gt=0"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// Enabled reports whether a text-insight backend is configured.
func (c InsightConfig) Enabled() bool {
	return c.APIKey != ""
}

func defaults() Config {
	return Config{
		AppEnv: "development",
		Store: StoreConfig{
			Driver:          "sqlite3",
			Path:            "./data/feedback.db",
			MongoDatabase:   "feedback",
			MongoCollection: "feedback",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  10 * time.Minute,
		},
		GRPC: GRPCConfig{
			Port: 50051,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Insight: InsightConfig{
			Model:           "gpt-4",
			Timeout:         30 * time.Second,
			MaxTokens:       1000,
			Temperature:     0.3,
			BreakerFailures: 5,
			BreakerTimeout:  time.Minute,
		},
	}
}

// envKeys maps supported environment variables to config keys. Anything else
// in the environment is ignored.
var envKeys = map[string]string{
	"APP_ENV":                  "app_env",
	"DB_DRIVER":                "store.driver",
	"DB_PATH":                  "store.path",
	"MONGO_URI":                "store.mongo_uri",
	"MONGO_DATABASE":           "store.mongo_database",
	"MONGO_COLLECTION":         "store.mongo_collection",
	"REDIS_ADDR":               "redis.addr",
	"REDIS_PASSWORD":           "redis.password",
	"REDIS_DB":                 "redis.db",
	"CACHE_TTL":                "redis.ttl",
	"GRPC_PORT":                "grpc.port",
	"GRPC_REFLECTION_ENABLED":  "grpc.reflection",
	"METRICS_ENABLED":          "metrics.enabled",
	"METRICS_PORT":             "metrics.port",
	"OPENAI_API_KEY":           "insight.api_key",
	"OPENAI_BASE_URL":          "insight.base_url",
	"OPENAI_MODEL":             "insight.model",
	"INSIGHT_TIMEOUT":          "insight.timeout",
	"INSIGHT_MAX_TOKENS":       "insight.max_tokens",
	"INSIGHT_TEMPERATURE":      "insight.temperature",
	"INSIGHT_BREAKER_FAILURES": "insight.breaker_failures",
	"INSIGHT_BREAKER_TIMEOUT":  "insight.breaker_timeout",
}

func envKey(name string) string {
	return envKeys[strings.ToUpper(name)]
}

// Load builds the configuration from defaults, the optional CONFIG_PATH file
// and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if cfg.Store.Driver == "sqlite" {
		cfg.Store.Driver = "sqlite3"
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
