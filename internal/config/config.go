package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Extract   ExtractConfig   `yaml:"extract"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Queue     QueueConfig     `yaml:"queue"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConns       int           `yaml:"max_conns"`
	MinConns       int           `yaml:"min_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	MigrationsPath string        `yaml:"migrations_path"` // empty uses the embedded schema
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"` // "memory", "sqlite" or "pgvector"
	SQLitePath string `yaml:"sqlite_path"`
}

type EmbeddingConfig struct {
	Provider      string        `yaml:"provider"` // "openai" or "ollama"
	Model         string        `yaml:"model"`
	Dimensions    int           `yaml:"dimensions"`
	OpenAIKey     string        `yaml:"openai_key"`
	OpenAIBaseURL string        `yaml:"openai_base_url"`
	OllamaURL     string        `yaml:"ollama_url"`
	CacheEnabled  bool          `yaml:"cache_enabled"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

type ExtractConfig struct {
	CaseInsensitive bool `yaml:"case_insensitive"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"` // 0 disables limiting
	Burst int     `yaml:"burst"`
}

type QueueConfig struct {
	Enabled     bool `yaml:"enabled"`
	Concurrency int  `yaml:"concurrency"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel parses the configured level, falling back to info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxUploadBytes:  32 << 20,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConns:       20,
			MinConns:       5,
			ConnectTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Store: StoreConfig{
			Backend:    "memory",
			SQLitePath: filepath.Join("data", "docsearch.db"),
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			OllamaURL: "http://localhost:11434",
			CacheTTL:  24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Burst: 20,
		},
		Queue: QueueConfig{
			Concurrency: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables. Later layers win.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(expandEnvVars(data), cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	if cfg.Server.Port, err = getEnvInt("SERVER_PORT", cfg.Server.Port); err != nil {
		return fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if cfg.Server.MaxUploadBytes, err = getEnvInt64("MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes); err != nil {
		return fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.Server.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.Server.CORSOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.Server.CORSOrigins)

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	if cfg.Database.MaxConns, err = getEnvInt("DB_MAX_CONNS", cfg.Database.MaxConns); err != nil {
		return fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	if cfg.Database.MinConns, err = getEnvInt("DB_MIN_CONNS", cfg.Database.MinConns); err != nil {
		return fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}
	if cfg.Database.ConnectTimeout, err = getEnvDuration("DB_CONNECT_TIMEOUT", cfg.Database.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid DB_CONNECT_TIMEOUT: %w", err)
	}
	cfg.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.Database.MigrationsPath)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", cfg.Redis.DB); err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.SQLitePath = getEnv("SQLITE_PATH", cfg.Store.SQLitePath)

	cfg.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	if cfg.Embedding.Dimensions, err = getEnvInt("EMBEDDING_DIMENSIONS", cfg.Embedding.Dimensions); err != nil {
		return fmt.Errorf("invalid EMBEDDING_DIMENSIONS: %w", err)
	}
	cfg.Embedding.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.Embedding.OpenAIKey)
	cfg.Embedding.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.Embedding.OpenAIBaseURL)
	cfg.Embedding.OllamaURL = getEnv("OLLAMA_URL", cfg.Embedding.OllamaURL)
	if cfg.Embedding.CacheEnabled, err = getEnvBool("EMBEDDING_CACHE_ENABLED", cfg.Embedding.CacheEnabled); err != nil {
		return fmt.Errorf("invalid EMBEDDING_CACHE_ENABLED: %w", err)
	}
	if cfg.Embedding.CacheTTL, err = getEnvDuration("EMBEDDING_CACHE_TTL", cfg.Embedding.CacheTTL); err != nil {
		return fmt.Errorf("invalid EMBEDDING_CACHE_TTL: %w", err)
	}

	if cfg.Extract.CaseInsensitive, err = getEnvBool("EXTRACT_CASE_INSENSITIVE", cfg.Extract.CaseInsensitive); err != nil {
		return fmt.Errorf("invalid EXTRACT_CASE_INSENSITIVE: %w", err)
	}

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)

	if cfg.RateLimit.RPS, err = getEnvFloat("RATE_LIMIT_RPS", cfg.RateLimit.RPS); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimit.Burst, err = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	if cfg.Queue.Enabled, err = getEnvBool("QUEUE_ENABLED", cfg.Queue.Enabled); err != nil {
		return fmt.Errorf("invalid QUEUE_ENABLED: %w", err)
	}
	if cfg.Queue.Concurrency, err = getEnvInt("QUEUE_CONCURRENCY", cfg.Queue.Concurrency); err != nil {
		return fmt.Errorf("invalid QUEUE_CONCURRENCY: %w", err)
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports every inconsistent or missing setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("SERVER_PORT %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}

	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for the sqlite store")
		}
	case "pgvector":
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL is required for the pgvector store")
		}
		if c.Embedding.Dimensions <= 0 {
			problems = append(problems, "EMBEDDING_DIMENSIONS is required for the pgvector store")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_BACKEND %q", c.Store.Backend))
	}

	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.OpenAIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for the openai provider")
		}
	case "ollama":
		if c.Embedding.OllamaURL == "" {
			problems = append(problems, "OLLAMA_URL is required for the ollama provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown EMBEDDING_PROVIDER %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions < 0 {
		problems = append(problems, "EMBEDDING_DIMENSIONS must not be negative")
	}

	if (c.Embedding.CacheEnabled || c.Queue.Enabled) && c.Redis.Addr == "" {
		problems = append(problems, "REDIS_ADDR is required when the embedding cache or queue is enabled")
	}
	if c.RateLimit.RPS < 0 {
		problems = append(problems, "RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		problems = append(problems, "RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
