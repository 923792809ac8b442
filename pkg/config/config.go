package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration for hospital-assistant.
// Values can come from an optional config.yaml, an optional .env file and
// the process environment. Environment variables always win.
// Secrets (database password, provider API keys) are only read from the environment.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"3000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI provider credentials and agent settings
	AI AIConfig `yaml:"ai"`
}

// DatabaseConfig holds PostgreSQL connection and pool settings.
type DatabaseConfig struct {
	Host           string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name           string        `yaml:"name" env:"DB_NAME" env-default:"hospital_db"`
	User           string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password       string        `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	SSLMode        string        `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConnections int32         `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"20"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"DB_IDLE_TIMEOUT" env-default:"30s"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT" env-default:"2s"`
}

// AIConfig holds per-provider credentials and the agent loop bound.
type AIConfig struct {
	GroqAPIKey      string `yaml:"-" env:"GROQ_API_KEY"`
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`

	GroqBaseURL   string `yaml:"groq_base_url" env:"GROQ_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`

	// MaxRounds bounds the number of tool-invocation rounds per question.
	MaxRounds int `yaml:"max_rounds" env:"AGENT_MAX_ROUNDS" env-default:"5"`
}

// Available returns true if at least one provider credential is configured.
func (c *AIConfig) Available() bool {
	return c.GroqAPIKey != "" || c.OpenAIAPIKey != "" || c.AnthropicAPIKey != ""
}

// Load reads configuration once at process start.
// A .env file in the working directory is loaded first (existing environment
// variables are not overwritten), then config.yaml if present, then the environment.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be positive, got %d", c.Database.MaxConnections)
	}
	if c.AI.MaxRounds <= 0 {
		return fmt.Errorf("AGENT_MAX_ROUNDS must be positive, got %d", c.AI.MaxRounds)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection URL.
// When running inside Docker, localhost is rewritten to host.docker.internal.
func (c *DatabaseConfig) ConnectionString() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether /.dockerenv exists. The result is cached.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps loopback hosts to host.docker.internal inside a container.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}
