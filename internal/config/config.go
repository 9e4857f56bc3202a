// Package config loads kashi settings from an optional YAML file, a
// .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "kashi.yaml"

type Config struct {
	HistorySize int             `yaml:"history_size"`
	LogFile     string          `yaml:"log_file"`
	Server      ServerConfig    `yaml:"server"`
	Translate   TranslateConfig `yaml:"translate"`
	Media       MediaConfig     `yaml:"media"`

	// provider keys only come from the environment
	GeminiAPIKey    string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type TranslateConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	Concurrency int    `yaml:"concurrency"`
	BatchSize   int    `yaml:"batch_size"`
}

type MediaConfig struct {
	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds"`
}

func Default() *Config {
	return &Config{
		HistorySize: 50,
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Translate: TranslateConfig{
			Provider:    "gemini",
			Concurrency: 3,
			BatchSize:   50,
		},
		Media: MediaConfig{
			ProbeTimeoutSeconds: 30,
		},
	}
}

// Load builds the configuration. An empty path reads DefaultFile when it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// existing environment variables win over .env entries
	_ = godotenv.Load()

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HistorySize = getEnvInt("KASHI_HISTORY_SIZE", c.HistorySize)
	c.LogFile = getEnv("KASHI_LOG_FILE", c.LogFile)
	c.Server.Addr = getEnv("KASHI_ADDR", c.Server.Addr)
	c.Translate.Provider = getEnv("KASHI_PROVIDER", c.Translate.Provider)
	c.Translate.Model = getEnv("KASHI_MODEL", c.Translate.Model)
	c.Translate.Concurrency = getEnvInt("KASHI_CONCURRENCY", c.Translate.Concurrency)
	c.Translate.BatchSize = getEnvInt("KASHI_BATCH_SIZE", c.Translate.BatchSize)
	c.Media.ProbeTimeoutSeconds = getEnvInt("KASHI_PROBE_TIMEOUT", c.Media.ProbeTimeoutSeconds)

	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
}

func (c *Config) Validate() error {
	if c.HistorySize < 2 {
		return fmt.Errorf("history_size must be at least 2, got %d", c.HistorySize)
	}
	if c.Translate.Concurrency <= 0 {
		return fmt.Errorf("translate.concurrency must be positive, got %d", c.Translate.Concurrency)
	}
	if c.Translate.BatchSize <= 0 {
		return fmt.Errorf("translate.batch_size must be positive, got %d", c.Translate.BatchSize)
	}
	if c.Media.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf("media.probe_timeout_seconds must be positive, got %d", c.Media.ProbeTimeoutSeconds)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

// APIKey returns the key configured for a translation provider and the
// environment variable it is read from.
func (c *Config) APIKey(provider string) (key, envVar string) {
	switch strings.ToLower(provider) {
	case "gemini":
		return c.GeminiAPIKey, "GEMINI_API_KEY"
	case "openai":
		return c.OpenAIAPIKey, "OPENAI_API_KEY"
	case "anthropic":
		return c.AnthropicAPIKey, "ANTHROPIC_API_KEY"
	default:
		return "", "API_KEY"
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
