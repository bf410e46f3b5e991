package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		DefaultOwner string `yaml:"default_owner"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Remote struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Bucket  string `yaml:"bucket"`
	} `yaml:"remote"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	AI struct {
		Provider      string `yaml:"provider"`
		OpenAIKey     string `yaml:"openai_key"`
		OpenAIModel   string `yaml:"openai_model"`
		GeminiKey     string `yaml:"gemini_key"`
		GeminiModel   string `yaml:"gemini_model"`
		QuestionCount int    `yaml:"question_count"`
	} `yaml:"ai"`
	Retry struct {
		MaxAttempts   int    `yaml:"max_attempts"`
		BaseDelay     string `yaml:"base_delay"`
		MaxDelay      string `yaml:"max_delay"`
		PerTryTimeout string `yaml:"per_try_timeout"`
	} `yaml:"retry"`
}

// Load reads YAML config from path. A missing file yields the zero config,
// so commands can still run against the in-memory defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback when raw is
// empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
