// Package config loads the application configuration from YAML with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Guidelines GuidelinesConfig `yaml:"guidelines"`
	History    HistoryConfig    `yaml:"history"`
	Weather    WeatherConfig    `yaml:"weather"`
	LLM        LLMConfig        `yaml:"llm"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// GuidelinesConfig configures the guideline document source.
type GuidelinesConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// HistoryConfig configures the irrigation history store.
type HistoryConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Path    string `yaml:"path"`
}

// WeatherConfig configures the weather provider.
type WeatherConfig struct {
	Provider string `yaml:"provider"` // "openweathermap" or "weatherapi"
	APIKey   string `yaml:"api_key"`
	Location string `yaml:"location"`
}

// LLMConfig configures the Gemini client.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Guidelines: GuidelinesConfig{
			Dir:   "./data/guidelines",
			Watch: true,
		},
		History: HistoryConfig{
			Backend: "file",
			Path:    "./irrigation_memory.json",
		},
		Weather: WeatherConfig{
			Provider: "openweathermap",
		},
		LLM: LLMConfig{
			Model: "gemini-2.0-flash",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML config at path, applying defaults for anything
// unset and environment overrides for API keys. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv pulls secrets from the environment, which win over the
// file. WEATHER_API_KEY is preferred over the provider-specific
// OPENWEATHER_API_KEY.
func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("WEATHER_API_KEY"); key != "" {
		c.Weather.APIKey = key
	} else if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" && c.Weather.APIKey == "" {
		c.Weather.APIKey = key
	}
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if c.Guidelines.Dir == "" {
		c.Guidelines.Dir = def.Guidelines.Dir
	}
	if c.History.Backend == "" {
		c.History.Backend = def.History.Backend
	}
	if c.History.Path == "" {
		c.History.Path = def.History.Path
	}
	if c.Weather.Provider == "" {
		c.Weather.Provider = def.Weather.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}
