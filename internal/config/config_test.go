package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(os.TempDir(), "no-such-config.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("default addr: %s", cfg.Server.Addr)
	}
	if cfg.History.Backend != "file" {
		t.Errorf("default history backend: %s", cfg.History.Backend)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("default model: %s", cfg.LLM.Model)
	}
	if cfg.Weather.Provider != "openweathermap" {
		t.Errorf("default provider: %s", cfg.Weather.Provider)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir, _ := os.MkdirTemp("", "config-test-*")
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  read_timeout: 5s
history:
  backend: sqlite
  path: /tmp/history.db
weather:
  provider: weatherapi
logging:
  level: debug
  development: true
`), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr: %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout: %v", cfg.Server.ReadTimeout)
	}
	if cfg.History.Backend != "sqlite" {
		t.Errorf("backend: %s", cfg.History.Backend)
	}
	if cfg.Weather.Provider != "weatherapi" {
		t.Errorf("provider: %s", cfg.Weather.Provider)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Errorf("logging: %+v", cfg.Logging)
	}

	// Unset fields keep their defaults.
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("write timeout default: %v", cfg.Server.WriteTimeout)
	}
	if cfg.Guidelines.Dir != "./data/guidelines" {
		t.Errorf("guidelines dir default: %s", cfg.Guidelines.Dir)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir, _ := os.MkdirTemp("", "config-test-*")
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("server: [not a mapping"), 0644)

	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should be an error")
	}
}

func TestLoad_EnvOverridesKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("WEATHER_API_KEY", "weather-key")
	t.Setenv("OPENWEATHER_API_KEY", "open-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.LLM.APIKey != "gem-key" {
		t.Errorf("gemini key: %s", cfg.LLM.APIKey)
	}
	if cfg.Weather.APIKey != "weather-key" {
		t.Errorf("WEATHER_API_KEY should win: %s", cfg.Weather.APIKey)
	}
}

func TestLoad_OpenWeatherKeyFallback(t *testing.T) {
	t.Setenv("WEATHER_API_KEY", "")
	t.Setenv("OPENWEATHER_API_KEY", "open-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Weather.APIKey != "open-key" {
		t.Errorf("OPENWEATHER_API_KEY fallback: %s", cfg.Weather.APIKey)
	}
}
