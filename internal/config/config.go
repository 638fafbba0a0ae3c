// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	ActivityLimit int    `json:"activity_limit"`
	HTTP          struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	Gateway struct {
		BaseURL       string  `json:"base_url"`
		APIKey        string  `json:"api_key"`
		AppID         string  `json:"app_id"`
		Model         string  `json:"model"`
		MaxTokens     int     `json:"max_tokens"`
		Temperature   float32 `json:"temperature"`
		ContextWindow int     `json:"context_window"`
	} `json:"gateway"`
	Search struct {
		Enabled     bool   `json:"enabled"`
		BraveAPIKey string `json:"brave_api_key"`
	} `json:"search"`
	Telemetry struct {
		Enabled         bool `json:"enabled"`
		IntervalMinutes int  `json:"interval_minutes"`
		LookbackDays    int  `json:"lookback_days"`
	} `json:"telemetry"`
}

func Load(path string) (*Config, error) {
	// A .env alongside the working directory feeds the env overrides
	// below; a missing file is fine.
	godotenv.Load()

	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".aetherchat"),
		LogLevel:      "info",
		ActivityLimit: 300,
	}
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = "127.0.0.1:8571"
	cfg.Gateway.BaseURL = "https://api.blackboxaudio.tech/v1"
	cfg.Gateway.AppID = "aetherchat"
	cfg.Gateway.Model = "kimi-vl-thinking"
	cfg.Gateway.MaxTokens = 2000
	cfg.Gateway.Temperature = 0.7
	cfg.Gateway.ContextWindow = 128000
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.IntervalMinutes = 1
	cfg.Telemetry.LookbackDays = 7

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if baseURL := os.Getenv("LITELLM_API_BASE_URL"); baseURL != "" {
		cfg.Gateway.BaseURL = baseURL
	}
	if apiKey := os.Getenv("LITELLM_API_KEY"); apiKey != "" {
		cfg.Gateway.APIKey = apiKey
	}
	if appID := os.Getenv("AETHERCHAT_APP_ID"); appID != "" {
		cfg.Gateway.AppID = appID
	}
	if model := os.Getenv("LITELLM_MODEL_NAME"); model != "" {
		cfg.Gateway.Model = model
	}
	if braveKey := os.Getenv("BRAVE_API_KEY"); braveKey != "" {
		cfg.Search.BraveAPIKey = braveKey
		cfg.Search.Enabled = true
	}
	if listen := os.Getenv("AETHERCHAT_LISTEN"); listen != "" {
		cfg.HTTP.Listen = listen
	}
	if limit := os.Getenv("AETHERCHAT_ACTIVITY_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			cfg.ActivityLimit = n
		}
	}

	return cfg, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
