// internal/config/config_test.go
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

// clearEnvOverrides blanks the env vars Load consults so results only
// reflect the file under test.
func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LITELLM_API_BASE_URL", "LITELLM_API_KEY", "AETHERCHAT_APP_ID",
		"LITELLM_MODEL_NAME", "BRAVE_API_KEY", "AETHERCHAT_LISTEN",
		"AETHERCHAT_ACTIVITY_LIMIT",
	} {
		t.Setenv(key, "")
	}
}

func writeTestConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestLoad_WritesDefaults(t *testing.T) {
	clearEnvOverrides(t)
	path := tempConfigPath(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log_level = %q", cfg.LogLevel)
	}
	if cfg.ActivityLimit != 300 {
		t.Errorf("default activity_limit = %d", cfg.ActivityLimit)
	}
	if cfg.Gateway.Model != "kimi-vl-thinking" {
		t.Errorf("default model = %q", cfg.Gateway.Model)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.IntervalMinutes != 1 {
		t.Errorf("unexpected telemetry defaults: %+v", cfg.Telemetry)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults file not written: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	path := tempConfigPath(t)

	t.Setenv("LITELLM_API_BASE_URL", "https://gw.example.com")
	t.Setenv("LITELLM_API_KEY", "sk-env")
	t.Setenv("LITELLM_MODEL_NAME", "env-model")
	t.Setenv("BRAVE_API_KEY", "brave-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.BaseURL != "https://gw.example.com" {
		t.Errorf("base_url = %q", cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.APIKey != "sk-env" {
		t.Errorf("api_key = %q", cfg.Gateway.APIKey)
	}
	if cfg.Gateway.Model != "env-model" {
		t.Errorf("model = %q", cfg.Gateway.Model)
	}
	if !cfg.Search.Enabled || cfg.Search.BraveAPIKey != "brave-env" {
		t.Errorf("search config = %+v", cfg.Search)
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	clearEnvOverrides(t)
	path := tempConfigPath(t)

	original := &Config{
		DataDir:       "/tmp/test-data",
		LogLevel:      "debug",
		ActivityLimit: 500,
	}
	original.Gateway.BaseURL = "https://gw.internal/v1"
	original.Gateway.APIKey = "sk-test-round-trip"
	original.Gateway.Model = "qwen-72b"
	original.Gateway.MaxTokens = 4000
	original.Gateway.Temperature = 0.5
	original.Gateway.ContextWindow = 32000
	original.Search.BraveAPIKey = "brave-key-123"

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir mismatch: %v != %v", loaded.DataDir, original.DataDir)
	}
	if loaded.LogLevel != original.LogLevel {
		t.Errorf("LogLevel mismatch: %v != %v", loaded.LogLevel, original.LogLevel)
	}
	if loaded.ActivityLimit != original.ActivityLimit {
		t.Errorf("ActivityLimit mismatch: %v != %v", loaded.ActivityLimit, original.ActivityLimit)
	}
	if loaded.Gateway.APIKey != original.Gateway.APIKey {
		t.Errorf("Gateway.APIKey mismatch: %v != %v", loaded.Gateway.APIKey, original.Gateway.APIKey)
	}
	if loaded.Gateway.Model != original.Gateway.Model {
		t.Errorf("Gateway.Model mismatch: %v != %v", loaded.Gateway.Model, original.Gateway.Model)
	}
	if loaded.Gateway.Temperature != original.Gateway.Temperature {
		t.Errorf("Gateway.Temperature mismatch: %v != %v", loaded.Gateway.Temperature, original.Gateway.Temperature)
	}
	if loaded.Search.BraveAPIKey != original.Search.BraveAPIKey {
		t.Errorf("Search.BraveAPIKey mismatch: %v != %v", loaded.Search.BraveAPIKey, original.Search.BraveAPIKey)
	}
}

func TestSave_AtomicWrite(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	tmpPath := path + ".tmp"
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after successful save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestToMap(t *testing.T) {
	cfg := &Config{
		DataDir:  "/tmp/test",
		LogLevel: "debug",
	}
	cfg.Gateway.Model = "qwen-72b"
	cfg.Gateway.MaxTokens = 2000

	m, err := ToMap(cfg)
	if err != nil {
		t.Fatalf("ToMap failed: %v", err)
	}

	if m["data_dir"] != "/tmp/test" {
		t.Errorf("expected data_dir=/tmp/test, got %v", m["data_dir"])
	}
	gw, ok := m["gateway"].(map[string]any)
	if !ok {
		t.Fatalf("expected gateway to be map, got %T", m["gateway"])
	}
	if gw["model"] != "qwen-72b" {
		t.Errorf("expected gateway.model=qwen-72b, got %v", gw["model"])
	}
	// JSON numbers are float64
	if gw["max_tokens"] != float64(2000) {
		t.Errorf("expected gateway.max_tokens=2000, got %v", gw["max_tokens"])
	}
}

func TestListValues_Masking(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	cfg.Gateway.APIKey = "sk-secret-key-1234"
	cfg.Search.BraveAPIKey = "brave-key-5678"

	flat, err := ListValues(cfg, false)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if flat["gateway.api_key"] != "sk-secret-key-1234" {
		t.Errorf("expected unmasked gateway.api_key, got %v", flat["gateway.api_key"])
	}

	masked, err := ListValues(cfg, true)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if masked["gateway.api_key"] != "***1234" {
		t.Errorf("expected masked gateway.api_key=***1234, got %v", masked["gateway.api_key"])
	}
	if masked["search.brave_api_key"] != "***5678" {
		t.Errorf("expected masked search.brave_api_key=***5678, got %v", masked["search.brave_api_key"])
	}
	if masked["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", masked["log_level"])
	}
}

func TestGetValue(t *testing.T) {
	clearEnvOverrides(t)
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "debug", ActivityLimit: 8}
	cfg.Gateway.Model = "qwen-72b"
	writeTestConfig(t, path, cfg)

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "debug" {
		t.Errorf("expected log_level=debug, got %v", v)
	}

	v, err = GetValue(path, "gateway.model")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "qwen-72b" {
		t.Errorf("expected gateway.model=qwen-72b, got %v", v)
	}

	v, err = GetValue(path, "activity_limit")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != float64(8) {
		t.Errorf("expected activity_limit=8, got %v (%T)", v, v)
	}
}

func TestGetValue_UnknownKey(t *testing.T) {
	clearEnvOverrides(t)
	path := tempConfigPath(t)
	writeTestConfig(t, path, &Config{LogLevel: "info"})

	_, err := GetValue(path, "nonexistent.key")
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	expected := "unknown config key: nonexistent.key"
	if err.Error() != expected {
		t.Errorf("expected error %q, got %q", expected, err.Error())
	}
}

func TestSetValue(t *testing.T) {
	clearEnvOverrides(t)
	path := tempConfigPath(t)

	cfg := &Config{LogLevel: "info", ActivityLimit: 2}
	cfg.Gateway.Model = "old-model"
	writeTestConfig(t, path, cfg)

	tests := []struct {
		key   string
		value string
		want  any
	}{
		{"log_level", "debug", "debug"},
		{"activity_limit", "16", float64(16)},
		{"http.enabled", "true", true},
		{"gateway.temperature", "0.3", 0.3},
		{"gateway.model", "qwen-72b", "qwen-72b"},
		{"custom.setting", "value", "value"},
	}
	for _, tt := range tests {
		if err := SetValue(path, tt.key, tt.value); err != nil {
			t.Fatalf("SetValue(%s) failed: %v", tt.key, err)
		}
		v, err := GetValue(path, tt.key)
		if err != nil {
			t.Fatalf("GetValue(%s) failed: %v", tt.key, err)
		}
		if v != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.key, v, v, tt.want)
		}
	}

	// Earlier values survive later writes.
	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "debug" {
		t.Errorf("expected log_level=debug preserved, got %v", v)
	}
}

func TestSetValue_NonexistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "config.json")
	if err := SetValue(path, "log_level", "debug"); err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestGetValue_CreatesDefaults(t *testing.T) {
	clearEnvOverrides(t)
	path := tempConfigPath(t)

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue on new config failed: %v", err)
	}
	if v != "info" {
		t.Errorf("expected default log_level=info, got %v", v)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.json")

	if err := Save(path, &Config{LogLevel: "warn"}); err != nil {
		t.Fatalf("Save should create parent directory, got: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should exist: %v", err)
	}
}
