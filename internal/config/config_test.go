package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8095,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			IdleTimeout:        120 * time.Second,
			ShutDownTimeout:    5 * time.Second,
			RequestTimeout:     15 * time.Second,
			CORSAllowedOrigins: "*",
		},
		Cache: CacheConfig{
			FilePath:        "/tmp/cache.json",
			PersistInterval: 5 * time.Second,
			RefreshEnabled:  true,
			RefreshPoll:     15 * time.Minute,
			RefreshTZ:       "Europe/Paris",
		},
		Provider: ProviderConfig{
			Type:    "memory",
			Timeout: 20 * time.Second,
		},
		Misc: MiscConfig{
			GinMode:  "release",
			LogLevel: "info",
		},
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_EmptyFilePath(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.FilePath = ""
	if cfg.validate() == nil {
		t.Error("expected error for empty cache file path")
	}
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero port", 0},
		{"negative port", -1},
		{"too high port", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port
			if cfg.validate() == nil {
				t.Errorf("expected error for port %d", tt.port)
			}
		})
	}
}

func TestConfig_Validate_InvalidIntervals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero persist interval", func(c *Config) { c.Cache.PersistInterval = 0 }},
		{"zero refresh poll", func(c *Config) { c.Cache.RefreshPoll = 0 }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }},
		{"zero idle timeout", func(c *Config) { c.Server.IdleTimeout = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutDownTimeout = 0 }},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if cfg.validate() == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestConfig_Validate_Timezones(t *testing.T) {
	for _, tz := range []string{"", "Local", "UTC", "Europe/Paris"} {
		cfg := validConfig()
		cfg.Cache.RefreshTZ = tz
		if err := cfg.validate(); err != nil {
			t.Errorf("expected timezone %q to be valid, got: %v", tz, err)
		}
	}

	cfg := validConfig()
	cfg.Cache.RefreshTZ = "Invalid/Timezone"
	if cfg.validate() == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	_ = os.Setenv("TEST_ENV_VAR", "custom_value")
	defer func() { _ = os.Unsetenv("TEST_ENV_VAR") }()

	if got := getEnvOrDefault("TEST_ENV_VAR", "default_value"); got != "custom_value" {
		t.Errorf("expected 'custom_value', got '%s'", got)
	}
	if got := getEnvOrDefault("NONEXISTENT_VAR", "default_value"); got != "default_value" {
		t.Errorf("expected 'default_value', got '%s'", got)
	}
}

func TestGetEnvOrViperPort(t *testing.T) {
	_ = os.Setenv("TEST_PORT", "9090")
	defer func() { _ = os.Unsetenv("TEST_PORT") }()

	port, err := getEnvOrViperPort("TEST_PORT", "server.port")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if port != 9090 {
		t.Errorf("expected 9090, got %d", port)
	}

	_ = os.Setenv("TEST_PORT_INVALID", "not_a_number")
	defer func() { _ = os.Unsetenv("TEST_PORT_INVALID") }()

	if _, err := getEnvOrViperPort("TEST_PORT_INVALID", "server.port"); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestLoadConfig_WithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	_ = os.Setenv("PAPILLON_CONFIG_PATH", tempDir)
	_ = os.Setenv("PAPILLON_CACHE_FILE_PATH", tempDir+"/data/cache.json")
	defer func() {
		_ = os.Unsetenv("PAPILLON_CONFIG_PATH")
		_ = os.Unsetenv("PAPILLON_CACHE_FILE_PATH")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error loading config, got: %v", err)
	}

	if cfg.Server.Port <= 0 {
		t.Errorf("expected positive port, got %d", cfg.Server.Port)
	}
	if cfg.Cache.PersistInterval <= 0 {
		t.Error("expected positive persist interval")
	}
	if cfg.Provider.Type == "" {
		t.Error("expected a default provider type")
	}
}

func TestLoadConfig_CreatesCacheFile(t *testing.T) {
	tempDir := t.TempDir()
	cacheFilePath := tempDir + "/data/cache.json"

	_ = os.Setenv("PAPILLON_CONFIG_PATH", tempDir)
	_ = os.Setenv("PAPILLON_CACHE_FILE_PATH", cacheFilePath)
	defer func() {
		_ = os.Unsetenv("PAPILLON_CONFIG_PATH")
		_ = os.Unsetenv("PAPILLON_CACHE_FILE_PATH")
	}()

	if _, err := os.Stat(cacheFilePath); !os.IsNotExist(err) {
		t.Fatal("expected cache file to not exist initially")
	}

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	content, err := os.ReadFile(cacheFilePath)
	if err != nil {
		t.Fatalf("failed to read cache file: %v", err)
	}
	if string(content) != "{}" {
		t.Errorf("expected '{}', got '%s'", string(content))
	}
}

func TestLoadConfig_KeepsExistingCacheFile(t *testing.T) {
	tempDir := t.TempDir()
	cacheFilePath := tempDir + "/cache.json"

	existing := `{"homeworks":"[]"}`
	if err := os.WriteFile(cacheFilePath, []byte(existing), 0o644); err != nil {
		t.Fatalf("failed to write cache file: %v", err)
	}

	_ = os.Setenv("PAPILLON_CONFIG_PATH", tempDir)
	_ = os.Setenv("PAPILLON_CACHE_FILE_PATH", cacheFilePath)
	defer func() {
		_ = os.Unsetenv("PAPILLON_CONFIG_PATH")
		_ = os.Unsetenv("PAPILLON_CACHE_FILE_PATH")
	}()

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	content, err := os.ReadFile(cacheFilePath)
	if err != nil {
		t.Fatalf("failed to read cache file: %v", err)
	}
	if string(content) != existing {
		t.Errorf("expected existing content to be kept, got '%s'", string(content))
	}
}

func TestLoadConfig_InvalidPortEnv(t *testing.T) {
	tempDir := t.TempDir()

	_ = os.Setenv("PAPILLON_CONFIG_PATH", tempDir)
	_ = os.Setenv("PORT", "not_a_port")
	defer func() {
		_ = os.Unsetenv("PAPILLON_CONFIG_PATH")
		_ = os.Unsetenv("PORT")
	}()

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid port, got nil")
	}
}
