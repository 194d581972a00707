package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

// CacheConfig holds settings for the persistent cache file and refresh jobs.
type CacheConfig struct {
	FilePath        string
	PersistInterval time.Duration
	RefreshEnabled  bool
	RefreshPoll     time.Duration
	RefreshTZ       string
}

// ProviderConfig selects and configures the school-data provider client.
type ProviderConfig struct {
	Type    string // "pronote-gateway" or "memory"
	BaseURL string
	Token   string
	Timeout time.Duration
}

// MiscConfig holds everything else.
type MiscConfig struct {
	GinMode  string
	LogLevel string
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Provider ProviderConfig
	Misc     MiscConfig
}

// LoadConfig reads configuration from config.yaml (if present) and the
// environment. Env vars with the PAPILLON_ prefix override file values.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(getEnvOrDefault("PAPILLON_CONFIG_PATH", "./config"))

	// Defaults so the daemon runs without any config file.
	viper.SetDefault("server.port", 8095)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.request_timeout", "15s")
	viper.SetDefault("server.cors_allowed_origins", "*")
	viper.SetDefault("cache.file_path", "./config/data/cache.json")
	viper.SetDefault("cache.persist_interval", "5s")
	viper.SetDefault("cache.refresh_enabled", true)
	viper.SetDefault("cache.refresh_poll", "15m")
	viper.SetDefault("cache.refresh_tz", "Europe/Paris")
	viper.SetDefault("provider.type", "pronote-gateway")
	viper.SetDefault("provider.base_url", "")
	viper.SetDefault("provider.token", "")
	viper.SetDefault("provider.timeout", "20s")
	viper.SetDefault("misc.gin_mode", "release")
	viper.SetDefault("misc.log_level", "info")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PAPILLON")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file: defaults and env vars are enough.
	}

	port, err := getEnvOrViperPort("PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
		},
		Cache: CacheConfig{
			FilePath:        getEnvOrDefault("PAPILLON_CACHE_FILE_PATH", viper.GetString("cache.file_path")),
			PersistInterval: viper.GetDuration("cache.persist_interval"),
			RefreshEnabled:  viper.GetBool("cache.refresh_enabled"),
			RefreshPoll:     viper.GetDuration("cache.refresh_poll"),
			RefreshTZ:       viper.GetString("cache.refresh_tz"),
		},
		Provider: ProviderConfig{
			Type:    viper.GetString("provider.type"),
			BaseURL: viper.GetString("provider.base_url"),
			Token:   viper.GetString("provider.token"),
			Timeout: viper.GetDuration("provider.timeout"),
		},
		Misc: MiscConfig{
			GinMode:  viper.GetString("misc.gin_mode"),
			LogLevel: viper.GetString("misc.log_level"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := ensureCacheFile(cfg.Cache.FilePath); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Cache.FilePath == "" {
		return fmt.Errorf("cache file path is required")
	}
	if c.Cache.PersistInterval <= 0 {
		return fmt.Errorf("persist interval must be positive")
	}
	if c.Cache.RefreshPoll <= 0 {
		return fmt.Errorf("refresh poll interval must be positive")
	}
	if c.Cache.RefreshTZ != "" && c.Cache.RefreshTZ != "Local" {
		if _, err := time.LoadLocation(c.Cache.RefreshTZ); err != nil {
			return fmt.Errorf("invalid refresh timezone %q: %w", c.Cache.RefreshTZ, err)
		}
	}
	if c.Provider.Type == "pronote-gateway" && c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}
	return nil
}

// ensureCacheFile creates the cache file with an empty document if missing,
// so the repository can load on first run.
func ensureCacheFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat cache file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvOrViperPort(envKey, viperKey string) (int, error) {
	if v := os.Getenv(envKey); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", envKey, v, err)
		}
		return port, nil
	}
	return viper.GetInt(viperKey), nil
}
