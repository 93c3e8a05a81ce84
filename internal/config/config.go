package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_discover/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the validated application configuration.
type Config struct {
	Data   DataConfig
	API    APIConfig
	Web    WebConfig
	Server ServerConfig
	Misc   MiscConfig
}

// DataConfig locates the files owned by the assistant.
type DataConfig struct {
	TagsFilePath    string
	LoginFilePath   string
	PersistInterval time.Duration
}

// APIConfig configures the creation-tools API client.
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	Burst      int
	DailyLimit int
	LoginPID   string
}

// WebConfig holds the community site settings.
type WebConfig struct {
	WorkURL string // printf template with one %d for the work id
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

// MiscConfig groups the remaining knobs.
type MiscConfig struct {
	LogLevel        string
	LogFile         string
	TokenizerType   string
	RefreshInterval time.Duration
	GinMode         string
}

func setDefaults() {
	viper.SetDefault("data.tags_file_path", "./simple_tags.json")
	viper.SetDefault("data.login_file_path", "./login.json")
	viper.SetDefault("data.persist_interval", "30s")

	viper.SetDefault("api.base_url", "https://api.codemao.cn")
	viper.SetDefault("api.timeout", "10s")
	viper.SetDefault("api.rate_limit", 2.0)
	viper.SetDefault("api.burst", 3)
	viper.SetDefault("api.daily_limit", 200)
	viper.SetDefault("api.login_pid", "65edCTyg")

	viper.SetDefault("web.work_url", "https://shequ.codemao.cn/work/%d")

	viper.SetDefault("server.port", 8085)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.request_timeout", "15s")
	viper.SetDefault("server.cors_allowed_origins", "*")

	viper.SetDefault("misc.log_level", "info")
	viper.SetDefault("misc.log_file", "./latest.log")
	viper.SetDefault("misc.tokenizer_type", "gse")
	viper.SetDefault("misc.refresh_interval", "10m")
	viper.SetDefault("misc.gin_mode", "release")
}

// LoadConfig reads .env, config.yaml (from GO_DISCOVER_CONFIG_PATH or ./config) and
// GO_DISCOVER_* environment variables, in increasing priority.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot read .env file: %v", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(getEnvOrDefault("GO_DISCOVER_CONFIG_PATH", "./config"))

	setDefaults()

	// Environment variables automatically override config file values,
	// e.g. GO_DISCOVER_DATA_TAGS_FILE_PATH overrides data.tags_file_path
	viper.SetEnvPrefix("GO_DISCOVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Debug("no config file found, using defaults and env vars")
	}

	port, err := getEnvOrViperPort("PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Data: DataConfig{
			TagsFilePath:    viper.GetString("data.tags_file_path"),
			LoginFilePath:   viper.GetString("data.login_file_path"),
			PersistInterval: viper.GetDuration("data.persist_interval"),
		},
		API: APIConfig{
			BaseURL:    strings.TrimRight(viper.GetString("api.base_url"), "/"),
			Timeout:    viper.GetDuration("api.timeout"),
			RateLimit:  viper.GetFloat64("api.rate_limit"),
			Burst:      viper.GetInt("api.burst"),
			DailyLimit: viper.GetInt("api.daily_limit"),
			LoginPID:   viper.GetString("api.login_pid"),
		},
		Web: WebConfig{
			WorkURL: viper.GetString("web.work_url"),
		},
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
		},
		Misc: MiscConfig{
			LogLevel:        getEnvOrDefault("LOG_LEVEL", viper.GetString("misc.log_level")),
			LogFile:         viper.GetString("misc.log_file"),
			TokenizerType:   viper.GetString("misc.tokenizer_type"),
			RefreshInterval: viper.GetDuration("misc.refresh_interval"),
			GinMode:         viper.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// The tags file itself is not created here: a missing file is a valid empty profile.
	if dir := filepath.Dir(cfg.Data.TagsFilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Data.TagsFilePath == "" {
		return errors.New("data.tags_file_path is required")
	}
	if c.Data.LoginFilePath == "" {
		return errors.New("data.login_file_path is required")
	}
	if c.Data.PersistInterval <= 0 {
		return errors.New("data.persist_interval must be positive")
	}
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.RateLimit <= 0 {
		return errors.New("api.rate_limit must be positive")
	}
	if c.API.Burst < 1 {
		return errors.New("api.burst must be at least 1")
	}
	if c.API.DailyLimit < 1 {
		return errors.New("api.daily_limit must be at least 1")
	}
	if strings.Count(c.Web.WorkURL, "%d") != 1 {
		return fmt.Errorf("web.work_url must contain exactly one %%d, got %q", c.Web.WorkURL)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 || c.Server.ShutDownTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	// a handler must be able to answer 504 before the connection write deadline
	if c.Server.WriteTimeout <= c.Server.RequestTimeout {
		return fmt.Errorf("server.write_timeout (%v) must be longer than server.request_timeout (%v)",
			c.Server.WriteTimeout, c.Server.RequestTimeout)
	}
	if c.Misc.RefreshInterval <= 0 {
		return errors.New("misc.refresh_interval must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
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
