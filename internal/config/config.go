package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config defines the application configuration structure
type Config struct {
	Login       LoginConfig       `mapstructure:"login"`
	Server      ServerConfig      `mapstructure:"server"`
	Broker      BrokerConfig      `mapstructure:"broker"`
	Instruments InstrumentsConfig `mapstructure:"instruments"`
}

// LoginConfig defines how the login form reaches the auth backend
type LoginConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	SessionFile    string        `mapstructure:"session_file"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ServerConfig defines the web login page server
type ServerConfig struct {
	ListenAddr   string `mapstructure:"listen_addr"`
	WithBackend  bool   `mapstructure:"with_backend"`
	CookieName   string `mapstructure:"cookie_name"`
	CookieSecure bool   `mapstructure:"cookie_secure"`

	// TrustForwardedHeaders honours X-Forwarded-Host/Proto. Enable only
	// behind a reverse proxy that overwrites them.
	TrustForwardedHeaders bool `mapstructure:"trust_forwarded_headers"`
}

// BrokerConfig defines the broker used by the bundled auth backend
type BrokerConfig struct {
	Name            string        `mapstructure:"name"`
	KiteBaseURI     string        `mapstructure:"kite_base_uri"`
	ProfileCacheTTL time.Duration `mapstructure:"profile_cache_ttl"`
}

// InstrumentsConfig defines the post-login instruments first run
type InstrumentsConfig struct {
	FirstRunOnLogin bool   `mapstructure:"first_run_on_login"`
	URL             string `mapstructure:"url"`
	Path            string `mapstructure:"path"`
	ParquetPath     string `mapstructure:"parquet_path"`
}

// LoadConfig loads configuration from file and overrides with environment variables
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRADELOGIN")

	// Login mappings
	v.BindEnv("login.api_base_url", "TRADELOGIN_API_BASE_URL", "PUBLIC_API_BASE_URL")
	v.BindEnv("login.session_file", "TRADELOGIN_SESSION_FILE")
	v.BindEnv("login.request_timeout", "TRADELOGIN_REQUEST_TIMEOUT")

	// Server mappings
	v.BindEnv("server.listen_addr", "TRADELOGIN_LISTEN_ADDR")
	v.BindEnv("server.with_backend", "TRADELOGIN_WITH_BACKEND")
	v.BindEnv("server.cookie_name", "TRADELOGIN_COOKIE_NAME")
	v.BindEnv("server.cookie_secure", "TRADELOGIN_COOKIE_SECURE")
	v.BindEnv("server.trust_forwarded_headers", "TRADELOGIN_TRUST_FORWARDED_HEADERS")

	// Broker mappings
	v.BindEnv("broker.name", "TRADELOGIN_BROKER_NAME")
	v.BindEnv("broker.kite_base_uri", "TRADELOGIN_KITE_BASE_URI")
	v.BindEnv("broker.profile_cache_ttl", "TRADELOGIN_PROFILE_CACHE_TTL")

	// Instruments mappings
	v.SetDefault("instruments.first_run_on_login", true)
	v.BindEnv("instruments.first_run_on_login", "TRADELOGIN_INSTRUMENTS_FIRST_RUN_ON_LOGIN", "INSTRUMENTS_FIRST_RUN_ON_LOGIN")
	v.BindEnv("instruments.url", "TRADELOGIN_INSTRUMENTS_URL")
	v.BindEnv("instruments.path", "TRADELOGIN_INSTRUMENTS_PATH")
	v.BindEnv("instruments.parquet_path", "TRADELOGIN_INSTRUMENTS_PARQUET_PATH")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			fmt.Printf("Config file not found at %s, falling back to environment variables\n", path)
		} else {
			fmt.Printf("Error reading config file %s: %v, falling back to environment variables\n", path, err)
		}
	}

	// Environment variables take precedence over config file values
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&config)
	return config, nil
}

// applyDefaults sets default values for any config values not set from file or environment
func applyDefaults(config *Config) {
	if config.Login.SessionFile == "" {
		config.Login.SessionFile = defaultSessionFile()
	}
	if config.Login.RequestTimeout == 0 {
		config.Login.RequestTimeout = 30 * time.Second
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8080"
	}
	if config.Server.CookieName == "" {
		config.Server.CookieName = "tradelogin_session"
	}

	if config.Broker.Name == "" {
		config.Broker.Name = "zerodha"
	}
	if config.Broker.ProfileCacheTTL == 0 {
		config.Broker.ProfileCacheTTL = 10 * time.Minute
	}

	if config.Instruments.URL == "" {
		config.Instruments.URL = "https://api.kite.trade/instruments/NSE"
	}
	if config.Instruments.Path == "" {
		config.Instruments.Path = "./instruments.csv"
	}
	if config.Instruments.ParquetPath == "" {
		config.Instruments.ParquetPath = "./instruments.parquet"
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tradelogin-session.json"
	}
	return filepath.Join(dir, "tradelogin", "session.json")
}
