// Package config loads client settings from a config file, a .env file and
// CARDBOARD_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CARDBOARD_API_URL.
const EnvPrefix = "CARDBOARD"

// Config holds the application configuration.
type Config struct {
	APIURL               string        `mapstructure:"api_url"`
	WebURL               string        `mapstructure:"web_url"`
	SessionDB            string        `mapstructure:"session_db"`
	PageSize             int           `mapstructure:"page_size"`
	TokenLifetime        time.Duration `mapstructure:"token_lifetime"`
	SessionCheckInterval time.Duration `mapstructure:"session_check_interval"`
	DevMode              bool          `mapstructure:"dev_mode"`
	SampleCount          int           `mapstructure:"sample_count"`
	SampleRPS            float64       `mapstructure:"sample_rps"`
	LogFile              string        `mapstructure:"log_file"`
	Verbose              bool          `mapstructure:"verbose"`
	DevServer            DevServer     `mapstructure:"devserver"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// DevServer configures the local fake backend.
type DevServer struct {
	Addr     string        `mapstructure:"addr"`
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	Latency  time.Duration `mapstructure:"latency"`
}

// Dir returns the default configuration directory, ~/.config/cardboard.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cardboard"
	}
	return filepath.Join(home, ".config", "cardboard")
}

func setDefaults(v *viper.Viper) {
	dir := Dir()
	v.SetDefault("api_url", "http://localhost:3000/api")
	v.SetDefault("web_url", "")
	v.SetDefault("session_db", filepath.Join(dir, "session.db"))
	v.SetDefault("page_size", 6)
	v.SetDefault("token_lifetime", 24*time.Hour)
	v.SetDefault("session_check_interval", 5*time.Minute)
	v.SetDefault("dev_mode", false)
	v.SetDefault("sample_count", 10)
	v.SetDefault("sample_rps", 5.0)
	v.SetDefault("log_file", filepath.Join(dir, "cardboard.log"))
	v.SetDefault("verbose", false)
	v.SetDefault("devserver.addr", "127.0.0.1:3000")
	v.SetDefault("devserver.secret", "cardboard-dev-secret")
	v.SetDefault("devserver.token_ttl", 24*time.Hour)
	v.SetDefault("devserver.latency", time.Duration(0))
}

// Load reads the configuration. path names an explicit config file; when
// empty, config.{json,yaml,toml} is looked up in Dir() and the working
// directory, and a missing file is not an error. A .env file in the working
// directory is loaded into the environment first.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.SessionDB = expandHome(cfg.SessionDB)
	cfg.LogFile = expandHome(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an http(s) URL", c.APIURL)
	}
	if c.WebURL != "" {
		if w, err := url.Parse(c.WebURL); err != nil || w.Host == "" {
			return fmt.Errorf("invalid web_url %q", c.WebURL)
		}
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.TokenLifetime <= 0 {
		return fmt.Errorf("token_lifetime must be positive, got %s", c.TokenLifetime)
	}
	if c.SessionCheckInterval <= 0 {
		return fmt.Errorf("session_check_interval must be positive, got %s", c.SessionCheckInterval)
	}
	if c.SampleCount <= 0 {
		return fmt.Errorf("sample_count must be positive, got %d", c.SampleCount)
	}
	return nil
}

// CardURL returns the web app link for a card, or "" when web_url is unset.
func (c Config) CardURL(id string) string {
	if c.WebURL == "" {
		return ""
	}
	return strings.TrimRight(c.WebURL, "/") + "/cards/" + url.PathEscape(id)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
