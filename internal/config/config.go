package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jask/webforge/internal/model"
)

const appName = "webforge"

// Config holds application configuration.
type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Form     FormConfig     `mapstructure:"form"`
}

// BackendConfig points at the builder service.
type BackendConfig struct {
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig locates the token slot.
type SessionConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig controls slog output. An empty File means stderr.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// FormConfig is the initial state of the builder form.
type FormConfig struct {
	Prompt    string `mapstructure:"prompt"`
	Framework string `mapstructure:"framework"`
	Database  string `mapstructure:"database"`
	Template  string `mapstructure:"template"`
}

const defaultPrompt = "Build a SaaS project management app with React frontend, Next.js routing, Python backend, PostgreSQL, authentication, admin dashboard, notifications, file uploads, and payment integration."

// Load reads configuration from an optional .env file, the TOML config file
// and the environment. Env var overrides use prefix WEBFORGE_.
func Load() (Config, error) {
	// .env is optional; a missing file is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("WEBFORGE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", appName))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("WEBFORGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("backend.rate_per_second", 5.0)
	v.SetDefault("backend.burst", 5)
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", appName, appName+".db"))
	v.SetDefault("session.dir", defaultSessionDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("form.prompt", defaultPrompt)
	v.SetDefault("form.framework", string(model.FrameworkReact))
	v.SetDefault("form.database", string(model.DatabaseMongoDB))
	v.SetDefault("form.template", string(model.TemplateSaaS))
}

func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.Getenv("HOME"), ".config", appName)
	}
	return filepath.Join(dir, appName)
}

// Validate rejects configurations the client cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url must be an absolute URL, got %q", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Backend.RatePerSecond < 0 || c.Backend.Burst < 0 {
		return fmt.Errorf("backend rate limits must not be negative")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Session.Dir == "" {
		return fmt.Errorf("session.dir is required")
	}
	return nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// Used by the TUI to remember the last form selection.
func Save(cfg Config) error {
	path := os.Getenv("WEBFORGE_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", appName, "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("backend.url", cfg.Backend.URL)
	v.Set("backend.timeout", cfg.Backend.Timeout.String())
	v.Set("backend.rate_per_second", cfg.Backend.RatePerSecond)
	v.Set("backend.burst", cfg.Backend.Burst)
	v.Set("database.path", cfg.Database.Path)
	v.Set("session.dir", cfg.Session.Dir)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("form.prompt", cfg.Form.Prompt)
	v.Set("form.framework", cfg.Form.Framework)
	v.Set("form.database", cfg.Form.Database)
	v.Set("form.template", cfg.Form.Template)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
