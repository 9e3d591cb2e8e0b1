package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// BackendConfig describes the hosted database the client talks to.
type BackendConfig struct {
	// Driver selects the database driver: "postgres" for the hosted
	// backend, "sqlite" for a local development database.
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is the connection string. For postgres it should omit the
	// password; the access key stored in the system keyring is
	// appended at connection time.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// UserConfig identifies the signed-in student.
type UserConfig struct {
	// ID is the student identifier used to scope delivery records.
	// Empty means no one is signed in.
	ID string `mapstructure:"id" yaml:"id"`
}

// NotificationsConfig tunes the notification check loop.
type NotificationsConfig struct {
	// PollIntervalSec is how often (in seconds) to check the backend
	// for new notifications while signed in.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// PollInterval returns the poll interval as a duration, falling back to
// 30 seconds for unset or invalid values.
func (c NotificationsConfig) PollInterval() time.Duration {
	if c.PollIntervalSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PollIntervalSec) * time.Second
}

// LogConfig controls the application log file. The terminal itself
// belongs to the TUI, so logs always go to a file.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend       BackendConfig       `mapstructure:"backend" yaml:"backend"`
	User          UserConfig          `mapstructure:"user" yaml:"user"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/campuscompanion/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "campuscompanion", "config.yaml")
}

// defaultDataPath returns the default location of the local SQLite
// database used when no hosted backend is configured.
func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "campus.db")
	}
	return filepath.Join(home, ".local", "share", "campuscompanion", "campus.db")
}

// defaultLogPath returns the default location of the log file.
func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "campus.log")
	}
	return filepath.Join(home, ".local", "state", "campuscompanion", "campus.log")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			Driver: "sqlite",
			DSN:    defaultDataPath(),
		},
		Notifications: NotificationsConfig{
			PollIntervalSec: 30,
		},
		Log: LogConfig{
			File:  defaultLogPath(),
			Level: "info",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("backend.driver", "sqlite")
	v.SetDefault("backend.dsn", defaultDataPath())
	v.SetDefault("notifications.poll_interval_sec", 30)
	v.SetDefault("log.file", defaultLogPath())
	v.SetDefault("log.level", "info")
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Notifications.PollIntervalSec <= 0 {
		cfg.Notifications.PollIntervalSec = 30
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("user", cfg.User)
	v.Set("notifications", cfg.Notifications)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
