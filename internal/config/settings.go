package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rgehrsitz/whatif/internal/adjustment"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. WHATIF_DB_PATH.
const EnvPrefix = "WHATIF"

// Settings are the application settings shared by the CLI and the server.
type Settings struct {
	DBPath         string `mapstructure:"db_path" toml:"db_path"`
	LogLevel       string `mapstructure:"log_level" toml:"log_level"`
	LogFormat      string `mapstructure:"log_format" toml:"log_format"`
	AdjustmentMode string `mapstructure:"adjustment_mode" toml:"adjustment_mode"`
	ServerAddr     string `mapstructure:"server_addr" toml:"server_addr"`
	Actor          string `mapstructure:"actor" toml:"actor,omitempty"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		DBPath:         filepath.Join(SettingsDir(), "versions.db"),
		LogLevel:       "info",
		LogFormat:      "text",
		AdjustmentMode: string(adjustment.ModeInPlace),
		ServerAddr:     "localhost:8080",
	}
}

// SettingsDir returns the XDG-style settings directory.
func SettingsDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "whatif")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "whatif")
}

// SettingsPath returns the default settings file path.
func SettingsPath() string {
	return filepath.Join(SettingsDir(), "settings.toml")
}

func setDefaults(v *viper.Viper) {
	def := DefaultSettings()
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("adjustment_mode", def.AdjustmentMode)
	v.SetDefault("server_addr", def.ServerAddr)
	v.SetDefault("actor", "")
}

// LoadSettings resolves settings from defaults, the settings file and the
// environment, in increasing priority. A .env file in the working directory
// is loaded into the environment first. An empty path reads the default
// settings file when it exists.
func LoadSettings(path string) (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
		}
	} else {
		v.SetConfigFile(SettingsPath())
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("reading settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks settings that would otherwise fail late.
func (s Settings) Validate() error {
	if _, err := adjustment.ParseMode(s.AdjustmentMode); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	switch strings.ToLower(s.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid settings: log format must be 'text' or 'json', got %q", s.LogFormat)
	}
	if s.DBPath == "" {
		return fmt.Errorf("invalid settings: db_path is required")
	}
	return nil
}

// WriteSettings writes s as TOML to path, creating parent directories. An
// existing file is only replaced when overwrite is set.
func WriteSettings(path string, s Settings, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("settings file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating settings file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
