package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the optional config file inside the system directory.
const ConfigFile = "tabnotes.yaml"

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "TABNOTES_LOG_LEVEL"

// Config is the user configuration of a store, read from ConfigFile.
type Config struct {
	Backend  string        `yaml:"backend"`
	Key      string        `yaml:"key"`
	Debounce time.Duration `yaml:"debounce"`
	Log      LogConfig     `yaml:"log"`
	UI       UIConfig      `yaml:"ui"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// UIConfig configures the terminal front end.
type UIConfig struct {
	Preview   bool `yaml:"preview"`
	ListWidth int  `yaml:"list_width"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Backend: AdapterFS,
		Log:     LogConfig{Level: "info"},
		UI:      UIConfig{ListWidth: 32},
	}
}

// LoadConfig reads <root>/.tabnotes/tabnotes.yaml over the defaults and then
// applies environment overrides. A missing file is not an error.
func LoadConfig(root string) (Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(DataDir(root), ConfigFile)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}
	if _, err := cfg.LogLevel(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LogLevel parses Log.Level. An empty level is info.
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if strings.TrimSpace(c.Log.Level) == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return lvl, nil
}

// Options translates the file settings into store options.
func (c Config) Options() []Option {
	var opts []Option
	if c.Backend != "" {
		opts = append(opts, WithAdapter(c.Backend))
	}
	if c.Key != "" {
		opts = append(opts, WithStoreKey(c.Key))
	}
	if c.Debounce > 0 {
		opts = append(opts, WithEventBuffer(c.Debounce))
	}
	return opts
}
