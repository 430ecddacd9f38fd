package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for every runtime environment variable
const EnvPrefix = "JELLYSHELL"

// Runtime holds configuration read from the environment. Variables are named
// after the nested field path, e.g. JELLYSHELL_DISCOVERY_PORT.
type Runtime struct {
	Log       LogConfig
	Discovery DiscoveryConfig
	Display   DisplayConfig
	Link      LinkConfig
	Settings  SettingsConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `split_words:"true" default:"info"`
	Development bool   `split_words:"true" default:"false"`
	RingSize    int    `split_words:"true" default:"100"`
}

// DiscoveryConfig holds server discovery configuration.
type DiscoveryConfig struct {
	Port        int           `split_words:"true" default:"7359"`
	Interval    time.Duration `split_words:"true" default:"10s"`
	ReadTimeout time.Duration `split_words:"true" default:"1s"`
}

// DisplayConfig holds display negotiation configuration.
type DisplayConfig struct {
	ForceTV   bool   `split_words:"true" default:"false"`
	ModesFile string `split_words:"true"`
}

// LinkConfig holds renderer link configuration.
type LinkConfig struct {
	Addr string `split_words:"true" default:"127.0.0.1:8096"`
}

// SettingsConfig locates the persisted settings file.
type SettingsConfig struct {
	Path string `split_words:"true"`
}

// Load loads runtime configuration from environment variables.
func Load() (*Runtime, error) {
	var cfg Runtime
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns defaults.
func LoadOrDefault() *Runtime {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default runtime configuration.
func Default() *Runtime {
	return &Runtime{
		Log: LogConfig{
			Level:    "info",
			RingSize: 100,
		},
		Discovery: DiscoveryConfig{
			Port:        7359,
			Interval:    10 * time.Second,
			ReadTimeout: time.Second,
		},
		Link: LinkConfig{
			Addr: "127.0.0.1:8096",
		},
	}
}

// OpenSettings opens the settings store named by the runtime config, or the
// default location under the home directory.
func (r *Runtime) OpenSettings() (*FileStore, error) {
	if r.Settings.Path != "" {
		return Open(r.Settings.Path)
	}
	return OpenDefault()
}
