// Package config loads controller settings from configs/config.yml, ENVCTL_
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"environment_controller/internal/models"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Persistence formats.
const (
	FormatFlat   = "flat"
	FormatRecord = "record"
	FormatSQLite = "sqlite"
)

type Config struct {
	Port        string            `mapstructure:"port"`
	Log         LogConfig         `mapstructure:"log"`
	Devices     models.Names      `mapstructure:"devices"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Events      EventsConfig      `mapstructure:"events"`
	Snapshot    SnapshotConfig    `mapstructure:"snapshot"`
	Simulator   SimulatorConfig   `mapstructure:"simulator"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	WS          WSConfig          `mapstructure:"ws"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PersistenceConfig struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
	// LegacyPath is imported once by the record format when Path is absent.
	LegacyPath          string        `mapstructure:"legacy_path"`
	ResetOnWriteFailure bool          `mapstructure:"reset_on_write_failure"`
	CheckpointInterval  time.Duration `mapstructure:"checkpoint_interval"`
}

type EventsConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	DBPath    string        `mapstructure:"db_path"`
	Retention time.Duration `mapstructure:"retention"`
}

type SnapshotConfig struct {
	Batch bool `mapstructure:"batch"`
}

type SimulatorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Tick    time.Duration `mapstructure:"tick"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type WSConfig struct {
	// AllowedOrigins empty means any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

var errInvalidConfig = errors.New("invalid config")

func setDefaults(v *viper.Viper) {
	names := models.DefaultNames()

	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("devices.actuators", names.Actuators)
	v.SetDefault("devices.pumps", names.Pumps)
	v.SetDefault("devices.water_levels", names.WaterLevels)
	v.SetDefault("devices.sensors", names.Sensors)
	v.SetDefault("persistence.format", FormatFlat)
	v.SetDefault("persistence.path", "State/Config.txt")
	v.SetDefault("persistence.legacy_path", "")
	v.SetDefault("persistence.reset_on_write_failure", true)
	v.SetDefault("persistence.checkpoint_interval", time.Duration(0))
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.db_path", "data/events.db")
	v.SetDefault("events.retention", time.Duration(0))
	v.SetDefault("snapshot.batch", true)
	v.SetDefault("simulator.enabled", false)
	v.SetDefault("simulator.tick", time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("ws.allowed_origins", []string{})
}

// Flags registers the command-line flags Load understands.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config file (default: configs/config.yml)")
	fs.String("port", "", "HTTP listen port")
	fs.String("log-level", "", "log level: debug|info|warn|error")
	fs.String("persistence-format", "", "state format: flat|record|sqlite")
	fs.String("persistence-path", "", "state file path")
	fs.Bool("simulator", false, "run the bench simulator")
}

// Load reads configuration. A missing config file is not an error; every key
// has a default.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ENVCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := ""
	if fs != nil {
		file, _ = fs.GetString("config")
		for key, flag := range map[string]string{
			"port":               "port",
			"log.level":          "log-level",
			"persistence.format": "persistence-format",
			"persistence.path":   "persistence-path",
			"simulator.enabled":  "simulator",
		} {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks device names and enumerated options.
func (c *Config) Validate() error {
	if err := c.Devices.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errInvalidConfig, err)
	}
	switch c.Persistence.Format {
	case FormatFlat, FormatRecord, FormatSQLite:
	default:
		return fmt.Errorf("%w: persistence.format %q", errInvalidConfig, c.Persistence.Format)
	}
	if c.Persistence.Path == "" {
		return fmt.Errorf("%w: persistence.path is empty", errInvalidConfig)
	}
	if c.Simulator.Enabled && c.Simulator.Tick <= 0 {
		return fmt.Errorf("%w: simulator.tick must be positive", errInvalidConfig)
	}
	if c.Persistence.CheckpointInterval < 0 || c.Events.Retention < 0 {
		return fmt.Errorf("%w: negative interval", errInvalidConfig)
	}
	return nil
}
