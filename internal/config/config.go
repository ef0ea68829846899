package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "VEHICORE"
	configName = "vehicore"
)

var ErrInvalidTickRate = errors.New("config: simulation.tickRate must be positive")

type Config struct {
	LogLevel   string           `mapstructure:"logLevel"`
	LogFormat  string           `mapstructure:"logFormat"` // "json" or "console"
	Simulation SimulationConfig `mapstructure:"simulation"`
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

type SimulationConfig struct {
	// TickRate is the number of ticks per second.
	TickRate int `mapstructure:"tickRate"`
	// Scenario is the YAML file describing the world and its entities.
	Scenario string `mapstructure:"scenario"`
	// SaveInterval is how often stateful variables are flushed to storage.
	SaveInterval time.Duration `mapstructure:"saveInterval"`
}

// TickInterval is the wall-clock duration of one tick.
func (c SimulationConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

type StorageConfig struct {
	// Path of the SQLite database. Empty keeps variables in memory only.
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "json")

	v.SetDefault("simulation.tickRate", 20)
	v.SetDefault("simulation.scenario", "scenario.yaml")
	v.SetDefault("simulation.saveInterval", "30s")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.writeTimeout", "5s")
	v.SetDefault("server.shutdownTimeout", "10s")

	v.SetDefault("storage.path", "vehicore.db")
}

// Load reads the configuration. With an empty path it looks for vehicore.yaml
// in the working directory and falls back to defaults when there is none; an
// explicit path must exist. VEHICORE_* environment variables override both,
// e.g. VEHICORE_SERVER_ADDR for server.addr.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Simulation.TickRate <= 0 {
		return nil, ErrInvalidTickRate
	}
	return &cfg, nil
}
