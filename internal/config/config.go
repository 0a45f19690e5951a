// Package config defines the runtime configuration for the dashboard
// client and its optional config-file overlay.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config defines the runtime configuration for the dashboard client.
// Camera identity is fixed external configuration: the pool receives it at
// construction and nothing in the engine discovers cameras dynamically.
type Config struct {
	BackendBaseURL string        `mapstructure:"backend_base_url"` // http:// origin for alerts, upload, evidence
	StreamBaseURL  string        `mapstructure:"stream_base_url"`  // ws:// origin for per-camera push channels
	Cameras        []int         `mapstructure:"cameras"`          // cameras shown in the grid
	ActiveCameras  []int         `mapstructure:"active_cameras"`   // cameras activated at startup
	PollInterval   time.Duration `mapstructure:"poll_interval"`    // alert feed poll period
	RequestTimeout time.Duration `mapstructure:"request_timeout"`  // plain HTTP request bound
	MetricsAddr    string        `mapstructure:"metrics_addr"`     // Prometheus metrics address (e.g., ":9090")
}

// DefaultConfig returns a config aligned with the reference dashboard: a
// four-tile grid with only camera 0 streaming, polling alerts once a second.
func DefaultConfig() Config {
	return Config{
		BackendBaseURL: "http://localhost:8000",
		StreamBaseURL:  "ws://localhost:8000",
		Cameras:        []int{0, 1, 2, 3},
		ActiveCameras:  []int{0},
		PollInterval:   time.Second,
		RequestTimeout: 10 * time.Second,
		MetricsAddr:    ":9090",
	}
}

// Load overlays an optional YAML config file and matching environment
// variables onto the defaults. An empty cfgFile searches the home
// directory for ".dashboard-client.yaml"; a missing file is not an error.
func Load(cfgFile string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".dashboard-client")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && cfgFile != "" {
			return cfg, fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
		return cfg, nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
