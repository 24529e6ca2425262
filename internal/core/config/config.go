package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/rpcfail/internal/core/domain"
	"github.com/vietddude/rpcfail/internal/failure"
	"github.com/vietddude/rpcfail/internal/infra/discovery"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Client    ClientConfig    `yaml:"client"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ClientConfig holds the failure policy of the RPC client.
type ClientConfig struct {
	FailMode             string        `yaml:"fail_mode"`              // failover, failback, failfast, failsafe
	RetryTimes           int           `yaml:"retry_times"`            // failsafe retry budget
	RetryConnectInterval time.Duration `yaml:"retry_connect_interval"` // multiplied by the attempt number
}

// DiscoveryConfig selects where candidate servers come from. Redis wins when
// its URL is set.
type DiscoveryConfig struct {
	Static map[string][]string   `yaml:"static"` // server type -> ordered server IDs
	Redis  discovery.RedisConfig `yaml:"redis"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SlogLevel maps Level onto slog. Names are case-insensitive.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// JSON reports whether records should be written as JSON instead of the
// colored console format.
func (c LoggingConfig) JSON() bool {
	return strings.EqualFold(c.Format, "json")
}

func (c LoggingConfig) validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
		return nil
	}
	return fmt.Errorf("logging.format: unknown format %q", c.Format)
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // listen address, ":9090" when empty
}

// FailureOptions converts the client section into engine options.
func (c ClientConfig) FailureOptions() (failure.Options, error) {
	mode, err := domain.ParseFailMode(c.FailMode)
	if err != nil {
		return failure.Options{}, fmt.Errorf("client.fail_mode: %w", err)
	}
	return failure.Options{
		FailMode:             mode,
		RetryTimes:           c.RetryTimes,
		RetryConnectInterval: c.RetryConnectInterval,
	}, nil
}
