package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/rpcfail/internal/failure"
)

// DefaultMetricsAddr is where /metrics is served when metrics.addr is unset.
const DefaultMetricsAddr = ":9090"

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Client.FailMode == "" {
		cfg.Client.FailMode = "failsafe"
	}
	if cfg.Client.RetryTimes == 0 {
		cfg.Client.RetryTimes = failure.DefaultRetryTimes
	}
	if cfg.Client.RetryConnectInterval == 0 {
		cfg.Client.RetryConnectInterval = failure.DefaultRetryConnectInterval
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}

	if _, err := cfg.Client.FailureOptions(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
