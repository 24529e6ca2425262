package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/rpcfail/internal/core/config"
	"github.com/vietddude/rpcfail/internal/failure"
	"github.com/vietddude/rpcfail/internal/infra/discovery"
	"github.com/vietddude/rpcfail/internal/metrics"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "rpcfail",
	Short: "RPC client failure-policy toolkit",
	Long: `rpcfail drives the RPC client failure engine: simulate how a fail mode
reacts to transport failures and manage the candidate servers kept in Redis.`,
	PersistentPreRun: setupLogging,
	SilenceUsage:     true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (defaults are used when empty)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

func setupLogging(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	slogLevel := slog.LevelInfo
	if isDebug {
		slogLevel = slog.LevelDebug
	}
	initLogger(slogLevel, false)
}

// initLogger installs the default logger: colored console output, or JSON
// records on stderr for log collectors.
func initLogger(level slog.Level, asJSON bool) {
	if asJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

// loadConfig reads --config, falling back to defaults when no file is given.
func loadConfig() (*config.AppConfig, error) {
	if cfgPath == "" {
		return config.Parse(nil)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, err
	}
	if isDebug {
		level = slog.LevelDebug
	}
	initLogger(level, cfg.Logging.JSON())
	return cfg, nil
}

// serverRegistry is the discovery backend selected by config.
type serverRegistry interface {
	failure.Discoverer
	Close() error
}

type staticRegistry struct {
	*discovery.Static
}

func (staticRegistry) Close() error { return nil }

// startMetrics serves /metrics when enabled. The returned func shuts the
// listener down.
func startMetrics(cfg config.MetricsConfig) func() {
	if !cfg.Enabled {
		return func() {}
	}
	srv := metrics.NewServer(cfg.Addr)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "addr", cfg.Addr, "error", err)
		}
	}()
	slog.Info("Serving metrics", "addr", cfg.Addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			slog.Warn("Metrics server shutdown failed", "error", err)
		}
	}
}

func openRegistry(ctx context.Context, cfg *config.AppConfig) (serverRegistry, error) {
	if cfg.Discovery.Redis.URL == "" {
		return staticRegistry{discovery.NewStatic(cfg.Discovery.Static)}, nil
	}
	r, err := discovery.NewRedis(ctx, cfg.Discovery.Redis)
	if err != nil {
		return nil, fmt.Errorf("open redis discovery: %w", err)
	}
	return r, nil
}
