package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/rpcfail/internal/client"
	"github.com/vietddude/rpcfail/internal/core/domain"
	"github.com/vietddude/rpcfail/internal/infra/discovery"
	"github.com/vietddude/rpcfail/internal/infra/transport"
)

var simulateOpts struct {
	mode            string
	serverType      string
	servers         []string
	code            string
	failures        int
	connectFailures int
	retryTimes      int
	interval        time.Duration
	timeout         time.Duration
	metricsAddr     string
	linger          time.Duration
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one call against scripted failing servers",
	Example: `  rpcfail simulate --mode failover --servers s1,s2 --failures 1
  rpcfail simulate --mode failsafe --code FailConnectServer --failures 5 --retry-times 2
  rpcfail simulate --mode failover --servers s1,s2 --metrics-addr :9090 --linger 1m`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateOpts.mode, "mode", "", "fail mode, overrides client.fail_mode")
	f.StringVar(&simulateOpts.serverType, "server-type", "connector", "server type of the message")
	f.StringSliceVar(&simulateOpts.servers, "servers", nil, "candidate servers, overrides discovery")
	f.StringVar(&simulateOpts.code, "code", domain.ErrFailSendMessage.String(), "error code every scripted failure reports")
	f.IntVar(&simulateOpts.failures, "failures", 1, "failing sends per server before it succeeds")
	f.IntVar(&simulateOpts.connectFailures, "connect-failures", 0, "failing reconnects per server")
	f.IntVar(&simulateOpts.retryTimes, "retry-times", 0, "failsafe retry budget, overrides client.retry_times")
	f.DurationVar(&simulateOpts.interval, "interval", 0, "failsafe retry interval, overrides client.retry_connect_interval")
	f.DurationVar(&simulateOpts.timeout, "timeout", 30*time.Second, "overall call timeout")
	f.StringVar(&simulateOpts.metricsAddr, "metrics-addr", "", "serve /metrics on this address, overrides metrics.addr")
	f.DurationVar(&simulateOpts.linger, "linger", 0, "keep /metrics up this long after the call")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if simulateOpts.mode != "" {
		cfg.Client.FailMode = simulateOpts.mode
	}
	if simulateOpts.retryTimes != 0 {
		cfg.Client.RetryTimes = simulateOpts.retryTimes
	}
	if simulateOpts.interval != 0 {
		cfg.Client.RetryConnectInterval = simulateOpts.interval
	}
	opts, err := cfg.Client.FailureOptions()
	if err != nil {
		return err
	}

	code, err := domain.ParseErrorCode(simulateOpts.code)
	if err != nil {
		return err
	}

	if simulateOpts.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = simulateOpts.metricsAddr
	}
	stopMetrics := startMetrics(cfg.Metrics)
	defer stopMetrics()

	ctx, cancel := context.WithTimeout(cmd.Context(), simulateOpts.timeout)
	defer cancel()

	var registry serverRegistry
	if len(simulateOpts.servers) > 0 {
		registry = staticRegistry{discovery.NewStatic(map[string][]string{
			simulateOpts.serverType: simulateOpts.servers,
		})}
	} else {
		registry, err = openRegistry(ctx, cfg)
		if err != nil {
			return err
		}
	}
	defer func() {
		_ = registry.Close()
	}()

	servers, err := registry.DiscoverServers(ctx, simulateOpts.serverType)
	if err != nil {
		return fmt.Errorf("discover %s servers: %w", simulateOpts.serverType, err)
	}

	scripts := make(map[string]transport.Script, len(servers))
	for _, id := range servers {
		scripts[id] = transport.Script{
			Code:            code,
			Failures:        simulateOpts.failures,
			ConnectFailures: simulateOpts.connectFailures,
		}
	}
	tp := transport.NewScripted(scripts)

	c := client.New(client.Config{
		Options:    opts,
		Discoverer: registry,
		Transport:  tp,
	})
	go func() {
		_ = c.Run(ctx)
	}()
	defer c.Stop()

	slog.Info("Simulating call",
		"mode", opts.FailMode,
		"server_type", simulateOpts.serverType,
		"servers", strings.Join(servers, ","),
		"code", code,
		"failures", simulateOpts.failures,
		"retry_times", opts.RetryTimes,
		"interval", opts.RetryConnectInterval,
	)

	start := time.Now()
	result, err := c.Invoke(ctx, &domain.Message{
		ServerType: simulateOpts.serverType,
		Service:    "simulate",
		Method:     "ping",
	})
	elapsed := time.Since(start)

	for _, id := range servers {
		slog.Info("Server traffic", "server", id, "sends", tp.Sends(id), "connects", tp.Connects(id))
	}

	if err != nil {
		rpcCode, _ := domain.RPCCodeOf(err)
		slog.Error("Call failed", "error", err, "rpc_code", rpcCode, "elapsed", elapsed)
	} else {
		slog.Info("Call succeeded", "result", result, "elapsed", elapsed)
	}

	if cfg.Metrics.Enabled && simulateOpts.linger > 0 {
		slog.Info("Keeping metrics up", "addr", cfg.Metrics.Addr, "linger", simulateOpts.linger)
		select {
		case <-time.After(simulateOpts.linger):
		case <-cmd.Context().Done():
		}
	}
	return nil
}
