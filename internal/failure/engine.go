package failure

import (
	"context"
	"log/slog"

	"github.com/vietddude/rpcfail/internal/core/domain"
	"github.com/vietddude/rpcfail/internal/metrics"
)

// Config wires the engine to its collaborators.
type Config struct {
	Discoverer Discoverer
	Dispatcher Dispatcher
	Connector  Connector
	Scheduler  Scheduler
	Logger     *slog.Logger
}

// Engine routes failed attempts to the strategy selected by the fail mode.
// It keeps no per-call state; everything lives on the Tracer.
type Engine struct {
	discoverer Discoverer
	dispatcher Dispatcher
	connector  Connector
	scheduler  Scheduler
	logger     *slog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		discoverer: cfg.Discoverer,
		dispatcher: cfg.Dispatcher,
		connector:  cfg.Connector,
		scheduler:  cfg.Scheduler,
		logger:     logger.With("component", "failure"),
	}
}

type strategy int

const (
	strategyFailsafe strategy = iota
	strategyFailover
	strategyFailback
	strategyFailfast
)

// strategyFor maps a fail mode onto its strategy. Unknown modes get failsafe.
func strategyFor(mode domain.FailMode) strategy {
	switch mode {
	case domain.FailModeFailover:
		return strategyFailover
	case domain.FailModeFailback:
		return strategyFailback
	case domain.FailModeFailfast:
		return strategyFailfast
	default:
		return strategyFailsafe
	}
}

// Route handles one failed attempt of the call tracked by tr. It results in
// exactly one of: a (possibly delayed) new attempt, or the completion.
func (e *Engine) Route(
	ctx context.Context,
	code domain.ErrorCode,
	tr *Tracer,
	serverID string,
	msg *domain.Message,
	opts Options,
) {
	if tr.Done() {
		e.logger.Warn("Dropping failure for completed call",
			"tracer", tr.ID, "server", serverID, "code", code)
		return
	}

	switch strategyFor(opts.FailMode) {
	case strategyFailover:
		e.failover(ctx, tr, serverID, msg, opts)
	case strategyFailback:
		e.failback(code, tr, serverID, msg)
	case strategyFailfast:
		e.failfast(code, tr, serverID, msg)
	default:
		e.failsafe(ctx, code, tr, serverID, msg, opts)
	}
}

// terminate delivers a terminal error and records it under label.
func (e *Engine) terminate(tr *Tracer, mode domain.FailMode, label string, err error) {
	if tr.Complete(nil, err) {
		metrics.TerminalFailures.WithLabelValues(mode.String(), label).Inc()
	}
}
