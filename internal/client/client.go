// Package client is the RPC client host around the failure engine.
//
// The client owns a single event loop. Calls, transport results and retry
// timers are all executed on that loop, so the failure engine and every call's
// Tracer are only ever touched from one goroutine. Transport I/O runs on its
// own goroutines and posts its result back to the loop.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vietddude/rpcfail/internal/core/domain"
	"github.com/vietddude/rpcfail/internal/failure"
	"github.com/vietddude/rpcfail/internal/infra/loop"
	"github.com/vietddude/rpcfail/internal/infra/transport"
	"github.com/vietddude/rpcfail/internal/metrics"
)

// ErrClientStopped completes calls that were still in flight when the client stopped.
var ErrClientStopped = errors.New("rpc client stopped")

// Transport delivers messages to a resolved server. Errors should be
// classifiable by transport.CodeOf.
type Transport interface {
	Connect(ctx context.Context, serverID string) error
	Send(ctx context.Context, serverID string, msg *domain.Message) (any, error)
}

// Config holds the client's collaborators and failure options.
type Config struct {
	Options    failure.Options
	Discoverer failure.Discoverer
	Transport  Transport
	Logger     *slog.Logger
}

// Client sends RPC messages and applies the configured failure policy.
type Client struct {
	opts       failure.Options
	discoverer failure.Discoverer
	transport  Transport
	loop       *loop.Loop
	engine     *failure.Engine
	log        *slog.Logger

	mu       sync.Mutex
	inflight map[string]*failure.Tracer
}

// New creates a client. Run must be called for calls to make progress.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		opts:       cfg.Options,
		discoverer: cfg.Discoverer,
		transport:  cfg.Transport,
		loop:       loop.New(),
		log:        logger.With("component", "client"),
		inflight:   make(map[string]*failure.Tracer),
	}
	c.engine = failure.New(failure.Config{
		Discoverer: cfg.Discoverer,
		Dispatcher: c,
		Connector:  c,
		Scheduler:  c.loop,
		Logger:     logger,
	})
	return c
}

// Run processes calls until ctx is done or Stop is called.
func (c *Client) Run(ctx context.Context) error {
	c.log.Info("RPC client started", "fail_mode", c.opts.FailMode)
	err := c.loop.Run(ctx)
	c.Stop()
	return err
}

// Stop halts the loop and completes every in-flight call with ErrClientStopped.
func (c *Client) Stop() {
	c.loop.Stop()

	c.mu.Lock()
	pending := make([]*failure.Tracer, 0, len(c.inflight))
	for _, tr := range c.inflight {
		pending = append(pending, tr)
	}
	c.mu.Unlock()

	for _, tr := range pending {
		tr.Complete(nil, ErrClientStopped)
	}
	if len(pending) > 0 {
		c.log.Info("RPC client stopped", "abandoned_calls", len(pending))
	}
}

// Call sends msg to the first candidate of msg.ServerType. completion is
// invoked exactly once, on the loop goroutine unless the client is stopped.
func (c *Client) Call(ctx context.Context, msg *domain.Message, completion failure.Completion) {
	tr := c.newTracer(completion)
	c.post(tr, func() { c.start(ctx, tr, msg) })
}

// CallServer sends msg to serverID directly.
func (c *Client) CallServer(
	ctx context.Context,
	serverID string,
	msg *domain.Message,
	completion failure.Completion,
) {
	tr := c.newTracer(completion)
	c.post(tr, func() { c.Dispatch(ctx, tr, serverID, msg, c.opts) })
}

// Invoke is the blocking form of Call.
func (c *Client) Invoke(ctx context.Context, msg *domain.Message) (any, error) {
	type result struct {
		value any
		err   error
	}
	ch := make(chan result, 1)
	c.Call(ctx, msg, func(value any, err error) {
		ch <- result{value: value, err: err}
	})

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispatch sends msg to serverID and routes a failure to the engine.
func (c *Client) Dispatch(
	ctx context.Context,
	tr *failure.Tracer,
	serverID string,
	msg *domain.Message,
	opts failure.Options,
) {
	if err := ctx.Err(); err != nil {
		tr.Complete(nil, err)
		return
	}

	go func() {
		res, err := c.transport.Send(ctx, serverID, msg)
		c.post(tr, func() {
			if ctxErr := ctx.Err(); ctxErr != nil {
				tr.Complete(nil, ctxErr)
				return
			}
			if err != nil {
				code := transport.CodeOf(err)
				c.log.Debug("RPC attempt failed",
					"tracer", tr.ID, "server", serverID, "code", code, "error", err)
				c.engine.Route(ctx, code, tr, serverID, msg, opts)
				return
			}
			if tr.Complete(res, nil) {
				metrics.CallsCompleted.WithLabelValues(msg.ServerType).Inc()
			}
		})
	}()
}

// Connect re-establishes the connection to serverID and then dispatches msg.
func (c *Client) Connect(
	ctx context.Context,
	tr *failure.Tracer,
	serverID string,
	msg *domain.Message,
	opts failure.Options,
) {
	if err := ctx.Err(); err != nil {
		tr.Complete(nil, err)
		return
	}

	go func() {
		err := c.transport.Connect(ctx, serverID)
		c.post(tr, func() {
			if ctxErr := ctx.Err(); ctxErr != nil {
				tr.Complete(nil, ctxErr)
				return
			}
			if err != nil {
				c.log.Debug("Reconnect failed", "tracer", tr.ID, "server", serverID, "error", err)
				c.engine.Route(ctx, domain.ErrFailConnectServer, tr, serverID, msg, opts)
				return
			}
			c.Dispatch(ctx, tr, serverID, msg, opts)
		})
	}()
}

func (c *Client) start(ctx context.Context, tr *failure.Tracer, msg *domain.Message) {
	servers, err := c.discoverer.DiscoverServers(ctx, msg.ServerType)
	if err != nil {
		c.log.Warn("Server discovery failed", "server_type", msg.ServerType, "error", err)
	}
	if len(servers) == 0 {
		c.engine.Route(ctx, domain.ErrNoTargetServer, tr, "", msg, c.opts)
		return
	}
	c.Dispatch(ctx, tr, servers[0], msg, c.opts)
}

func (c *Client) newTracer(completion failure.Completion) *failure.Tracer {
	var tr *failure.Tracer
	tr = failure.NewTracer(func(result any, err error) {
		c.mu.Lock()
		delete(c.inflight, tr.ID)
		c.mu.Unlock()
		if completion != nil {
			completion(result, err)
		}
	})

	c.mu.Lock()
	c.inflight[tr.ID] = tr
	c.mu.Unlock()
	return tr
}

// post runs fn on the loop, or fails the call if the loop has stopped.
func (c *Client) post(tr *failure.Tracer, fn func()) {
	if !c.loop.Post(fn) {
		tr.Complete(nil, ErrClientStopped)
	}
}
