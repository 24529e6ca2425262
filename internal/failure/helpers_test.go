package failure

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/rpcfail/internal/core/domain"
)

// =============================================================================
// Fake collaborators
// =============================================================================

type attempt struct {
	tracer   *Tracer
	serverID string
	msg      *domain.Message
}

type scheduled struct {
	delay time.Duration
	fn    func()
}

// manualScheduler queues timers until the test fires them.
type manualScheduler struct {
	pending []scheduled
	delays  []time.Duration
}

func (s *manualScheduler) After(delay time.Duration, fn func()) {
	s.pending = append(s.pending, scheduled{delay: delay, fn: fn})
	s.delays = append(s.delays, delay)
}

// fireNext runs the oldest pending timer. It reports false if none is pending.
func (s *manualScheduler) fireNext() bool {
	if len(s.pending) == 0 {
		return false
	}
	next := s.pending[0]
	s.pending = s.pending[1:]
	next.fn()
	return true
}

type fakeDispatcher struct {
	calls []attempt
	// onDispatch, when set, runs after the call has been recorded.
	onDispatch func(ctx context.Context, tr *Tracer, serverID string, msg *domain.Message, opts Options)
}

func (d *fakeDispatcher) Dispatch(
	ctx context.Context,
	tr *Tracer,
	serverID string,
	msg *domain.Message,
	opts Options,
) {
	d.calls = append(d.calls, attempt{tracer: tr, serverID: serverID, msg: msg})
	if d.onDispatch != nil {
		d.onDispatch(ctx, tr, serverID, msg, opts)
	}
}

type fakeConnector struct {
	calls     []attempt
	onConnect func(ctx context.Context, tr *Tracer, serverID string, msg *domain.Message, opts Options)
}

func (c *fakeConnector) Connect(
	ctx context.Context,
	tr *Tracer,
	serverID string,
	msg *domain.Message,
	opts Options,
) {
	c.calls = append(c.calls, attempt{tracer: tr, serverID: serverID, msg: msg})
	if c.onConnect != nil {
		c.onConnect(ctx, tr, serverID, msg, opts)
	}
}

type fakeDiscoverer struct {
	servers map[string][]string
	err     error
	calls   int
}

func (d *fakeDiscoverer) DiscoverServers(ctx context.Context, serverType string) ([]string, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.servers[serverType], nil
}

// =============================================================================
// Harness
// =============================================================================

type outcome struct {
	result any
	err    error
}

type harness struct {
	engine     *Engine
	scheduler  *manualScheduler
	dispatcher *fakeDispatcher
	connector  *fakeConnector
	discoverer *fakeDiscoverer
	outcomes   []outcome
	logs       bytes.Buffer
}

func newHarness(servers map[string][]string) *harness {
	h := &harness{
		scheduler:  &manualScheduler{},
		dispatcher: &fakeDispatcher{},
		connector:  &fakeConnector{},
		discoverer: &fakeDiscoverer{servers: servers},
	}
	h.engine = New(Config{
		Discoverer: h.discoverer,
		Dispatcher: h.dispatcher,
		Connector:  h.connector,
		Scheduler:  h.scheduler,
		Logger:     slog.New(slog.NewTextHandler(&h.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	return h
}

// logCount returns how many records were logged at level.
func (h *harness) logCount(level slog.Level) int {
	n := 0
	for _, line := range strings.Split(h.logs.String(), "\n") {
		if strings.Contains(line, " level="+level.String()+" ") {
			n++
		}
	}
	return n
}

func (h *harness) newTracer() *Tracer {
	return NewTracer(func(result any, err error) {
		h.outcomes = append(h.outcomes, outcome{result: result, err: err})
	})
}

// failForever makes every redelivery fail again with code.
func (h *harness) failForever(code domain.ErrorCode) {
	route := func(ctx context.Context, tr *Tracer, serverID string, msg *domain.Message, opts Options) {
		h.engine.Route(ctx, code, tr, serverID, msg, opts)
	}
	h.dispatcher.onDispatch = route
	h.connector.onConnect = route
}

func (h *harness) drain() {
	for h.scheduler.fireNext() {
	}
}

var errDiscovery = errors.New("registry unavailable")

func testMessage(serverType string) *domain.Message {
	return &domain.Message{ServerType: serverType, Service: "chatRemote", Method: "add"}
}
