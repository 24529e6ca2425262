// Package failure implements the failure-policy engine of the RPC client.
//
// When an attempt fails the transport reports the failure to Engine.Route,
// which picks a strategy from the configured fail mode:
//   - failsafe: classify the error code, retry transient classes on the same
//     server with linear backoff, report permanent classes immediately
//   - failover: drop the failing server from the call's candidate set and
//     redispatch to the next one
//   - failfast: log and report immediately
//   - failback: unsupported, reported as ErrUnsupportedFailMode
//
// Every outcome reaches the caller through the Tracer's completion, which is
// delivered exactly once per logical call.
package failure

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/rpcfail/internal/core/domain"
)

const (
	DefaultRetryTimes           = 3
	DefaultRetryConnectInterval = 500 * time.Millisecond
)

var (
	ErrAllServersFailed    = errors.New("rpc failed with all this type of servers")
	ErrFailFast            = errors.New("rpc failed with error code")
	ErrUnsupportedFailMode = errors.New("unsupported fail mode")
)

// Options is the immutable per-client failure configuration.
type Options struct {
	FailMode             domain.FailMode
	RetryTimes           int
	RetryConnectInterval time.Duration
}

// DefaultOptions returns failsafe with the default retry budget.
func DefaultOptions() Options {
	return Options{
		FailMode:             domain.FailModeFailsafe,
		RetryTimes:           DefaultRetryTimes,
		RetryConnectInterval: DefaultRetryConnectInterval,
	}
}

// retryTimes returns the retry budget. Zero means unset; negative disables retries.
func (o Options) retryTimes() int {
	if o.RetryTimes == 0 {
		return DefaultRetryTimes
	}
	return o.RetryTimes
}

func (o Options) retryInterval() time.Duration {
	if o.RetryConnectInterval <= 0 {
		return DefaultRetryConnectInterval
	}
	return o.RetryConnectInterval
}

// Discoverer resolves the ordered candidate servers for a server type.
type Discoverer interface {
	DiscoverServers(ctx context.Context, serverType string) ([]string, error)
}

// Dispatcher re-attempts delivery of msg to serverID. A failed attempt is
// reported back through Engine.Route.
type Dispatcher interface {
	Dispatch(ctx context.Context, tr *Tracer, serverID string, msg *domain.Message, opts Options)
}

// Connector re-establishes the connection to serverID and then delivers msg.
type Connector interface {
	Connect(ctx context.Context, tr *Tracer, serverID string, msg *domain.Message, opts Options)
}

// Scheduler runs fn once after delay. Scheduled functions are never cancelled.
type Scheduler interface {
	After(delay time.Duration, fn func())
}
