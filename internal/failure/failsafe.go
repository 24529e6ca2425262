package failure

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/rpcfail/internal/core/domain"
	"github.com/vietddude/rpcfail/internal/metrics"
)

type retryKind string

const (
	retryConnect  retryKind = "connect"
	retryDispatch retryKind = "dispatch"
)

// failsafe retries connect and delivery failures on the same server with a
// linear backoff; every other class is terminal on first occurrence. The
// retry budget is shared by all retryable classes of one call.
func (e *Engine) failsafe(
	ctx context.Context,
	code domain.ErrorCode,
	tr *Tracer,
	serverID string,
	msg *domain.Message,
	opts Options,
) {
	tr.retryCount++
	withinBudget := tr.retryCount <= opts.retryTimes()

	var rpcErr *domain.RPCError
	switch code {
	case domain.ErrServerNotStarted:
		rpcErr = domain.NewRPCError("rpc server is not start", code.RPCCode())

	case domain.ErrNoTargetServer:
		rpcErr = domain.NewRPCError("rpc client cannot find remote server.", code.RPCCode())

	case domain.ErrFailConnectServer:
		if withinBudget {
			e.scheduleRetry(ctx, retryConnect, tr, serverID, msg, opts)
			return
		}
		rpcErr = domain.NewRPCError(
			fmt.Sprintf("rpc client failed to connect to remote server: %s", serverID),
			code.RPCCode(),
		)

	case domain.ErrFailFindMailbox, domain.ErrFailSendMessage:
		if withinBudget {
			e.scheduleRetry(ctx, retryDispatch, tr, serverID, msg, opts)
			return
		}
		if code == domain.ErrFailFindMailbox {
			rpcErr = domain.NewRPCError("rpc client failed to find mailbox", code.RPCCode())
		} else {
			rpcErr = domain.NewRPCError(
				fmt.Sprintf("rpc client failed to send message to remote server: %s", serverID),
				code.RPCCode(),
			)
		}

	case domain.ErrFilterError:
		rpcErr = domain.NewRPCError("rpc client filter encounters error.", code.RPCCode())

	default:
		rpcErr = domain.NewRPCError("rpc client unknown error.", domain.RPCUnknown)
	}

	e.logger.Warn("RPC call failed",
		"tracer", tr.ID,
		"server", serverID,
		"code", rpcErr.Code,
		"attempts", tr.retryCount,
	)
	e.terminate(tr, opts.FailMode, string(rpcErr.Code), rpcErr)
}

// retryDelay is the backoff before retry attempt n (1-based).
func retryDelay(opts Options, attempt int) time.Duration {
	return opts.retryInterval() * time.Duration(attempt)
}

func (e *Engine) scheduleRetry(
	ctx context.Context,
	kind retryKind,
	tr *Tracer,
	serverID string,
	msg *domain.Message,
	opts Options,
) {
	delay := retryDelay(opts, tr.retryCount)
	e.logger.Debug("Scheduling retry",
		"tracer", tr.ID,
		"kind", kind,
		"server", serverID,
		"attempt", tr.retryCount,
		"delay", delay,
	)
	metrics.RetriesScheduled.WithLabelValues(opts.FailMode.String(), string(kind)).Inc()

	e.scheduler.After(delay, func() {
		switch kind {
		case retryConnect:
			e.connector.Connect(ctx, tr, serverID, msg, opts)
		default:
			e.dispatcher.Dispatch(ctx, tr, serverID, msg, opts)
		}
	})
}
