package failure

import (
	"context"
	"fmt"
	"slices"

	"github.com/vietddude/rpcfail/internal/core/domain"
	"github.com/vietddude/rpcfail/internal/metrics"
)

const labelAllServersFailed = "ALL_SERVERS_FAILED"

// failover prunes serverID from the call's candidates and redispatches to the
// next one. The error code is irrelevant here.
func (e *Engine) failover(
	ctx context.Context,
	tr *Tracer,
	serverID string,
	msg *domain.Message,
	opts Options,
) {
	serverType := msg.ServerType

	var discoverErr error
	if !tr.serversLoaded {
		var servers []string
		if e.discoverer != nil {
			servers, discoverErr = e.discoverer.DiscoverServers(ctx, serverType)
			if discoverErr != nil {
				e.logger.Warn("Server discovery failed",
					"tracer", tr.ID, "server_type", serverType, "error", discoverErr)
			}
		}
		// The tracer owns its copy; pruning must not touch the registry.
		tr.servers = slices.Clone(servers)
		tr.serversLoaded = true
	}

	tr.servers = slices.DeleteFunc(tr.servers, func(s string) bool { return s == serverID })

	if len(tr.servers) == 0 {
		err := fmt.Errorf("%w, with serverType: %s", ErrAllServersFailed, serverType)
		if discoverErr != nil {
			err = fmt.Errorf("%w: %w", err, discoverErr)
		}
		e.logger.Error("rpc failed with all this type of servers",
			"tracer", tr.ID, "server_type", serverType)
		e.terminate(tr, opts.FailMode, labelAllServersFailed, err)
		return
	}

	next := tr.servers[0]
	e.logger.Debug("Failing over",
		"tracer", tr.ID, "from", serverID, "to", next, "remaining", len(tr.servers))
	metrics.Redispatches.WithLabelValues(serverType).Inc()
	e.dispatcher.Dispatch(ctx, tr, next, msg, opts)
}
