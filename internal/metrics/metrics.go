package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetriesScheduled tracks failsafe retries per fail mode and retry kind (connect, dispatch)
	RetriesScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcfail_retries_scheduled_total",
			Help: "Total number of retries scheduled by the failure engine",
		},
		[]string{"mode", "kind"},
	)

	// Redispatches tracks failover redispatches per server type
	Redispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcfail_redispatch_total",
			Help: "Total number of failover redispatches to another server",
		},
		[]string{"server_type"},
	)

	// TerminalFailures tracks calls that ended with an error
	TerminalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcfail_terminal_total",
			Help: "Total number of calls completed with a terminal error",
		},
		[]string{"mode", "code"},
	)

	// CallsCompleted tracks calls completed successfully by the client
	CallsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpcfail_calls_completed_total",
			Help: "Total number of calls completed successfully",
		},
		[]string{"server_type"},
	)
)
