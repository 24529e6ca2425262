package failure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/rpcfail/internal/core/domain"
)

func failoverOptions() Options {
	opts := DefaultOptions()
	opts.FailMode = domain.FailModeFailover
	return opts
}

func TestFailover_RedispatchesThenExhausts(t *testing.T) {
	h := newHarness(map[string][]string{"connector": {"s1", "s2"}})
	tr := h.newTracer()
	msg := testMessage("connector")
	ctx := context.Background()

	h.engine.Route(ctx, domain.ErrFailSendMessage, tr, "s1", msg, failoverOptions())

	require.Len(t, h.dispatcher.calls, 1)
	assert.Equal(t, "s2", h.dispatcher.calls[0].serverID)
	assert.Same(t, tr, h.dispatcher.calls[0].tracer)
	assert.Same(t, msg, h.dispatcher.calls[0].msg)
	assert.Empty(t, h.outcomes)
	assert.Equal(t, []string{"s2"}, tr.Servers())

	h.engine.Route(ctx, domain.ErrFailSendMessage, tr, "s2", msg, failoverOptions())

	assert.Len(t, h.dispatcher.calls, 1)
	require.Len(t, h.outcomes, 1)
	err := h.outcomes[0].err
	assert.ErrorIs(t, err, ErrAllServersFailed)
	assert.EqualError(t, err, "rpc failed with all this type of servers, with serverType: connector")
	_, hasCode := domain.RPCCodeOf(err)
	assert.False(t, hasCode)
	assert.Empty(t, tr.Servers())
	assert.Zero(t, tr.RetryCount())
}

func TestFailover_AtMostNDispatches(t *testing.T) {
	for n := 1; n <= 6; n++ {
		servers := make([]string, n)
		for i := range servers {
			servers[i] = "s" + string(rune('a'+i))
		}
		h := newHarness(map[string][]string{"area": servers})
		h.failForever(domain.ErrFailConnectServer)
		tr := h.newTracer()

		// first attempt went to servers[0] and failed
		h.engine.Route(context.Background(), domain.ErrFailConnectServer, tr, servers[0], testMessage("area"), failoverOptions())

		assert.Len(t, h.dispatcher.calls, n-1, "n=%d", n)
		require.Len(t, h.outcomes, 1, "n=%d", n)
		assert.ErrorIs(t, h.outcomes[0].err, ErrAllServersFailed)

		seen := map[string]bool{servers[0]: true}
		for _, c := range h.dispatcher.calls {
			assert.False(t, seen[c.serverID], "server %s contacted twice", c.serverID)
			seen[c.serverID] = true
		}
		assert.Equal(t, 1, h.discoverer.calls, "candidates are resolved once per call")
	}
}

func TestFailover_UnknownServerIsIgnored(t *testing.T) {
	h := newHarness(map[string][]string{"chat": {"s1", "s2"}})
	tr := h.newTracer()

	h.engine.Route(context.Background(), domain.ErrUnknown, tr, "gone", testMessage("chat"), failoverOptions())

	require.Len(t, h.dispatcher.calls, 1)
	assert.Equal(t, "s1", h.dispatcher.calls[0].serverID)
	assert.Equal(t, []string{"s1", "s2"}, tr.Servers())
}

func TestFailover_DoesNotMutateRegistry(t *testing.T) {
	registry := map[string][]string{"chat": {"s1", "s2", "s3"}}
	h := newHarness(registry)

	h.engine.Route(context.Background(), domain.ErrUnknown, h.newTracer(), "s1", testMessage("chat"), failoverOptions())

	assert.Equal(t, []string{"s1", "s2", "s3"}, registry["chat"])
}

func TestFailover_NoCandidates(t *testing.T) {
	h := newHarness(map[string][]string{})
	tr := h.newTracer()

	h.engine.Route(context.Background(), domain.ErrNoTargetServer, tr, "s1", testMessage("gate"), failoverOptions())

	assert.Empty(t, h.dispatcher.calls)
	require.Len(t, h.outcomes, 1)
	assert.EqualError(t, h.outcomes[0].err, "rpc failed with all this type of servers, with serverType: gate")
}

func TestFailover_DiscoveryError(t *testing.T) {
	h := newHarness(nil)
	h.discoverer.err = errDiscovery
	tr := h.newTracer()

	h.engine.Route(context.Background(), domain.ErrFailSendMessage, tr, "s1", testMessage("chat"), failoverOptions())

	require.Len(t, h.outcomes, 1)
	assert.ErrorIs(t, h.outcomes[0].err, ErrAllServersFailed)
	assert.ErrorIs(t, h.outcomes[0].err, errDiscovery)
}
