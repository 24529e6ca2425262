package failure

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Completion receives the outcome of a logical call.
type Completion func(result any, err error)

// Tracer carries the state of one logical call across its attempts. It is
// owned by a single call and must not be shared between calls.
type Tracer struct {
	ID string

	completion Completion
	done       atomic.Bool

	servers       []string
	serversLoaded bool
	retryCount    int
}

// NewTracer creates the call state for a new logical call.
func NewTracer(completion Completion) *Tracer {
	return &Tracer{
		ID:         uuid.NewString(),
		completion: completion,
	}
}

// Complete delivers the outcome to the caller. Only the first invocation has
// an effect; it reports whether this invocation delivered.
func (t *Tracer) Complete(result any, err error) bool {
	if !t.done.CompareAndSwap(false, true) {
		return false
	}
	if t.completion != nil {
		t.completion(result, err)
	}
	return true
}

// Done reports whether the completion has been delivered.
func (t *Tracer) Done() bool {
	return t.done.Load()
}

// RetryCount returns the number of failsafe failures seen so far.
func (t *Tracer) RetryCount() int {
	return t.retryCount
}

// Servers returns a copy of the remaining failover candidates, or nil if the
// candidate set has not been populated yet.
func (t *Tracer) Servers() []string {
	if !t.serversLoaded {
		return nil
	}
	out := make([]string, len(t.servers))
	copy(out, t.servers)
	return out
}
