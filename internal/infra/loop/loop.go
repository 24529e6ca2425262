// Package loop provides the single-threaded event loop the RPC client runs
// on. Tasks execute one at a time in posting order; timers post their task
// back onto the loop when they fire.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Loop runs posted tasks sequentially on one goroutine.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	stop chan struct{}
	log  *slog.Logger
}

// New creates a loop. Tasks posted before Run are kept until it starts.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		log:  slog.Default().With("component", "loop"),
	}
}

// Post queues fn. It never blocks, so tasks may post further tasks.
// It reports false once the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// After posts fn once delay has elapsed. Timers cannot be cancelled; a timer
// firing after Stop is dropped.
func (l *Loop) After(delay time.Duration, fn func()) {
	time.AfterFunc(delay, func() {
		if !l.Post(fn) {
			l.log.Debug("Dropping timer task, loop stopped", "delay", delay)
		}
	})
}

// Run processes tasks until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for fn, ok := l.next(); ok; fn, ok = l.next() {
			fn()
		}

		select {
		case <-ctx.Done():
			l.Stop()
			return nil
		case <-l.stop:
			return nil
		case <-l.wake:
		}
	}
}

// Stop makes Run return after the current task. Pending tasks are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	close(l.stop)
}

// next pops the oldest task. Stop is observed between tasks, so a task that
// stops the loop keeps the rest of the queue from running.
func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}
