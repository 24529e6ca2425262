package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/vietddude/rpcfail/internal/core/domain"
)

// Script describes how one server behaves: the first Failures sends fail
// with Code, later sends succeed. ConnectFailures counts failing reconnects.
type Script struct {
	Code            domain.ErrorCode
	Failures        int
	ConnectFailures int
}

// Scripted is a deterministic in-memory transport.
type Scripted struct {
	mu       sync.Mutex
	scripts  map[string]*Script
	sends    map[string]int
	connects map[string]int
}

// NewScripted creates a transport; servers without a script always succeed.
func NewScripted(scripts map[string]Script) *Scripted {
	s := &Scripted{
		scripts:  make(map[string]*Script, len(scripts)),
		sends:    make(map[string]int),
		connects: make(map[string]int),
	}
	for id, sc := range scripts {
		s.scripts[id] = &sc
	}
	return s
}

// Connect fails while the server still has connect failures scripted.
func (s *Scripted) Connect(ctx context.Context, serverID string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewTransportError(domain.ErrFailConnectServer, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.connects[serverID]++
	sc, ok := s.scripts[serverID]
	if ok && sc.ConnectFailures > 0 {
		sc.ConnectFailures--
		return domain.NewTransportError(domain.ErrFailConnectServer,
			fmt.Errorf("connect to %s refused", serverID))
	}
	return nil
}

// Send fails with the scripted code until the server's failures are used up.
func (s *Scripted) Send(ctx context.Context, serverID string, msg *domain.Message) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewTransportError(domain.ErrFailSendMessage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sends[serverID]++
	sc, ok := s.scripts[serverID]
	if ok && sc.Failures > 0 {
		sc.Failures--
		return nil, domain.NewTransportError(sc.Code,
			fmt.Errorf("%s.%s on %s failed", msg.Service, msg.Method, serverID))
	}
	return fmt.Sprintf("%s.%s handled by %s", msg.Service, msg.Method, serverID), nil
}

// Sends returns how many sends reached serverID.
func (s *Scripted) Sends(serverID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends[serverID]
}

// Connects returns how many reconnects reached serverID.
func (s *Scripted) Connects(serverID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects[serverID]
}
