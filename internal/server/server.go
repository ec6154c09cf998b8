// Package server bootstraps the UDP listener that serves DNS queries.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/miekg/dns"
)

// Server owns the proxy's single UDP listener. Only UDP is served: spec.md
// Non-goals exclude a TCP listener, the way the original resolver only ever
// registered a UDP socket.
type Server struct {
	mu      sync.Mutex
	started bool

	addr    string
	handler dns.Handler
	inner   *dns.Server
}

// New returns a Server that will listen on addr (host:port) once Start is
// called.
func New(addr string, handler dns.Handler) *Server {
	return &Server{addr: addr, handler: handler}
}

// Start binds the UDP socket and begins serving in the background. Calling
// Start twice is a no-op.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	pc, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.inner = &dns.Server{PacketConn: pc, Handler: s.handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.inner.ActivateAndServe()
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("starting dns server on %s: %w", s.addr, err)
		}
	default:
	}

	s.started = true

	return nil
}

// Shutdown stops serving and releases the socket.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.started = false

	return s.inner.ShutdownContext(ctx)
}
