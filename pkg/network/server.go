package network

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/go-dab/dabmux/pkg/logger"
)

// slowClientGrace is the write deadline for each fragment sent to a
// client; a client whose write does not finish within it is
// disconnected (spec.md §6 "edi.destinations[].mode:
// server" — a stalled receiver must not stall the others).
const slowClientGrace = 2 * time.Second

// Server accepts multiple TCP EDI clients and broadcasts each
// fragment to every currently-connected one (spec.md §6
// "edi.destinations[].mode: server").
type Server struct {
	addr string
	log  *logger.Logger

	mu      sync.Mutex
	clients map[*serverClient]struct{}
}

type serverClient struct {
	conn  net.Conn
	queue chan []byte
}

// NewServer creates a TCP EDI server listening on addr.
func NewServer(addr string, log *logger.Logger) *Server {
	return &Server{addr: addr, log: log.WithComponent("network.server"), clients: map[*serverClient]struct{}{}}
}

// Start listens and accepts clients until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.log.Info("EDI server listening", logger.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go s.serve(ctx, conn)
	}
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	client := &serverClient{conn: conn, queue: make(chan []byte, 64)}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	s.log.Info("EDI client connected", logger.String("remote", conn.RemoteAddr().String()))

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case fragment, ok := <-client.queue:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(slowClientGrace))
			if _, err := conn.Write(fragment); err != nil {
				s.log.Warn("EDI client write failed, disconnecting",
					logger.String("remote", conn.RemoteAddr().String()), logger.Error(err))
				return
			}
		}
	}
}

// Broadcast enqueues a fragment for every connected client. A client
// whose queue is already full is dropped rather than letting it stall
// delivery to the others.
func (s *Server) Broadcast(fragment []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.queue <- fragment:
		default:
			s.log.Warn("EDI client queue full, dropping slow client",
				logger.String("remote", c.conn.RemoteAddr().String()))
			delete(s.clients, c)
			close(c.queue)
			c.conn.Close()
		}
	}
}

// NumClients returns the current connected-client count.
func (s *Server) NumClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
