package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/go-dab/dabmux/pkg/logger"
)

// ZMQServer serves the remote-control command set over a ZMQ REQ/REP
// socket, one JSON Request per Recv and one JSON Response per Send
// (spec.md §4.7 "ZMQ REQ/REP, JSON frames").
type ZMQServer struct {
	endpoint   string
	dispatcher *Dispatcher
	auth       *Authenticator
	audit      *AuditLogger
	log        *logger.Logger

	sock zmq4.Socket
}

// NewZMQServer builds a ZMQServer bound to endpoint (e.g.
// "tcp://127.0.0.1:9300") once Start is called.
func NewZMQServer(endpoint string, dispatcher *Dispatcher, auth *Authenticator, audit *AuditLogger, log *logger.Logger) *ZMQServer {
	return &ZMQServer{
		endpoint:   endpoint,
		dispatcher: dispatcher,
		auth:       auth,
		audit:      audit,
		log:        log.WithComponent("remote-zmq"),
	}
}

// Start binds the REQ/REP socket and serves requests until ctx is
// cancelled. REQ/REP is strictly request-reply: Recv always blocks
// for the next request, so shutdown closes the socket from a
// goroutine watching ctx rather than selecting on it directly.
func (s *ZMQServer) Start(ctx context.Context) error {
	s.sock = zmq4.NewRep(ctx)
	if err := s.sock.Listen(s.endpoint); err != nil {
		return fmt.Errorf("remote: zmq listen %s: %w", s.endpoint, err)
	}
	s.log.Info("zmq remote control listening", logger.String("endpoint", s.endpoint))

	go func() {
		<-ctx.Done()
		_ = s.sock.Close()
	}()

	for {
		msg, err := s.sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("zmq recv failed", logger.Error(err))
			continue
		}

		resp := s.handle(msg.Bytes(), "zmq", s.endpoint)
		payload, _ := json.Marshal(resp)
		if err := s.sock.Send(zmq4.NewMsg(payload)); err != nil {
			s.log.Error("zmq send failed", logger.Error(err))
		}
	}
}

func (s *ZMQServer) handle(raw []byte, source, client string) Response {
	start := time.Now()
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return fail(fmt.Sprintf("invalid request: %v", err))
	}
	if s.auth != nil && s.auth.Enabled() && !s.auth.Verify(req.Auth) {
		resp := fail("authentication failed")
		if s.audit != nil {
			s.audit.Log(source, client, req.Command, req.Args, false, time.Since(start), fmt.Errorf("auth failed"))
		}
		return resp
	}

	resp := s.dispatcher.Handle(req)
	if s.audit != nil {
		var execErr error
		if !resp.Success {
			execErr = fmt.Errorf("%s", resp.Error)
		}
		s.audit.Log(source, client, req.Command, req.Args, resp.Success, time.Since(start), execErr)
	}
	return resp
}
