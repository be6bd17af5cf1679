package remote

import (
	"testing"

	"github.com/go-dab/dabmux/pkg/logger"
)

func TestZMQServer_HandleRejectsBadJSON(t *testing.T) {
	s := &ZMQServer{dispatcher: newTestDispatcher(), log: logger.New(logger.Config{Level: "error"})}
	resp := s.handle([]byte("not json"), "zmq", "client1")
	if resp.Success {
		t.Fatal("expected failure for malformed JSON request")
	}
}

func TestZMQServer_HandleDispatchesValidRequest(t *testing.T) {
	s := &ZMQServer{dispatcher: newTestDispatcher(), log: logger.New(logger.Config{Level: "error"})}
	resp := s.handle([]byte(`{"command":"get_all_services"}`), "zmq", "client1")
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}
}

func TestZMQServer_HandleRejectsBadAuth(t *testing.T) {
	auth, _ := NewAuthenticator("secret", "")
	s := &ZMQServer{dispatcher: newTestDispatcher(), auth: auth, log: logger.New(logger.Config{Level: "error"})}

	resp := s.handle([]byte(`{"command":"get_all_services","auth":"wrong"}`), "zmq", "client1")
	if resp.Success {
		t.Fatal("expected auth failure")
	}

	resp = s.handle([]byte(`{"command":"get_all_services","auth":"secret"}`), "zmq", "client1")
	if !resp.Success {
		t.Fatalf("expected success with correct auth, got %q", resp.Error)
	}
}
