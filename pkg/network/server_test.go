package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-dab/dabmux/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "text"})
}

func TestServer_AcceptsClientAndBroadcasts(t *testing.T) {
	srv := NewServer("127.0.0.1:0", testLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv.addr = ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	conn, err := net.Dial("tcp", srv.addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)
	if srv.NumClients() != 1 {
		t.Fatalf("expected 1 connected client, got %d", srv.NumClients())
	}

	srv.Broadcast([]byte("AF\x00\x00"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 8)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "AF\x00\x00" {
		t.Fatalf("unexpected payload: %q", buf[:n])
	}
}

func TestClient_ReconnectsAfterFailedDial(t *testing.T) {
	c := NewClient("127.0.0.1:1", testLogger()) // port 1 refuses connections
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_ = c.Start(ctx)
	if c.State() != StateDisconnected && c.State() != StateConnecting {
		t.Fatalf("unexpected state after failed dial: %v", c.State())
	}
}

func TestNextBackoff_CapsAtMax(t *testing.T) {
	d := minBackoff
	for i := 0; i < 20; i++ {
		d = nextBackoff(d)
	}
	if d != maxBackoff {
		t.Fatalf("expected backoff to cap at %v, got %v", maxBackoff, d)
	}
}
