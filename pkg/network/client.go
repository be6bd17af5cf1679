package network

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/go-dab/dabmux/pkg/logger"
)

// ConnectionState represents the state of the TCP EDI client connection.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// minBackoff and maxBackoff bound the exponential reconnect delay.
const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Client is a TCP EDI destination client: it dials addr, and on
// disconnect reconnects with exponential backoff until ctx is
// cancelled (spec.md §6 "edi.destinations[].mode: client").
type Client struct {
	addr string
	log  *logger.Logger

	mu    sync.Mutex
	conn  net.Conn
	state ConnectionState
}

// NewClient creates a TCP EDI client targeting addr.
func NewClient(addr string, log *logger.Logger) *Client {
	return &Client{addr: addr, log: log.WithComponent("network.client"), state: StateDisconnected}
}

// Start connects and keeps reconnecting (with exponential backoff)
// until ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.setState(StateConnecting)
		conn, err := net.Dial("tcp", c.addr)
		if err != nil {
			c.log.Warn("EDI client connect failed, retrying",
				logger.String("addr", c.addr), logger.Error(err))
			if !sleepOrDone(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.setState(StateConnected)
		c.log.Info("EDI client connected", logger.String("addr", c.addr))
		backoff = minBackoff

		dropped := make(chan struct{})
		go func() {
			buf := make([]byte, 512)
			for {
				if _, err := conn.Read(buf); err != nil {
					close(dropped)
					return
				}
			}
		}()
		select {
		case <-ctx.Done():
		case <-dropped:
		}
		conn.Close()
		c.setState(StateDisconnected)
	}
}

// Send writes one PFT fragment over the TCP connection, if connected.
func (c *Client) Send(fragment []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	_, err := conn.Write(fragment)
	return err
}

func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the client's current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
