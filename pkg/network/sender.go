// Package network carries assembled EDI/PFT fragments to their
// configured destinations over UDP (unicast or multicast), or TCP as
// either a reconnecting client or a multi-client server (spec.md §6
// "edi.destinations").
//
// Grounded on dbehnke-dmr-nexus pkg/network's UDP send/receive and
// client reconnect idioms, generalized from DMRD packet transport to
// raw EDI/PFT byte-fragment transport.
package network

import (
	"fmt"
	"net"

	"github.com/go-dab/dabmux/pkg/logger"
)

// UDPSender sends PFT fragments over UDP, unicast or multicast, to
// one destination address.
type UDPSender struct {
	addr string
	log  *logger.Logger
	conn *net.UDPConn
}

// NewUDPSender creates a UDP sender bound to addr ("host:port"; a
// multicast group address works identically since UDP write is
// destination-agnostic).
func NewUDPSender(addr string, log *logger.Logger) (*UDPSender, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("network: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("network: dial %s: %w", addr, err)
	}
	return &UDPSender{addr: addr, log: log.WithComponent("network.udp"), conn: conn}, nil
}

// Send writes one PFT fragment. UDP datagrams are independent, so a
// write failure only affects this fragment — the caller need not
// reconnect.
func (s *UDPSender) Send(fragment []byte) error {
	_, err := s.conn.Write(fragment)
	if err != nil {
		s.log.Warn("UDP send failed", logger.String("addr", s.addr), logger.Error(err))
	}
	return err
}

// Close releases the underlying socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
