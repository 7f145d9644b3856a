package transport

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// EthernetSender writes payloads over short-lived TCP connections.
// Connections are not pooled: any stale connection to the same address is
// force-closed before dialing, and the fresh one is closed after the
// write.
type EthernetSender struct {
	mu    sync.Mutex
	stale map[string]net.Conn
}

func NewEthernetSender() *EthernetSender {
	return &EthernetSender{stale: make(map[string]net.Conn)}
}

func (s *EthernetSender) Send(target Target, payload Payload, timeout time.Duration) error {
	if target.IP == "" {
		return fmt.Errorf("%w: printer has no IP address", ErrDeviceNotFound)
	}

	addr := target.Address()
	s.closeStale(addr)

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	s.mu.Lock()
	s.stale[addr] = conn
	s.mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(timeout))

	data := payload.Raw()
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			s.closeStale(addr)
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return fmt.Errorf("%w: write to %s", ErrTimeout, addr)
			}
			return fmt.Errorf("%w: write to %s: %v", ErrConnectionFailed, addr, err)
		}
		data = data[n:]
	}

	s.closeStale(addr)
	return nil
}

func (s *EthernetSender) closeStale(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn, ok := s.stale[addr]; ok {
		if conn != nil {
			conn.Close()
		}
		delete(s.stale, addr)
	}
}
