package transport

import (
	"io"
	"net"
	"sync"
	"time"
)

// TCP is a Transport backed by a raw TCP socket, for network-bridged
// controller boards (e.g. an ESP8266 running a serial-to-WiFi bridge).
type TCP struct {
	Addr    string
	Timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// NewTCP constructs a TCP transport for addr ("host:port"). Open must be
// called before it's usable.
func NewTCP(addr string, timeout time.Duration) *TCP {
	return &TCP{Addr: addr, Timeout: timeout}
}

func (t *TCP) Open() error {
	conn, err := net.DialTimeout("tcp", t.Addr, t.Timeout)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *TCP) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (t *TCP) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

func (t *TCP) Ident() string { return t.Addr }

func (t *TCP) Read(p []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, io.ErrClosedPipe
	}
	return conn.Read(p)
}

func (t *TCP) Write(p []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, io.ErrClosedPipe
	}
	return conn.Write(p)
}
