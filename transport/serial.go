package transport

import (
	"io"
	"sync"

	"github.com/tarm/serial"
)

// Serial is a Transport backed by a local serial port, as used for a
// directly-wired USB connection to the controller board.
type Serial struct {
	Name string
	Baud int

	mu   sync.Mutex
	port *serial.Port
}

// NewSerial constructs a Serial transport for the named port at baud. Open
// must be called before it's usable.
func NewSerial(name string, baud int) *Serial {
	return &Serial{Name: name, Baud: baud}
}

func (s *Serial) Open() error {
	port, err := serial.OpenPort(&serial.Config{Name: s.Name, Baud: s.Baud})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.port = port
	s.mu.Unlock()
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()
	if port == nil {
		return nil
	}
	return port.Close()
}

func (s *Serial) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

func (s *Serial) Ident() string { return s.Name }

func (s *Serial) Read(p []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, io.ErrClosedPipe
	}
	return port.Read(p)
}

func (s *Serial) Write(p []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, io.ErrClosedPipe
	}
	return port.Write(p)
}
