// Package transport provides the byte-stream connections a controller
// drives: a serial port or a raw TCP socket to a network-bridged
// controller board. Both satisfy the same Transport contract so the
// controller core never needs to know which one it's holding.
package transport

import "io"

// Transport is a bidirectional byte stream to a controller board, plus the
// bit of connection-lifecycle and identity bookkeeping the controller core
// needs around it.
type Transport interface {
	io.ReadWriteCloser

	// Open establishes the connection. Write and Read are only valid after
	// Open returns successfully.
	Open() error

	// IsOpen reports whether the transport currently believes it's
	// connected. It does not itself detect a half-open connection; the
	// next failed Read or Write is what surfaces that.
	IsOpen() bool

	// Ident identifies the transport for logs and session broadcasts,
	// e.g. "/dev/ttyUSB0" or "192.168.1.50:23".
	Ident() string
}
