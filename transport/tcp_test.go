package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCP_OpenWriteRead(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		n, _ := conn.Read(buf)
		conn.Write(buf[:n])
	}()

	tr := NewTCP(ln.Addr().String(), time.Second)
	require.NoError(t, tr.Open())
	defer tr.Close()

	assert.True(t, tr.IsOpen())
	assert.Equal(t, ln.Addr().String(), tr.Ident())

	_, err = tr.Write([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err := tr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	<-done
}

func TestTCP_ReadWriteWhenClosed(t *testing.T) {
	tr := NewTCP("127.0.0.1:0", time.Second)
	assert.False(t, tr.IsOpen())

	_, err := tr.Write([]byte("x"))
	assert.Error(t, err)

	_, err = tr.Read(make([]byte, 1))
	assert.Error(t, err)
}
