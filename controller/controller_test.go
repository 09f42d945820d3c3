package controller

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cncware/smoothied/macro"
)

// pipeTransport wraps one end of a net.Pipe as a Transport, so tests can
// drive the other end directly as if they were the firmware.
type pipeTransport struct {
	conn net.Conn
	open bool
}

func newPipeTransport() (*pipeTransport, net.Conn) {
	a, b := net.Pipe()
	return &pipeTransport{conn: a}, b
}

func (p *pipeTransport) Open() error  { p.open = true; return nil }
func (p *pipeTransport) IsOpen() bool { return p.open }
func (p *pipeTransport) Ident() string { return "pipe" }

func (p *pipeTransport) Read(b []byte) (int, error)  { return p.conn.Read(b) }
func (p *pipeTransport) Write(b []byte) (int, error) { return p.conn.Write(b) }
func (p *pipeTransport) Close() error                { p.open = false; return p.conn.Close() }

func newTestController(t *testing.T) (*Controller, net.Conn) {
	t.Helper()
	tr, far := newPipeTransport()
	macros, err := macro.Open(t.TempDir() + "/macros.json")
	require.NoError(t, err)

	c := New("test", tr, Config{}, macros, nil)
	t.Cleanup(func() { c.Close() })
	return c, far
}

// awaitReady drives the handshake by replying to the version probe, then
// waits for the controller to mark itself ready.
func awaitReady(t *testing.T, c *Controller, far net.Conn) {
	t.Helper()
	sc := bufio.NewScanner(far)
	done := make(chan struct{})
	go func() {
		for sc.Scan() {
			if sc.Text() == "version" {
				far.Write([]byte("Smoothie\r\n"))
				close(done)
				return
			}
		}
	}()

	require.NoError(t, c.Open())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for version probe")
	}

	require.Eventually(t, func() bool {
		return c.Snapshot().Ready
	}, 2*time.Second, 10*time.Millisecond)
}

func TestController_HandshakeBecomesReady(t *testing.T) {
	c, far := newTestController(t)
	awaitReady(t, c, far)
	assert.Equal(t, WorkflowIdle, c.Snapshot().Workflow)
}

func TestController_LoadStartStreamsAndFinishes(t *testing.T) {
	c, far := newTestController(t)
	awaitReady(t, c, far)

	sc := bufio.NewScanner(far)
	var lines []string
	go func() {
		for sc.Scan() {
			line := sc.Text()
			if line == "?" || line == "$G" {
				continue
			}
			lines = append(lines, line)
			far.Write([]byte("ok\r\n"))
		}
	}()

	c.Load("test.gcode", "G0 X1\nG0 X2\n")
	c.Start()

	require.Eventually(t, func() bool {
		return c.Snapshot().Sender.Received == c.Snapshot().Sender.Total && c.Snapshot().Sender.Total > 0
	}, 2*time.Second, 10*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, snap.Sender.Total, snap.Sender.Sent)
}

func TestController_FeederWritesDeferredWhileSenderRunning(t *testing.T) {
	c, far := newTestController(t)
	awaitReady(t, c, far)

	sc := bufio.NewScanner(far)
	go func() {
		for sc.Scan() {
			// Deliberately never replies ok, so the sender stays busy and
			// never reports Idle.
		}
	}()

	c.Load("test.gcode", "G0 X1\nG0 X2\n")
	c.Start()

	require.Eventually(t, func() bool {
		return c.Snapshot().Workflow == WorkflowRunning && c.Snapshot().Sender.Sent > 0
	}, 2*time.Second, 10*time.Millisecond)

	c.Gcode([]string{"M3"})

	status := make(chan FeederStatus, 1)
	c.Post(func(ctl *Controller) { status <- ctl.feeder.Status() })

	select {
	case st := <-status:
		assert.Equal(t, 1, st.Queued)
		assert.False(t, st.Pending)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out reading feeder status")
	}
}

func TestController_AlarmClearsOnceMachineLeavesAlarmState(t *testing.T) {
	c, far := newTestController(t)
	awaitReady(t, c, far)

	far.Write([]byte("ALARM:1\r\n"))
	require.Eventually(t, func() bool {
		done := make(chan bool, 1)
		c.Post(func(ctl *Controller) { done <- ctl.alarm })
		return <-done
	}, 2*time.Second, 10*time.Millisecond)

	far.Write([]byte("<Idle|MPos:0.00,0.00,0.00|FS:0,0>\r\n"))
	require.Eventually(t, func() bool {
		done := make(chan bool, 1)
		c.Post(func(ctl *Controller) { done <- !ctl.alarm })
		return <-done
	}, 2*time.Second, 10*time.Millisecond)

	sc := bufio.NewScanner(far)
	var written []string
	go func() {
		for sc.Scan() {
			line := sc.Text()
			if line == "?" || line == "$G" {
				continue
			}
			written = append(written, line)
			far.Write([]byte("ok\r\n"))
		}
	}()

	// The Feeder was suppressed by the alarm; now that it's cleared, an
	// ad-hoc command should reach the wire again.
	c.Gcode([]string{"M3"})
	require.Eventually(t, func() bool {
		for _, l := range written {
			if l == "M3" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestController_PauseResume(t *testing.T) {
	c, far := newTestController(t)
	awaitReady(t, c, far)

	sc := bufio.NewScanner(far)
	go func() {
		for sc.Scan() {
			line := sc.Text()
			if line == "?" || line == "$G" || line == "~" || line == "!" {
				continue
			}
			far.Write([]byte("ok\r\n"))
		}
	}()

	c.Load("test.gcode", "G0 X1\nG0 X2\nG0 X3\n")
	c.Start()
	require.Eventually(t, func() bool {
		return c.Snapshot().Workflow == WorkflowRunning
	}, 2*time.Second, 10*time.Millisecond)

	c.Pause("user")
	require.Eventually(t, func() bool {
		return c.Snapshot().Workflow == WorkflowPaused
	}, 2*time.Second, 10*time.Millisecond)

	c.Resume()
	require.Eventually(t, func() bool {
		return c.Snapshot().Workflow == WorkflowRunning
	}, 2*time.Second, 10*time.Millisecond)
}
