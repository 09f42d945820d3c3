package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cncware/smoothied/gcode"
)

func TestFeeder_FeedAndNext(t *testing.T) {
	ctx := gcode.NewContext()
	f := NewFeeder(ctx)

	var written []string
	f.WriteLine = func(b []byte) { written = append(written, string(b)) }

	f.Feed([]string{"G0 X1", "G0 X2"})
	f.Next()
	assert.Equal(t, []string{"G0 X1\n"}, written)
	assert.Equal(t, FeederStatus{Queued: 1, Hold: false, Pending: true}, f.Status())

	// Next is a no-op while the first line is still pending.
	f.Next()
	assert.Len(t, written, 1)

	f.Ack()
	f.Next()
	assert.Equal(t, []string{"G0 X1\n", "G0 X2\n"}, written)
}

func TestFeeder_WaitHolds(t *testing.T) {
	ctx := gcode.NewContext()
	f := NewFeeder(ctx)
	f.WriteLine = func([]byte) {}

	f.Feed([]string{"%wait"})
	stop := f.Next()
	assert.Equal(t, gcode.StopWait, stop)
	assert.True(t, f.Status().Hold)
}

func TestFeeder_SkipsBlankLines(t *testing.T) {
	ctx := gcode.NewContext()
	f := NewFeeder(ctx)
	var written []string
	f.WriteLine = func(b []byte) { written = append(written, string(b)) }

	f.Feed([]string{"; just a comment", "G0 X1"})
	f.Next()
	assert.Equal(t, []string{"G0 X1\n"}, written)
}

func TestFeeder_ResetClearsEverything(t *testing.T) {
	ctx := gcode.NewContext()
	f := NewFeeder(ctx)
	f.WriteLine = func([]byte) {}
	f.Feed([]string{"G0 X1"})
	f.Next()
	f.Hold("paused")

	f.Reset()
	assert.Equal(t, FeederStatus{}, f.Status())
}

func TestFeeder_SuppressedDuringAlarm(t *testing.T) {
	ctx := gcode.NewContext()
	f := NewFeeder(ctx)
	var written []string
	f.WriteLine = func(b []byte) { written = append(written, string(b)) }

	f.Suppress()
	f.Feed([]string{"G0 X1"})
	f.Next()
	assert.Empty(t, written)

	f.Unsuppress()
	f.Next()
	assert.Equal(t, []string{"G0 X1\n"}, written)
}
