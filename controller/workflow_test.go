package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cncware/smoothied/gcode"
)

func newTestWorkflow() (*Workflow, *Sender, *Feeder, *[]string) {
	ctx := gcode.NewContext()
	sender := NewSender()
	sender.WriteLine = func([]byte) {}
	feeder := NewFeeder(ctx)
	feeder.WriteLine = func([]byte) {}

	var events []string
	wf := NewWorkflow(sender, feeder, func(e string) { events = append(events, e) })
	return wf, sender, feeder, &events
}

func TestWorkflow_StartPauseResumeStop(t *testing.T) {
	wf, sender, _, events := newTestWorkflow()
	ctx := gcode.NewContext()
	sender.Load("p", "G1 X1", ctx)

	wf.Start()
	assert.Equal(t, WorkflowRunning, wf.State())

	wf.Pause("M0")
	assert.Equal(t, WorkflowPaused, wf.State())
	assert.True(t, sender.IsHolding())

	wf.Resume()
	assert.Equal(t, WorkflowRunning, wf.State())
	assert.False(t, sender.IsHolding())

	wf.Stop()
	assert.Equal(t, WorkflowIdle, wf.State())

	assert.Equal(t, []string{"start", "pause", "resume", "stop"}, *events)
}

func TestWorkflow_DuplicateTransitionsAreNoops(t *testing.T) {
	wf, _, _, events := newTestWorkflow()

	wf.Pause("M0") // not running yet
	wf.Resume()    // not paused yet
	wf.Stop()      // already idle

	assert.Equal(t, WorkflowIdle, wf.State())
	assert.Empty(t, *events)
}
