package controller

// WorkflowState is one of the three states a program run can be in.
type WorkflowState string

const (
	WorkflowIdle    WorkflowState = "idle"
	WorkflowRunning WorkflowState = "running"
	WorkflowPaused  WorkflowState = "paused"
)

// Workflow is the state machine governing a loaded program's run. It
// never talks to the transport directly; its transitions just rewind,
// hold, or reset the Sender and Feeder it's given and call back to emit
// named workflow:state events.
type Workflow struct {
	state WorkflowState

	sender *Sender
	feeder *Feeder

	onEmit func(event string)
}

// NewWorkflow constructs an idle Workflow wired to sender and feeder.
// onEmit, if non-nil, is called once per state-changing transition (not
// on duplicate no-op transitions) naming the workflow event.
func NewWorkflow(sender *Sender, feeder *Feeder, onEmit func(event string)) *Workflow {
	return &Workflow{state: WorkflowIdle, sender: sender, feeder: feeder, onEmit: onEmit}
}

func (w *Workflow) State() WorkflowState { return w.state }

func (w *Workflow) emit(event string) {
	if w.onEmit != nil {
		w.onEmit(event)
	}
}

// Start transitions idle -> running. A no-op from any other state.
func (w *Workflow) Start() {
	if w.state != WorkflowIdle {
		return
	}
	w.sender.Rewind()
	w.state = WorkflowRunning
	w.emit("start")
}

// Pause transitions running -> paused. A no-op from any other state.
func (w *Workflow) Pause(reason string) {
	if w.state != WorkflowRunning {
		return
	}
	w.sender.Hold(reason)
	w.state = WorkflowPaused
	w.emit("pause")
}

// Resume transitions paused -> running. A no-op from any other state.
// It does not itself resend -- the caller must call sender.Next() and
// react to its outcome the same way Start's caller does, since an
// M0/M1/M6 on the first re-sent line has to re-pause the workflow.
func (w *Workflow) Resume() {
	if w.state != WorkflowPaused {
		return
	}
	w.feeder.Reset()
	w.sender.Unhold()
	w.state = WorkflowRunning
	w.emit("resume")
}

// Stop transitions any state to idle. A no-op if already idle.
func (w *Workflow) Stop() {
	if w.state == WorkflowIdle {
		return
	}
	w.sender.Rewind()
	w.state = WorkflowIdle
	w.emit("stop")
}
