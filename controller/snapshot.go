package controller

import "encoding/json"

func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Snapshot is the controller's state as exposed to sessions and the HTTP
// API: everything a client needs to render a dashboard without having to
// correlate several separate event streams.
type Snapshot struct {
	Ident    string        `json:"ident"`
	Ready    bool          `json:"ready"`
	Alarm    bool          `json:"alarm"`
	Workflow WorkflowState `json:"workflow"`
	Sender   SenderStatus  `json:"sender"`
	Feeder   FeederStatus  `json:"feeder"`

	OverrideFeed    int `json:"overrideFeed"`
	OverrideSpindle int `json:"overrideSpindle"`
}

// Snapshot returns a point-in-time copy of controller state. Safe to call
// from outside the controller's goroutine -- it's posted through the
// command channel like everything else that touches Controller state.
func (c *Controller) Snapshot() Snapshot {
	result := make(chan Snapshot, 1)
	c.Post(func(ctl *Controller) {
		result <- Snapshot{
			Ident:           ctl.Ident,
			Ready:           ctl.ready,
			Alarm:           ctl.alarm,
			Workflow:        ctl.workflow.State(),
			Sender:          ctl.sender.Status(),
			Feeder:          ctl.feeder.Status(),
			OverrideFeed:    ctl.overrideFeed,
			OverrideSpindle: ctl.overrideSpindle,
		}
	})
	select {
	case s := <-result:
		return s
	case <-c.done:
		return Snapshot{Ident: c.Ident}
	}
}
