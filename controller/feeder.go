package controller

import "github.com/cncware/smoothied/gcode"

// FeederStatus is a snapshot of the Feeder for feeder:status broadcasts.
type FeederStatus struct {
	Queued  int  `json:"queued"`
	Hold    bool `json:"hold"`
	Pending bool `json:"pending"`
}

// Feeder is a FIFO of ad-hoc lines fed outside of a loaded program --
// jog commands, manual gcode, macro bodies. The Feeder itself knows
// nothing of the workflow; the controller services it only while the
// workflow isn't running or the Sender has nothing outstanding (see
// feederMayAdvance in loop.go).
type Feeder struct {
	Logger Logger

	WriteLine func([]byte)

	ctx *gcode.Context

	queue []string

	hold       bool
	holdReason string
	pending    bool

	suppressed bool // set while the controller is reporting alarm
}

// NewFeeder constructs an empty Feeder.
func NewFeeder(ctx *gcode.Context) *Feeder {
	return &Feeder{ctx: ctx}
}

// Feed appends lines to the queue.
func (f *Feeder) Feed(lines []string) {
	f.queue = append(f.queue, lines...)
}

// Hold freezes transmission without touching the queue.
func (f *Feeder) Hold(reason string) {
	f.hold = true
	f.holdReason = reason
}

func (f *Feeder) Unhold() {
	f.hold = false
	f.holdReason = ""
}

// Reset drops the queue and clears hold/pending, e.g. on stop or alarm.
func (f *Feeder) Reset() {
	f.queue = nil
	f.hold = false
	f.holdReason = ""
	f.pending = false
}

// Suppress stops Next from writing anything, used while the controller
// is reporting an alarm condition. Unsuppress lifts it again.
func (f *Feeder) Suppress()   { f.suppressed = true }
func (f *Feeder) Unsuppress() { f.suppressed = false }

// Next transmits the head of the queue if nothing is currently pending
// and the Feeder isn't held or suppressed. It's a no-op otherwise.
func (f *Feeder) Next() gcode.StopReason {
	if f.hold || f.pending || f.suppressed || len(f.queue) == 0 {
		return gcode.StopNone
	}

	raw := f.queue[0]
	f.queue = f.queue[1:]

	res, errs := gcode.Preprocess(raw, f.ctx)
	for _, err := range errs {
		f.logf("preprocess: %v", err)
	}

	if res.Line == "" {
		return f.Next()
	}

	f.pending = true
	if f.WriteLine != nil {
		f.WriteLine([]byte(res.Line + "\n"))
	}

	if res.Stop != gcode.StopNone {
		f.Hold(string(res.Stop))
	}
	return res.Stop
}

// Ack clears the pending flag set by Next, allowing the next queued line
// to go out on the following Next call.
func (f *Feeder) Ack() {
	f.pending = false
}

func (f *Feeder) Status() FeederStatus {
	return FeederStatus{Queued: len(f.queue), Hold: f.hold, Pending: f.pending}
}

func (f *Feeder) logf(format string, args ...interface{}) {
	if f.Logger != nil {
		f.Logger.Warnf(format, args...)
	}
}
