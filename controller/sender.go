package controller

import (
	"strings"
	"time"

	"github.com/cncware/smoothied/gcode"
)

// defaultBufferSize is the firmware's receive buffer (128 bytes) minus an
// 8 byte safety margin, mirroring how much of the wire protocol's nominal
// window we're actually willing to fill.
const defaultBufferSize = 128 - 8

type sendEntry struct {
	index   int
	byteLen int
}

// SenderStatus is a snapshot of the Sender suitable for broadcasting to
// sessions as sender:status.
type SenderStatus struct {
	Name       string     `json:"name"`
	Total      int        `json:"total"`
	Sent       int        `json:"sent"`
	Received   int        `json:"received"`
	Hold       bool       `json:"hold"`
	HoldReason string     `json:"holdReason,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// NextOutcome reports what happened during one Sender.Next call, letting
// the controller loop react to a hold-triggering line without the Sender
// itself needing to know about the workflow state machine.
type NextOutcome struct {
	Stop gcode.StopReason
}

// Sender streams a loaded program under the character-counting flow
// control protocol: it may have at most bufferSize bytes of unacknowledged
// line data outstanding at once, tracked as a FIFO of (index, byteLen)
// entries matched one-for-one against incoming ok/error replies.
type Sender struct {
	Logger Logger

	// WriteLine is called with a line already terminated by \n for every
	// line the Sender decides to transmit. It must not block.
	WriteLine func([]byte)

	name  string
	lines []string
	ctx   *gcode.Context

	bufferSize int
	dataLength int
	queue      []sendEntry

	sent, received int

	hold       bool
	holdReason string

	startedAt  time.Time
	finishedAt time.Time
}

// NewSender constructs an empty, unloaded Sender.
func NewSender() *Sender {
	return &Sender{bufferSize: defaultBufferSize}
}

// Load assigns a new program. A %wait dwell is appended so the firmware
// always emits one final unambiguous ok once its planner queue empties,
// giving End-of-program detection something concrete to wait on.
func (s *Sender) Load(name, text string, ctx *gcode.Context) {
	full := text + "\n%wait ; end of program\n"
	s.name = name
	s.lines = splitLines(full)
	s.ctx = ctx
	s.sent, s.received = 0, 0
	s.queue = nil
	s.dataLength = 0
	s.hold = false
	s.holdReason = ""
	s.startedAt = time.Time{}
	s.finishedAt = time.Time{}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Unload clears the loaded program entirely.
func (s *Sender) Unload() {
	s.name = ""
	s.lines = nil
	s.Rewind()
}

// Rewind resets send/receive accounting without touching the loaded text,
// so the same program can be streamed again from the top.
func (s *Sender) Rewind() {
	s.sent, s.received = 0, 0
	s.hold = false
	s.holdReason = ""
	s.queue = nil
	s.dataLength = 0
	s.finishedAt = time.Time{}
}

// Start marks the beginning of a streaming run.
func (s *Sender) Start() {
	s.startedAt = time.Now()
	s.finishedAt = time.Time{}
}

// Hold freezes further transmission without affecting ack accounting.
func (s *Sender) Hold(reason string) {
	s.hold = true
	s.holdReason = reason
}

// Unhold clears a hold set by Hold, %wait, or the workflow pausing.
func (s *Sender) Unhold() {
	s.hold = false
	s.holdReason = ""
}

func (s *Sender) IsHolding() bool { return s.hold }

// Loaded reports whether a program is currently assigned.
func (s *Sender) Loaded() bool { return s.lines != nil }

// Idle reports whether the Sender has nothing outstanding: every sent
// line has been acknowledged. Lines not yet sent are not considered; see
// Finished for that.
func (s *Sender) Idle() bool {
	return len(s.queue) == 0 && s.received == s.sent
}

// Finished reports whether streaming has fully completed: idle, and every
// line in the program has been sent.
func (s *Sender) Finished() bool {
	return s.Idle() && s.sent == len(s.lines) && len(s.lines) > 0
}

// Next preprocesses and transmits as many queued lines as currently fit
// in the firmware's receive buffer. It stops early -- without advancing
// further -- the moment it sends a line that should trigger a hold
// (%wait, M0, M1, M6), so the caller can react before more lines go out.
func (s *Sender) Next() NextOutcome {
	if s.hold || s.ctx == nil {
		return NextOutcome{}
	}

	for s.sent < len(s.lines) {
		raw := s.lines[s.sent]
		res, errs := gcode.Preprocess(raw, s.ctx)
		for _, err := range errs {
			s.logf("preprocess line %d: %v", s.sent, err)
		}

		if res.Line == "" {
			// Nothing goes on the wire, so the line counts as both sent
			// and received; sent-received stays equal to len(queue).
			s.sent++
			s.received++
			continue
		}

		byteLen := len(res.Line) + 1
		if len(s.queue) > 0 && s.dataLength+byteLen > s.bufferSize {
			return NextOutcome{}
		}

		s.queue = append(s.queue, sendEntry{index: s.sent, byteLen: byteLen})
		s.dataLength += byteLen
		s.sent++

		if s.WriteLine != nil {
			s.WriteLine([]byte(res.Line + "\n"))
		}

		if res.Stop == gcode.StopWait {
			s.Hold(string(gcode.StopWait))
		}
		if res.Stop != gcode.StopNone {
			return NextOutcome{Stop: res.Stop}
		}
	}

	return NextOutcome{}
}

// Ack consumes the head of the outstanding queue, matching an ok or error
// reply in FIFO order. It returns true the moment the program has fully
// finished: every line sent and every sent line acknowledged.
func (s *Sender) Ack() bool {
	if len(s.queue) == 0 {
		return false
	}
	head := s.queue[0]
	s.queue = s.queue[1:]
	s.dataLength -= head.byteLen
	s.received++

	if s.Finished() {
		s.finishedAt = time.Now()
		return true
	}
	return false
}

// Sent reports how many program lines have been consumed (transmitted, or
// skipped as empty) and Received how many of those have been acknowledged
// (skipped lines count as acknowledged); used by the %wait-catching ack
// routing rule (received+1 >= sent).
func (s *Sender) Sent() int     { return s.sent }
func (s *Sender) Received() int { return s.received }

// PendingLine returns the raw text of the line at the head of the
// outstanding queue -- the one the next ok/error reply will acknowledge --
// and false if nothing is outstanding.
func (s *Sender) PendingLine() (string, bool) {
	if len(s.queue) == 0 {
		return "", false
	}
	return s.lines[s.queue[0].index], true
}

// TuneBufferSize applies the receive-buffer self-tuning rule: once the
// firmware reports free rx space while idle and caught up, raise the
// working buffer size to match (never lower it).
func (s *Sender) TuneBufferSize(rx int) {
	if v := rx - 8; v > s.bufferSize {
		s.bufferSize = v
	}
}

// Status snapshots the Sender for broadcast.
func (s *Sender) Status() SenderStatus {
	st := SenderStatus{
		Name:       s.name,
		Total:      len(s.lines),
		Sent:       s.sent,
		Received:   s.received,
		Hold:       s.hold,
		HoldReason: s.holdReason,
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		st.StartedAt = &t
	}
	if !s.finishedAt.IsZero() {
		t := s.finishedAt
		st.FinishedAt = &t
	}
	return st
}

func (s *Sender) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Warnf(format, args...)
	}
}
