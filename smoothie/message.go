// Package smoothie classifies lines read back from a Smoothieware-class
// controller into typed events, decoding status reports (positions,
// planner/receive buffer space, overrides) along the way.
package smoothie

import "github.com/cncware/smoothied/coord"

// EventKind identifies what kind of line the firmware sent.
type EventKind int

const (
	EventOther EventKind = iota
	EventStatus
	EventOK
	EventError
	EventAlarm
	EventParserState
	EventParameters
	EventVersion
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventOK:
		return "ok"
	case EventError:
		return "error"
	case EventAlarm:
		return "alarm"
	case EventParserState:
		return "parserstate"
	case EventParameters:
		return "parameters"
	case EventVersion:
		return "version"
	default:
		return "other"
	}
}

// Event is a single classified line from the controller.
type Event struct {
	Kind   EventKind
	Raw    string
	Detail string // error/alarm message text, with the leading tag stripped
	Status *Status
	Reset  bool // set on EventVersion when the line is a post-reset boot banner
}

// Status is the decoded form of a realtime status report line
// ("<Idle|MPos:...|Bf:...>").
type Status struct {
	State string

	MPos    coord.Point
	HasMPos bool

	WPos    coord.Point
	HasWPos bool

	WCO    coord.Point
	HasWCO bool

	BufPlanner int
	BufRX      int
	HasBuf     bool

	FeedOverride    int
	SpindleOverride int
	HasOverrides    bool
}
