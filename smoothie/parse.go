package smoothie

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cncware/smoothied/coord"
)

// Parse classifies a single line (without its trailing newline) into an
// Event. It never returns an error; a line it can't make sense of becomes
// EventOther so the caller can still surface it to sessions raw.
func Parse(raw string) Event {
	line := strings.TrimSpace(raw)

	switch {
	case line == "ok":
		return Event{Kind: EventOK, Raw: raw}

	case strings.HasPrefix(line, "error:"):
		return Event{Kind: EventError, Raw: raw, Detail: strings.TrimSpace(strings.TrimPrefix(line, "error:"))}

	case strings.HasPrefix(line, "ALARM:"):
		return Event{Kind: EventAlarm, Raw: raw, Detail: strings.TrimSpace(strings.TrimPrefix(line, "ALARM:"))}

	case strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">"):
		st, err := parseStatus(line)
		if err != nil {
			return Event{Kind: EventOther, Raw: raw}
		}
		return Event{Kind: EventStatus, Raw: raw, Status: st}

	case strings.HasPrefix(line, "[GC:") || strings.HasPrefix(line, "[G") && isParserStateLine(line):
		return Event{Kind: EventParserState, Raw: raw}

	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return Event{Kind: EventParameters, Raw: raw}

	case strings.HasPrefix(line, "Grbl") || strings.HasPrefix(line, "Smoothie"):
		return Event{Kind: EventVersion, Raw: raw, Reset: true}

	default:
		return Event{Kind: EventOther, Raw: raw}
	}
}

// isParserStateLine distinguishes a "$G" reply, which lists modal words
// (G0, G54, M5, ...) with no colon-delimited fields, from a bracketed
// coordinate or probe report like "[G54:0.000,0.000,0.000]".
func isParserStateLine(line string) bool {
	return !strings.Contains(line, ":")
}

func parseCoords(data string) (coord.Point, error) {
	parts := strings.Split(data, ",")
	if len(parts) != 3 {
		return coord.Point{}, errors.New("invalid number of coordinate fields")
	}
	var p coord.Point
	var err error
	if p.X, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return p, err
	}
	if p.Y, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return p, err
	}
	if p.Z, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return p, err
	}
	return p, nil
}

func parseStatus(line string) (*Status, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(line, "<"), ">")
	parts := strings.Split(body, "|")
	if len(parts) == 0 {
		return nil, errors.New("empty status report")
	}

	st := &Status{State: parts[0]}

	for _, field := range parts[1:] {
		key, val, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		var err error
		switch key {
		case "MPos":
			st.MPos, err = parseCoords(val)
			st.HasMPos = err == nil
		case "WPos":
			st.WPos, err = parseCoords(val)
			st.HasWPos = err == nil
		case "WCO":
			st.WCO, err = parseCoords(val)
			st.HasWCO = err == nil
		case "Bf":
			err = parseBuf(st, val)
		case "Ov":
			err = parseOverrides(st, val)
		}
		if err != nil {
			return nil, err
		}
	}

	return st, nil
}

func parseBuf(st *Status, val string) error {
	parts := strings.Split(val, ",")
	if len(parts) != 2 {
		return errors.New("invalid Bf field")
	}
	planner, err := strconv.Atoi(parts[0])
	if err != nil {
		return err
	}
	rx, err := strconv.Atoi(parts[1])
	if err != nil {
		return err
	}
	st.BufPlanner, st.BufRX, st.HasBuf = planner, rx, true
	return nil
}

func parseOverrides(st *Status, val string) error {
	parts := strings.Split(val, ",")
	if len(parts) < 2 {
		return errors.New("invalid Ov field")
	}
	feed, err := strconv.Atoi(parts[0])
	if err != nil {
		return err
	}
	spindle, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return err
	}
	st.FeedOverride, st.SpindleOverride, st.HasOverrides = feed, spindle, true
	return nil
}
