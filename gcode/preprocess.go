package gcode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cncware/smoothied/gcode/expr"
)

// StopReason names why a preprocessed line asked the caller to hold
// transmission, distinct from the zero value which means "keep going".
type StopReason string

const (
	StopNone StopReason = ""
	StopWait StopReason = "%wait"
	StopM0   StopReason = "M0"
	StopM1   StopReason = "M1"
	StopM6   StopReason = "M6"
)

// PreprocessResult is what a single raw line turns into: the text to
// actually send (possibly empty, meaning "send nothing for this line") and
// any hold reason the sender/feeder pipeline should apply because of it.
type PreprocessResult struct {
	Line string
	Stop StopReason
}

var bracketRx = regexp.MustCompile(`\[([^\]]*)\]`)
var wordRx = regexp.MustCompile(`[A-Z][0-9.\-]+`)

// Preprocess runs the line transformation pipeline: strip comments, handle
// %wait and %name=expr context lines, substitute [expr] placeholders, and
// detect M0/M1/M6 so the caller can apply the matching hold. errs collects
// any expression evaluation failures encountered along the way, plus the
// error from replaying the line through ctx (see replayMotion); they are
// non-fatal -- a failing substitution resolves to an empty string, per the
// pipeline's fallback rule, and the line is still returned.
func Preprocess(raw string, ctx *Context) (PreprocessResult, []error) {
	line := stripComment(raw)
	if line == "" {
		return PreprocessResult{}, nil
	}

	if strings.HasPrefix(line, "%") {
		return preprocessPercent(line, ctx)
	}

	line, errs := substituteBrackets(line, ctx)
	if err := replayMotion(line, ctx); err != nil {
		errs = append(errs, err)
	}
	stop := detectStop(line)
	return PreprocessResult{Line: line, Stop: stop}, errs
}

// replayMotion parses the fully-substituted line and runs it through ctx,
// so the running bounding box and cached position reflect every line the
// caller actually sends, not just what a status report reports back.
// Lines the parser rejects (laser-fire, anything with multi-letter words)
// are silently skipped. Lines that parse but hold a code Run doesn't
// support (arcs, dwells, overrides such as M220 S100) return Run's
// "unsupported code" error, which Preprocess passes on in errs.
func replayMotion(line string, ctx *Context) error {
	blocks, err := Parse(line)
	if err != nil || len(blocks) == 0 {
		return nil
	}
	return ctx.Run(blocks[0])
}

func stripComment(raw string) string {
	s := raw
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func preprocessPercent(line string, ctx *Context) (PreprocessResult, []error) {
	if line == "%wait" {
		return PreprocessResult{Line: "G4 P0.5 (%wait)", Stop: StopWait}, nil
	}

	var errs []error
	assignments := strings.Split(strings.TrimPrefix(line, "%"), ",")
	for _, a := range assignments {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		name, exprSrc, ok := strings.Cut(a, "=")
		if !ok {
			errs = append(errs, fmt.Errorf("malformed assignment %q", a))
			continue
		}
		name = strings.TrimSpace(name)
		val, err := expr.Eval(exprSrc, contextResolver{ctx})
		if err != nil {
			errs = append(errs, fmt.Errorf("assignment %q: %w", a, err))
			continue
		}
		ctx.SetVar(name, val)
	}

	return PreprocessResult{}, errs
}

func substituteBrackets(line string, ctx *Context) (string, []error) {
	var errs []error
	out := bracketRx.ReplaceAllStringFunc(line, func(m string) string {
		inner := m[1 : len(m)-1]
		val, err := expr.Eval(inner, contextResolver{ctx})
		if err != nil {
			errs = append(errs, fmt.Errorf("expression %q: %w", inner, err))
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	})
	return out, errs
}

func detectStop(line string) StopReason {
	for _, m := range wordRx.FindAllString(strings.ToUpper(line), -1) {
		var w byte
		var arg float64
		if _, err := fmt.Sscanf(m, "%c%f", &w, &arg); err != nil {
			continue
		}
		if w != 'M' {
			continue
		}
		switch arg {
		case 0:
			return StopM0
		case 1:
			return StopM1
		case 6:
			return StopM6
		}
	}
	return StopNone
}

// contextResolver exposes a Context's bounding box, machine position, and
// work position to the expression evaluator, falling back to user-assigned
// %name=expr variables for anything else.
type contextResolver struct{ ctx *Context }

func (r contextResolver) Var(name string) float64 {
	switch name {
	case "xmin", "ymin", "zmin", "xmax", "ymax", "zmax":
		min, max, ok := r.ctx.Bounds()
		if !ok {
			return 0
		}
		switch name {
		case "xmin":
			return min.X
		case "ymin":
			return min.Y
		case "zmin":
			return min.Z
		case "xmax":
			return max.X
		case "ymax":
			return max.Y
		case "zmax":
			return max.Z
		}
	case "mposx":
		return r.ctx.MPos().X
	case "mposy":
		return r.ctx.MPos().Y
	case "mposz":
		return r.ctx.MPos().Z
	case "posx":
		return r.ctx.WPos().X
	case "posy":
		return r.ctx.WPos().Y
	case "posz":
		return r.ctx.WPos().Z
	}
	return r.ctx.Var(name)
}
