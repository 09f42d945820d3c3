package gcode

import (
	"errors"

	"github.com/cncware/smoothied/coord"
)

// Context tracks interpreter state across a stream of blocks: modal groups,
// machine/work position, the running bounding box of program motion, and the
// named variables assigned by %name=expr lines. The line preprocessor uses it
// to resolve [expr] substitutions and to report the travel limits of the
// lines preprocessed so far.
type Context struct {
	pos coord.Point
	wco coord.Point

	modal [256]float64

	bboxSet bool
	bboxMin coord.Point
	bboxMax coord.Point

	vars map[string]float64
}

// NewContext constructs a Context with grbl-compatible default modal state.
func NewContext() *Context {
	c := &Context{vars: make(map[string]float64)}

	c.modal[ModalGroupMotion] = 0
	c.modal[ModalGroupCoordinateSystem] = 54
	c.modal[ModalGroupPlaneSelection] = 17
	c.modal[ModalGroupDistanceMode] = 90
	c.modal[ModalGroupArcDistanceMode] = 91.1
	c.modal[ModalGroupFeedRateMode] = 94
	c.modal[ModalGroupUnits] = 21
	c.modal[ModalGroupCutterCompensationMode] = 40
	c.modal[ModalGroupToolLength] = 49
	c.modal[ModalGroupStopping] = 0
	c.modal[ModalGroupSpindle] = 5
	c.modal[ModalGroupCoolant] = 9

	return c
}

func (c *Context) Inches() bool         { return c.modal[ModalGroupUnits] == 20 }
func (c *Context) RelativeMotion() bool { return c.modal[ModalGroupDistanceMode] == 91 }

func (c *Context) WPos() coord.Point { return c.pos.Sub(c.wco) }
func (c *Context) MPos() coord.Point { return c.pos }
func (c *Context) WCO() coord.Point  { return c.wco }

func (c *Context) SetMPos(p coord.Point) { c.pos = p }
func (c *Context) SetWCO(p coord.Point)  { c.wco = p }

// Bounds returns the accumulated min/max corners of program motion seen by
// Run so far, and false if no motion has been recorded yet.
func (c *Context) Bounds() (min, max coord.Point, ok bool) {
	return c.bboxMin, c.bboxMax, c.bboxSet
}

// Var returns a named variable set by a %name=expr line, or 0 if it was
// never assigned. It satisfies the identifier resolver the expr package
// needs to evaluate [expr] substitutions.
func (c *Context) Var(name string) float64 {
	return c.vars[name]
}

// SetVar records the result of a %name=expr assignment.
func (c *Context) SetVar(name string, val float64) {
	c.vars[name] = val
}

func isSupported(g Word) bool {
	if g.IsAxis() {
		return true
	}

	if g.W == 'G' {
		switch g.Arg {
		case 0, 1, 91, 90, 20, 21, 94:
			return true
		}
	} else if g.W == 'F' {
		return true
	} else if g.W == 'M' {
		switch g.Arg {
		case 0, 1, 3, 5, 6:
			return true
		}
	}

	return false
}

func applyBlock(p coord.Point, b Block, mul float64) coord.Point {
	for _, g := range b {
		switch g.W {
		case 'X':
			p.X = g.Arg * mul
		case 'Y':
			p.Y = g.Arg * mul
		case 'Z':
			p.Z = g.Arg * mul
		}
	}

	return p
}

// Run applies a block's motion and modal changes to the context, updating
// the bounding box with the resulting work position. It does not talk to
// the machine; it's a prediction of where a block will leave the tool,
// used ahead of send time to catch unsupported codes and track travel.
func (c *Context) Run(b Block) error {
	err := b.Validate()
	if err != nil {
		return err
	}
	var machineCoords bool
	for _, g := range b {
		mg := g.ModalGroup()
		if mg != ModalGroupNone && mg != ModalGroupNonModal {
			c.modal[mg] = g.Arg
		}
		if g == (Word{W: 'G', Arg: 53.0}) {
			machineCoords = true
		}
		if !isSupported(g) {
			return errors.New("unsupported code: " + g.String())
		}
	}

	args := b.Args()
	if len(args) == 0 {
		return nil
	}

	mul := 1.0
	if c.Inches() {
		mul = 25.4
	}

	if c.RelativeMotion() {
		c.pos = c.pos.Add(applyBlock(coord.Point{}, args, mul))
	} else if machineCoords {
		c.pos = applyBlock(c.pos, args, 1)
	} else {
		c.pos = applyBlock(c.WPos(), args, mul).Add(c.wco)
	}

	wpos := c.WPos()
	if c.bboxSet {
		c.bboxMin = c.bboxMin.Min(wpos)
		c.bboxMax = c.bboxMax.Max(wpos)
	} else {
		c.bboxMin, c.bboxMax = wpos, wpos
		c.bboxSet = true
	}

	return nil
}
