package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cncware/smoothied/coord"
)

func TestContext_Run_Motion(t *testing.T) {
	c := NewContext()

	err := c.Run(Block{{W: 'G', Arg: 1}, {W: 'X', Arg: 10}, {W: 'Y', Arg: 5}})
	assert.NoError(t, err)
	assert.Equal(t, coord.Point{X: 10, Y: 5}, c.MPos())

	err = c.Run(Block{{W: 'G', Arg: 91}})
	assert.NoError(t, err)
	err = c.Run(Block{{W: 'X', Arg: 1}})
	assert.NoError(t, err)
	assert.Equal(t, coord.Point{X: 11, Y: 5}, c.MPos())
}

func TestContext_Run_Bounds(t *testing.T) {
	c := NewContext()

	_, _, ok := c.Bounds()
	assert.False(t, ok)

	assert.NoError(t, c.Run(Block{{W: 'G', Arg: 0}, {W: 'X', Arg: 5}, {W: 'Y', Arg: -5}}))
	assert.NoError(t, c.Run(Block{{W: 'X', Arg: -5}, {W: 'Y', Arg: 5}}))

	min, max, ok := c.Bounds()
	assert.True(t, ok)
	assert.Equal(t, coord.Point{X: -5, Y: -5}, min)
	assert.Equal(t, coord.Point{X: 5, Y: 5}, max)
}

func TestContext_Run_UnsupportedCode(t *testing.T) {
	c := NewContext()
	err := c.Run(Block{{W: 'G', Arg: 2}, {W: 'X', Arg: 1}})
	assert.Error(t, err)
}

func TestContext_Vars(t *testing.T) {
	c := NewContext()
	assert.Equal(t, 0.0, c.Var("depth"))
	c.SetVar("depth", 3.5)
	assert.Equal(t, 3.5, c.Var("depth"))
}
