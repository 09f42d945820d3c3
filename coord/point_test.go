package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint_Add(t *testing.T) {
	a := Point{X: 1, Y: 2, Z: 3}
	b := Point{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Point{X: 5, Y: 7, Z: 9}, a.Add(b))
}

func TestPoint_Sub(t *testing.T) {
	a := Point{X: 5, Y: 7, Z: 9}
	b := Point{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Point{X: 1, Y: 2, Z: 3}, a.Sub(b))
}

func TestPoint_DistanceXY(t *testing.T) {
	dist := Point{X: 1, Y: 2, Z: 3}.DistanceXY(4, 5)
	assert.InEpsilon(t, 4.24264, dist, .01)
}

func TestPoint_Near(t *testing.T) {
	a := Point{X: 1, Y: 1, Z: 1}
	assert.True(t, a.Near(Point{X: 1.0001, Y: 1, Z: 1}, 0.001))
	assert.False(t, a.Near(Point{X: 1.01, Y: 1, Z: 1}, 0.001))
}

func TestPoint_MinMax(t *testing.T) {
	a := Point{X: 1, Y: -2, Z: 3}
	b := Point{X: -1, Y: 2, Z: 0}

	assert.Equal(t, Point{X: -1, Y: -2, Z: 0}, a.Min(b))
	assert.Equal(t, Point{X: 1, Y: 2, Z: 3}, a.Max(b))
}
