package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess_StripsComment(t *testing.T) {
	ctx := NewContext()
	res, errs := Preprocess("G1 X1 ; move right", ctx)
	assert.Empty(t, errs)
	assert.Equal(t, "G1 X1", res.Line)
	assert.Equal(t, StopNone, res.Stop)
}

func TestPreprocess_CommentOnlyLineIsEmpty(t *testing.T) {
	ctx := NewContext()
	res, errs := Preprocess("; just a comment", ctx)
	assert.Empty(t, errs)
	assert.Equal(t, PreprocessResult{}, res)
}

func TestPreprocess_Wait(t *testing.T) {
	ctx := NewContext()
	res, errs := Preprocess("%wait", ctx)
	assert.Empty(t, errs)
	assert.Equal(t, "G4 P0.5 (%wait)", res.Line)
	assert.Equal(t, StopWait, res.Stop)
}

func TestPreprocess_Assignment(t *testing.T) {
	ctx := NewContext()
	res, errs := Preprocess("%depth=1.5,passes=3", ctx)
	assert.Empty(t, errs)
	assert.Equal(t, PreprocessResult{}, res)
	assert.Equal(t, 1.5, ctx.Var("depth"))
	assert.Equal(t, 3.0, ctx.Var("passes"))
}

func TestPreprocess_BracketSubstitution(t *testing.T) {
	ctx := NewContext()
	ctx.SetVar("depth", 2)
	res, errs := Preprocess("G1 Z[depth*-1]", ctx)
	assert.Empty(t, errs)
	assert.Equal(t, "G1 Z-2", res.Line)
}

func TestPreprocess_BracketSubstitutionError(t *testing.T) {
	ctx := NewContext()
	res, errs := Preprocess("G1 Z[bogus/0]", ctx)
	assert.NotEmpty(t, errs)
	assert.Equal(t, "G1 Z", res.Line)
}

func TestPreprocess_DetectsStopCodes(t *testing.T) {
	ctx := NewContext()

	res, _ := Preprocess("M0", ctx)
	assert.Equal(t, StopM0, res.Stop)

	res, _ = Preprocess("M1", ctx)
	assert.Equal(t, StopM1, res.Stop)

	res, _ = Preprocess("M6 T1", ctx)
	assert.Equal(t, StopM6, res.Stop)

	res, _ = Preprocess("M3 S1000", ctx)
	assert.Equal(t, StopNone, res.Stop)
}

func TestPreprocess_BoundsAvailableToExpressions(t *testing.T) {
	ctx := NewContext()
	assert.NoError(t, ctx.Run(Block{{W: 'G', Arg: 0}, {W: 'X', Arg: 10}}))

	res, errs := Preprocess("G1 X[xmax+5]", ctx)
	assert.Empty(t, errs)
	assert.Equal(t, "G1 X15", res.Line)
}

func TestPreprocess_Idempotent(t *testing.T) {
	ctx := NewContext()
	res1, _ := Preprocess("G1 X1 Y2", ctx)
	res2, _ := Preprocess(res1.Line, ctx)
	assert.Equal(t, res1.Line, res2.Line)
}
