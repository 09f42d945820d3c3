package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEval_Arithmetic(t *testing.T) {
	val, err := Eval("1+2*3", nil)
	assert.NoError(t, err)
	assert.Equal(t, 7.0, val)
}

func TestEval_Parens(t *testing.T) {
	val, err := Eval("(1+2)*3", nil)
	assert.NoError(t, err)
	assert.Equal(t, 9.0, val)
}

func TestEval_UnaryMinus(t *testing.T) {
	val, err := Eval("-3+5", nil)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, val)
}

func TestEval_Identifier(t *testing.T) {
	val, err := Eval("depth*2", MapResolver{"depth": 3})
	assert.NoError(t, err)
	assert.Equal(t, 6.0, val)
}

func TestEval_DivideByZero(t *testing.T) {
	_, err := Eval("1/0", nil)
	assert.Error(t, err)
}

func TestEval_UnresolvedIdentifier(t *testing.T) {
	_, err := Eval("depth", nil)
	assert.Error(t, err)
}

func TestEval_MissingParen(t *testing.T) {
	_, err := Eval("(1+2", nil)
	assert.Error(t, err)
}
