package smoothie

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

func TestScanner_PartialLines(t *testing.T) {
	r := iotest.OneByteReader(strings.NewReader("ok\r\nerror:1\r\n<Idle|MPos:0.000,0.000,0.000>\r\n"))
	sc := NewScanner(r)

	var kinds []EventKind
	for sc.Scan() {
		kinds = append(kinds, sc.Event().Kind)
	}
	assert.NoError(t, sc.Err())
	assert.Equal(t, []EventKind{EventOK, EventError, EventStatus}, kinds)
}
