package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSession struct {
	id  string
	got []string
}

func (f *fakeSession) ID() string { return f.id }
func (f *fakeSession) Send(event string, payload []byte) error {
	f.got = append(f.got, event)
	return nil
}

func TestRegistry_Broadcast(t *testing.T) {
	var reg Registry
	a := &fakeSession{id: "a"}
	b := &fakeSession{id: "b"}
	reg.Add(a)
	reg.Add(b)

	reg.Broadcast("status", []byte("{}"))
	assert.Equal(t, []string{"status"}, a.got)
	assert.Equal(t, []string{"status"}, b.got)
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_RemoveTombstones(t *testing.T) {
	var reg Registry
	a := &fakeSession{id: "a"}
	b := &fakeSession{id: "b"}
	reg.Add(a)
	reg.Add(b)

	reg.Remove(a)
	assert.Equal(t, 1, reg.Len())

	reg.Broadcast("ok", nil)
	assert.Empty(t, a.got)
	assert.Equal(t, []string{"ok"}, b.got)
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	var reg Registry
	a := &fakeSession{id: "a"}
	reg.Add(a)
	reg.Remove(a)
	reg.Remove(a)
	assert.Equal(t, 0, reg.Len())
}
