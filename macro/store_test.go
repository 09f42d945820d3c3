package macro

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_OpenMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "macros.json"))
	require.NoError(t, err)
	assert.Empty(t, s.List())
}

func TestStore_PutGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macros.json")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Put(Macro{ID: "home", Name: "Home All", Content: "$H"}))
	m, err := s.Get("home")
	require.NoError(t, err)
	assert.Equal(t, "Home All", m.Name)

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, reopened.List(), 1)

	require.NoError(t, s.Delete("home"))
	_, err = s.Get("home")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PutReplacesExisting(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "macros.json"))
	require.NoError(t, err)

	require.NoError(t, s.Put(Macro{ID: "a", Name: "v1"}))
	require.NoError(t, s.Put(Macro{ID: "a", Name: "v2"}))

	assert.Len(t, s.List(), 1)
	m, _ := s.Get("a")
	assert.Equal(t, "v2", m.Name)
}
