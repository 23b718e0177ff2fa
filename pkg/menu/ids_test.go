package menu

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionalIDs(t *testing.T) {
	var gen PositionalIDs
	f := Forest{}

	for i, want := range []string{"0/0", "0/1", "0/2"} {
		id := gen.NextID(f)
		assert.Equal(t, want, id, "add #%d", i)
		f = append(f, &Node{ID: id})
	}
}

func TestPositionalIDsSkipTaken(t *testing.T) {
	// "0/1" was deleted, so the root count (2) points at a live id
	f := Forest{{ID: "0/0"}, {ID: "0/2"}}
	assert.Equal(t, "0/3", PositionalIDs{}.NextID(f))

	// nested ids count too
	f = Forest{{ID: "0/0", Children: []*Node{{ID: "0/1"}}}}
	assert.Equal(t, "0/2", PositionalIDs{}.NextID(f))
}

func TestRandomIDs(t *testing.T) {
	a := RandomIDs{}.NextID(nil)
	b := RandomIDs{}.NextID(nil)
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestNewIDGenerator(t *testing.T) {
	gen, err := NewIDGenerator("")
	require.NoError(t, err)
	assert.IsType(t, PositionalIDs{}, gen)

	gen, err = NewIDGenerator(StrategyUUID)
	require.NoError(t, err)
	assert.IsType(t, RandomIDs{}, gen)

	_, err = NewIDGenerator("sequential")
	assert.Error(t, err)
}
