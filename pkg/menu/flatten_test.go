package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowIDs(rows []FlatNode) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestFlatten(t *testing.T) {
	rows := sampleForest(t).Flatten()

	assert.Equal(t, []string{"0/0", "0/0/0", "0/0/1", "0/1", "0/1/0", "0/1/0/0", "0/1/1", "0/2"}, rowIDs(rows))
	assert.Equal(t, FlatNode{ID: "0/1/0/0", Name: "Q1", Type: "doc", Level: 2}, rows[5])
	assert.True(t, rows[0].Expandable)
	assert.True(t, rows[7].Expandable)
	assert.False(t, rows[1].Expandable)
}

func TestVisible(t *testing.T) {
	f := sampleForest(t)

	tests := []struct {
		name     string
		expanded Expansion
		want     []string
	}{
		{"collapsed", nil, []string{"0/0", "0/1", "0/2"}},
		{"one_open", NewExpansion("0/1"), []string{"0/0", "0/1", "0/1/0", "0/1/1", "0/2"}},
		{"nested_open", NewExpansion("0/1", "0/1/0"), []string{"0/0", "0/1", "0/1/0", "0/1/0/0", "0/1/1", "0/2"}},
		{"hidden_parent", NewExpansion("0/1/0"), []string{"0/0", "0/1", "0/2"}},
		{"leaf_and_empty", NewExpansion("0/0/0", "0/2"), []string{"0/0", "0/1", "0/2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rowIDs(f.Visible(tt.expanded)))
		})
	}
}

func TestExpansion(t *testing.T) {
	e := NewExpansion("0/0")
	assert.True(t, e.IsExpanded("0/0"))

	assert.True(t, e.Toggle("0/1"))
	assert.False(t, e.Toggle("0/0"))
	assert.Equal(t, []string{"0/1"}, e.IDs())

	e.Expand("0/1/0")
	e.Expand("0/0/0") // leaf
	e.Expand("gone")
	e.Retain(sampleForest(t))
	assert.Equal(t, []string{"0/1", "0/1/0"}, e.IDs())

	e.Collapse("0/1")
	assert.False(t, e.IsExpanded("0/1"))

	var zero Expansion
	assert.False(t, zero.IsExpanded("0/0"))
}
