package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchmarny/menued/pkg/menu"
)

func TestSessionAddMode(t *testing.T) {
	ed, _ := newEditor(t)
	s := NewSession(ed)
	defer s.Close()

	assert.Equal(t, ModeAdd, s.Mode())

	n, err := s.Submit(context.Background(), menu.FormValues{Name: "Website", Link: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "0/2", n.ID)
	assert.Equal(t, ModeAdd, s.Mode())
}

func TestSessionEditFlow(t *testing.T) {
	ed, _ := newEditor(t)
	s := NewSession(ed)
	defer s.Close()

	require.NoError(t, mustEdit(t, ed, "0/0/0", "Calendar app", "https://cal.example"))

	form, err := s.BeginEdit("0/0/0")
	require.NoError(t, err)
	assert.Equal(t, menu.FormValues{Name: "Calendar app", Link: "https://cal.example"}, form)
	assert.Equal(t, SessionState{Mode: ModeEdit, TargetID: "0/0/0", Expanded: []string{}}, s.State())

	n, err := s.Submit(context.Background(), menu.FormValues{Name: "Calendar 2", Link: "https://cal2.example"})
	require.NoError(t, err)
	assert.Equal(t, "0/0/0", n.ID)
	assert.Equal(t, "Calendar 2", ed.Store().Current().Find("0/0/0").Name)
	assert.Equal(t, ModeAdd, s.Mode())
	assert.Len(t, ed.Store().Current(), 2, "edit must not add")
}

func mustEdit(t *testing.T, ed *Editor, id, name, link string) error {
	t.Helper()
	_, err := ed.Edit(context.Background(), id, menu.FormValues{Name: name, Link: link})
	return err
}

func TestSessionCancelEdit(t *testing.T) {
	ed, _ := newEditor(t)
	s := NewSession(ed)
	defer s.Close()

	_, err := s.BeginEdit("0/1")
	require.NoError(t, err)
	s.CancelEdit()
	assert.Equal(t, ModeAdd, s.Mode())

	_, err = s.BeginEdit("missing")
	assert.ErrorIs(t, err, menu.ErrNodeNotFound)
	assert.Equal(t, ModeAdd, s.Mode())
}

func TestSessionEditTargetDeleted(t *testing.T) {
	ed, _ := newEditor(t)
	s := NewSession(ed)
	defer s.Close()

	_, err := s.BeginEdit("0/0/1")
	require.NoError(t, err)
	require.NoError(t, ed.Delete(context.Background(), "0/0/1"))
	assert.Equal(t, ModeAdd, s.Mode())
}

func TestSessionExpansion(t *testing.T) {
	ed, _ := newEditor(t)
	s := NewSession(ed)
	defer s.Close()

	assert.Len(t, s.Visible(), 2)

	require.NoError(t, s.Expand("0/1"))
	require.NoError(t, s.Expand("0/0/0")) // leaf, ignored
	assert.ErrorIs(t, s.Expand("nope"), menu.ErrNodeNotFound)
	assert.Equal(t, []string{"0/1"}, s.State().Expanded)
	assert.Len(t, s.Visible(), 4)

	// expansion drives drop indexes: row 2 is Reports
	res, err := s.Move(context.Background(), DropEvent{NodeID: "0/1/1", CurrentIndex: 2, IsPointerOverContainer: true})
	require.NoError(t, err)
	assert.Equal(t, "0/1/0", res.DestID)
	assert.Equal(t, []string{"Notes", "Reports"}, names(ed.Store().Current()[1].Children))

	// ids that disappear are pruned
	require.NoError(t, ed.Delete(context.Background(), "0/1"))
	assert.Empty(t, s.State().Expanded)

	s.Collapse("0/0")
	assert.Len(t, s.Visible(), 1)
}

func TestSessionToggle(t *testing.T) {
	ed, _ := newEditor(t)
	s := NewSession(ed)
	defer s.Close()

	on, err := s.Toggle("0/0")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"0/0"}, s.Expanded())

	on, err = s.Toggle("0/0/1")
	require.NoError(t, err)
	assert.False(t, on)

	on, err = s.Toggle("0/0")
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, s.Expanded())

	_, err = s.Toggle("nope")
	assert.ErrorIs(t, err, menu.ErrNodeNotFound)
}
