package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/mchmarny/menued/pkg/menu"
)

// Mode is the form mode of a Session.
type Mode string

const (
	// ModeAdd makes Submit create a new node.
	ModeAdd Mode = "add"
	// ModeEdit makes Submit patch the node picked by BeginEdit.
	ModeEdit Mode = "edit"
)

// SessionState is a snapshot of a Session.
type SessionState struct {
	Mode     Mode     `json:"mode"`
	TargetID string   `json:"targetId,omitempty"`
	Expanded []string `json:"expanded"`
}

// Session is the state a single editing client carries between commands:
// the add/edit form mode and the tree's expansion model.
type Session struct {
	editor *Editor

	mu       sync.Mutex
	mode     Mode
	target   string
	expanded menu.Expansion
	cancel   func()
}

// NewSession starts in add mode with everything collapsed. Expanded ids
// that disappear from the forest are dropped on every change.
func NewSession(e *Editor) *Session {
	s := &Session{
		editor:   e,
		mode:     ModeAdd,
		expanded: menu.NewExpansion(),
	}
	s.cancel = e.store.Subscribe(func(f menu.Forest) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.expanded.Retain(f)
		if s.mode == ModeEdit && !f.Has(s.target) {
			s.mode, s.target = ModeAdd, ""
		}
	})
	return s
}

// Close detaches the session from the store.
func (s *Session) Close() {
	s.cancel()
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{Mode: s.mode, TargetID: s.target, Expanded: s.expanded.IDs()}
}

// Mode returns the current form mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// BeginEdit switches to edit mode for id and returns the values that
// prefill the form.
func (s *Session) BeginEdit(id string) (menu.FormValues, error) {
	n := s.editor.store.Current().Find(id)
	if n == nil {
		return menu.FormValues{}, fmt.Errorf("edit %q: %w", id, menu.ErrNodeNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode, s.target = ModeEdit, id
	return menu.FormFor(n), nil
}

// CancelEdit returns to add mode.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode, s.target = ModeAdd, ""
}

// Submit adds a node in add mode, or edits the target in edit mode and then
// returns to add mode. The form must already be validated.
func (s *Session) Submit(ctx context.Context, form menu.FormValues) (*menu.Node, error) {
	s.mu.Lock()
	mode, target := s.mode, s.target
	s.mu.Unlock()

	if mode == ModeAdd {
		return s.editor.Add(ctx, form)
	}

	n, err := s.editor.Edit(ctx, target, form)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.target == target {
		s.mode, s.target = ModeAdd, ""
	}
	s.mu.Unlock()
	return n, nil
}

// Expand marks id as expanded.
func (s *Session) Expand(id string) error {
	n := s.editor.store.Current().Find(id)
	if n == nil {
		return fmt.Errorf("expand %q: %w", id, menu.ErrNodeNotFound)
	}
	if !n.IsContainer() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded.Expand(id)
	return nil
}

// Collapse marks id as collapsed.
func (s *Session) Collapse(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded.Collapse(id)
}

// Toggle flips id between expanded and collapsed and returns the new state.
// Leaves stay collapsed.
func (s *Session) Toggle(id string) (bool, error) {
	n := s.editor.store.Current().Find(id)
	if n == nil {
		return false, fmt.Errorf("toggle %q: %w", id, menu.ErrNodeNotFound)
	}
	if !n.IsContainer() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded.Toggle(id), nil
}

// Expanded returns the expanded ids, sorted.
func (s *Session) Expanded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded.IDs()
}

// Expansion returns a copy of the expansion model.
func (s *Session) Expansion() menu.Expansion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return menu.NewExpansion(s.expanded.IDs()...)
}

// Visible returns the rows the session currently shows.
func (s *Session) Visible() []menu.FlatNode {
	return s.editor.store.Current().Visible(s.Expansion())
}

// Move applies a drop using the session expansion when the event carries none.
func (s *Session) Move(ctx context.Context, ev DropEvent) (MoveResult, error) {
	return s.editor.Move(ctx, ev, s.Expansion())
}
