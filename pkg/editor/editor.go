// Package editor applies user commands (add, edit, delete, drag-and-drop move)
// to the forest held by a store.Store. Every successful command rewrites the
// whole forest to storage.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/menued/pkg/menu"
	"github.com/mchmarny/menued/pkg/metric"
	"github.com/mchmarny/menued/pkg/store"
)

// ErrDropOutOfRange indicates a drop index outside the visible rows.
var ErrDropOutOfRange = errors.New("drop index outside visible rows")

// Operation names used in logs and the operations counter.
const (
	OpAdd    = "add"
	OpEdit   = "edit"
	OpDelete = "delete"
	OpMove   = "move"
	OpReset  = "reset"
)

// Editor mutates the forest of a store.
type Editor struct {
	store     *store.Store
	ids       menu.IDGenerator
	sameLevel bool
	counter   metric.IncrementalCounter
}

// Option configures the Editor.
type Option func(*Editor)

// WithIDGenerator sets how new node ids are issued.
// If not specified, menu.PositionalIDs is used.
func WithIDGenerator(g menu.IDGenerator) Option {
	return func(e *Editor) { e.ids = g }
}

// WithSameLevelValidation rejects drops that change a node's depth.
func WithSameLevelValidation(on bool) Option {
	return func(e *Editor) { e.sameLevel = on }
}

// WithCounter sets the counter incremented with (op, result) per command.
func WithCounter(c metric.IncrementalCounter) Option {
	return func(e *Editor) { e.counter = c }
}

// New creates an editor over s.
func New(s *store.Store, opts ...Option) *Editor {
	e := &Editor{
		store:   s,
		ids:     menu.PositionalIDs{},
		counter: metric.Noop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the store the editor writes to.
func (e *Editor) Store() *store.Store {
	return e.store
}

// SameLevelOnly reports whether cross-depth drops are rejected.
func (e *Editor) SameLevelOnly() bool {
	return e.sameLevel
}

func (e *Editor) record(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, menu.ErrNodeNotFound):
		result = "not_found"
	case errors.Is(err, menu.ErrCrossLevelMove), errors.Is(err, menu.ErrMoveIntoDescendant), errors.Is(err, ErrDropOutOfRange):
		result = "rejected"
	default:
		result = "error"
	}
	e.counter.Increment(op, result)
}

// Add appends a new root-level node built from form. The node is a container
// with no children when form.HasChildren is set.
func (e *Editor) Add(ctx context.Context, form menu.FormValues) (*menu.Node, error) {
	var added *menu.Node
	err := e.store.Update(ctx, func(f menu.Forest) (menu.Forest, error) {
		added = &menu.Node{
			ID:   e.ids.NextID(f),
			Name: form.Name,
			Link: form.Link,
		}
		if form.HasChildren {
			added.Children = []*menu.Node{}
		}
		return append(f, added), nil
	})
	e.record(OpAdd, err)
	if err != nil {
		return nil, fmt.Errorf("add node: %w", err)
	}

	slog.Info("node added", "op", OpAdd, "id", added.ID, "container", added.IsContainer())
	return added, nil
}

// Edit updates the name and link of the node with id.
func (e *Editor) Edit(ctx context.Context, id string, form menu.FormValues) (*menu.Node, error) {
	var edited *menu.Node
	err := e.store.Update(ctx, func(f menu.Forest) (menu.Forest, error) {
		n := f.Find(id)
		if n == nil {
			return nil, fmt.Errorf("edit %q: %w", id, menu.ErrNodeNotFound)
		}
		n.Name = form.Name
		n.Link = form.Link
		edited = n
		return f, nil
	})
	e.record(OpEdit, err)
	if err != nil {
		return nil, err
	}

	slog.Info("node edited", "op", OpEdit, "id", id)
	return edited, nil
}

// Delete removes the node with id and its subtree.
func (e *Editor) Delete(ctx context.Context, id string) error {
	err := e.store.Update(ctx, func(f menu.Forest) (menu.Forest, error) {
		out, _, err := f.Remove(id)
		return out, err
	})
	e.record(OpDelete, err)
	if err != nil {
		return err
	}

	slog.Info("node deleted", "op", OpDelete, "id", id)
	return nil
}

// Reset replaces the forest with the seed dataset.
func (e *Editor) Reset(ctx context.Context) error {
	err := e.store.Reset(ctx)
	e.record(OpReset, err)
	if err != nil {
		return err
	}

	slog.Info("forest reset", "op", OpReset)
	return nil
}
