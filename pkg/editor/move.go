package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/menued/pkg/menu"
	"github.com/mchmarny/menued/pkg/store"
)

// DropEvent describes where a dragged row was released.
type DropEvent struct {
	// NodeID is the id of the dragged node.
	NodeID string `json:"nodeId"`

	// CurrentIndex is the row the node was dropped on, counted in the
	// visible list the client rendered.
	CurrentIndex int `json:"currentIndex"`

	// IsPointerOverContainer is false for drops outside the tree.
	IsPointerOverContainer bool `json:"isPointerOverContainer"`

	// Expanded lists the ids expanded when the drop happened.
	// Nil falls back to the expansion passed to Move.
	Expanded []string `json:"expanded,omitempty"`
}

// MoveResult reports what a drop did.
type MoveResult struct {
	Moved  bool   `json:"moved"`
	NodeID string `json:"nodeId"`
	DestID string `json:"destId,omitempty"`
}

// Move applies a drop. The destination is the node shown at
// ev.CurrentIndex; the dragged node takes its place among that node's
// siblings. Drops outside the tree and drops onto the node itself are
// no-ops.
func (e *Editor) Move(ctx context.Context, ev DropEvent, expanded menu.Expansion) (MoveResult, error) {
	res := MoveResult{NodeID: ev.NodeID}
	if !ev.IsPointerOverContainer {
		return res, nil
	}
	if ev.Expanded != nil {
		expanded = menu.NewExpansion(ev.Expanded...)
	}

	err := e.store.Update(ctx, func(f menu.Forest) (menu.Forest, error) {
		visible := f.Visible(expanded)
		if ev.CurrentIndex < 0 || ev.CurrentIndex >= len(visible) {
			return nil, fmt.Errorf("%w: %d of %d", ErrDropOutOfRange, ev.CurrentIndex, len(visible))
		}
		res.DestID = visible[ev.CurrentIndex].ID

		out, moved, err := f.MoveNode(ev.NodeID, res.DestID, e.sameLevel)
		if err != nil {
			return nil, err
		}
		if !moved {
			return nil, store.ErrUnchanged
		}
		res.Moved = true
		return out, nil
	})
	e.record(OpMove, err)
	if err != nil {
		slog.Warn("move rejected", "op", OpMove, "id", ev.NodeID, "index", ev.CurrentIndex, "error", err)
		return res, err
	}

	if res.Moved {
		slog.Info("node moved", "op", OpMove, "id", ev.NodeID, "dest", res.DestID)
	}
	return res, nil
}
