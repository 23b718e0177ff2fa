package menu

import "errors"

// CrossLevelMoveAlert is the message shown to users when a cross-level drop is
// rejected.
const CrossLevelMoveAlert = "Items can only be moved within the same level."

var (
	// ErrNodeNotFound indicates that no node in the forest carries the requested id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrCrossLevelMove indicates a drop at a different depth while same-level validation is on.
	ErrCrossLevelMove = errors.New("node can only be moved within its own level")

	// ErrMoveIntoDescendant indicates a drop inside the dragged node's own subtree.
	ErrMoveIntoDescendant = errors.New("node cannot be moved into its own subtree")

	// ErrInvalidSeed indicates that the seed document is not a JSON object.
	ErrInvalidSeed = errors.New("seed must be a JSON object")
)
