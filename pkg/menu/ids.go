package menu

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator issues the id of a new root-level node.
type IDGenerator interface {
	NextID(f Forest) string
}

// PositionalIDs issues RootID + "/" + root count, advancing past ids that
// are still taken after earlier deletions.
type PositionalIDs struct{}

// NextID implements IDGenerator.
func (PositionalIDs) NextID(f Forest) string {
	for i := len(f); ; i++ {
		id := RootID + "/" + strconv.Itoa(i)
		if !f.Has(id) {
			return id
		}
	}
}

// RandomIDs issues random UUIDs, independent of tree position.
type RandomIDs struct{}

// NextID implements IDGenerator.
func (RandomIDs) NextID(Forest) string {
	return uuid.NewString()
}

const (
	// StrategyPositional selects PositionalIDs.
	StrategyPositional = "positional"
	// StrategyUUID selects RandomIDs.
	StrategyUUID = "uuid"
)

// NewIDGenerator returns the generator for a strategy name.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", StrategyPositional:
		return PositionalIDs{}, nil
	case StrategyUUID:
		return RandomIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
