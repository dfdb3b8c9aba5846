package itemfactory

import (
	"fmt"
	"math"
)

// TypeWeights controls how often each reward type is drawn. A zero weight
// disables the type.
type TypeWeights struct {
	Items uint64
	Milk  uint64
	Box   uint64
}

// DefaultTypeWeights splits claims evenly between items and Milk and keeps
// loot boxes disabled until an admin opts in.
var DefaultTypeWeights = TypeWeights{Items: 1, Milk: 1, Box: 0}

func (w TypeWeights) total() uint64 {
	return w.Items + w.Milk + w.Box
}

// Validate requires a non-zero sum that fits in 64 bits.
func (w TypeWeights) Validate() error {
	if w.Items > math.MaxUint64-w.Milk || w.Items+w.Milk > math.MaxUint64-w.Box {
		return fmt.Errorf("%w: sum overflows", ErrInvalidWeights)
	}
	if w.total() == 0 {
		return fmt.Errorf("%w: at least one weight must be non-zero", ErrInvalidWeights)
	}
	return nil
}
