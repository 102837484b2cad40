// Package ordering computes fractional sort keys so a single item can be
// placed between two siblings without renumbering the rest of the list.
package ordering

import (
	"errors"
	"math"
)

// Gap is the distance left between keys appended at either end of a list.
const Gap = 1000.0

// Epsilon is the perturbation used when a midpoint collides with a neighbour.
const Epsilon = 0.001

var (
	// ErrExhausted means no float lies strictly between the two neighbours.
	// The sibling list has to be renumbered with Spread.
	ErrExhausted = errors.New("no sort key left between neighbours")
)

// Bound is one side of an insertion point. The zero value means "no
// neighbour on this side".
type Bound struct {
	Key float64
	Set bool
}

// None is the absent neighbour
var None = Bound{}

// Key wraps an existing sort key as a bound
func Key(k float64) Bound {
	return Bound{Key: k, Set: true}
}

// Between returns a key strictly between prev and next. At magnitudes where
// Gap no longer changes a key, appending at either end is exhausted too.
func Between(prev, next Bound) (float64, error) {
	switch {
	case !prev.Set && !next.Set:
		return Gap, nil
	case !prev.Set:
		if k := next.Key - Gap; k < next.Key {
			return k, nil
		}
		return 0, ErrExhausted
	case !next.Set:
		if k := prev.Key + Gap; k > prev.Key {
			return k, nil
		}
		return 0, ErrExhausted
	}

	lo, hi := prev.Key, next.Key
	if lo >= hi {
		return 0, ErrExhausted
	}
	mid := lo + (hi-lo)/2
	if mid > lo && mid < hi {
		return mid, nil
	}
	if k := lo + Epsilon; k > lo && k < hi {
		return k, nil
	}
	if k := math.Nextafter(lo, hi); k > lo && k < hi {
		return k, nil
	}
	return 0, ErrExhausted
}

// At returns a key for inserting at index i of an ordered key list. An index
// past the end appends.
func At(keys []float64, i int) (float64, error) {
	i = max(0, min(i, len(keys)))
	prev, next := None, None
	if i > 0 {
		prev = Key(keys[i-1])
	}
	if i < len(keys) {
		next = Key(keys[i])
	}
	return Between(prev, next)
}

// Spread returns n fresh, evenly spaced keys
func Spread(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Gap * float64(i+1)
	}
	return out
}

// Reorder returns the key for the item at index from once it takes the place
// of the item at index to. Moving down lands after the target, moving up lands
// before it.
func Reorder(keys []float64, from, to int) (float64, error) {
	if from < 0 || from >= len(keys) || to < 0 || to >= len(keys) {
		return 0, errors.New("reorder index out of range")
	}
	if from == to {
		return keys[from], nil
	}

	rest := make([]float64, 0, len(keys)-1)
	rest = append(rest, keys[:from]...)
	rest = append(rest, keys[from+1:]...)
	return At(rest, to)
}
