package ordering

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tgienger/apolo/internal/tree"
)

// Placement is where a dragged task lands relative to the drop target
type Placement int

const (
	Before Placement = iota
	After
	Inside
)

func (p Placement) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	case Inside:
		return "inside"
	}
	return fmt.Sprintf("placement(%d)", int(p))
}

// ParsePlacement accepts "before", "after" or "inside"
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	case "inside":
		return Inside, nil
	}
	return 0, fmt.Errorf("unknown placement %q", s)
}

var (
	// ErrSameNode is returned when a task is dropped on itself
	ErrSameNode = errors.New("task dropped on itself")
	// ErrIntoDescendant is returned when a task is dropped into its own subtree
	ErrIntoDescendant = errors.New("task dropped into its own subtree")
	// ErrUnknownTask is returned when either id is not in the forest
	ErrUnknownTask = errors.New("unknown task")
)

// Target is the resolved destination of a drop: the new parent ("" for the
// root list), the index among the parent's children once the dragged task is
// removed from its old place, and the sort key to store.
type Target struct {
	ParentID string
	Index    int
	Key      float64
}

// Drop resolves a drag of dragged onto target. Inside makes dragged the first
// child of target.
func Drop(f *tree.Forest, dragged, target string, p Placement) (Target, error) {
	if dragged == target {
		return Target{}, ErrSameNode
	}
	if !f.Has(dragged) || !f.Has(target) {
		return Target{}, ErrUnknownTask
	}
	if f.IsAncestor(dragged, target) {
		return Target{}, ErrIntoDescendant
	}

	var parentID string
	switch p {
	case Inside:
		parentID = target
	case Before, After:
		parentID, _ = f.Parent(target)
	default:
		return Target{}, fmt.Errorf("drop: %v", p)
	}

	siblings := siblingKeys(f, parentID, dragged)
	var idx int
	switch p {
	case Inside:
		idx = 0
	default:
		ids := withoutID(f.ChildIDs(parentID), dragged)
		for i, id := range ids {
			if id == target {
				idx = i
				break
			}
		}
		if p == After {
			idx++
		}
	}

	key, err := At(siblings, idx)
	if err != nil {
		return Target{ParentID: parentID, Index: idx}, err
	}
	return Target{ParentID: parentID, Index: idx, Key: key}, nil
}

func siblingKeys(f *tree.Forest, parentID, skip string) []float64 {
	var keys []float64
	for _, t := range f.Children(parentID) {
		if t.ID == skip {
			continue
		}
		keys = append(keys, t.Position)
	}
	return keys
}

func withoutID(ids []string, id string) []string {
	out := ids[:0]
	for _, c := range ids {
		if c != id {
			out = append(out, c)
		}
	}
	return out
}
