package block

import (
	"fmt"
	"sort"
)

// Kind identifies the role a block plays in compiled context.
type Kind string

const (
	KindPinned     Kind = "pinned"
	KindReference  Kind = "reference"
	KindMemory     Kind = "memory"
	KindState      Kind = "state"
	KindToolOutput Kind = "tool_output"
	KindHistory    Kind = "history"
	KindTurn       Kind = "turn"
)

// kindOrder is the canonical total order over kinds.
var kindOrder = map[Kind]int{
	KindPinned:     0,
	KindReference:  1,
	KindMemory:     2,
	KindState:      3,
	KindToolOutput: 4,
	KindHistory:    5,
	KindTurn:       6,
}

// Kinds returns all kinds in canonical order.
func Kinds() []Kind {
	return []Kind{
		KindPinned, KindReference, KindMemory, KindState,
		KindToolOutput, KindHistory, KindTurn,
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindOrder[k]
	return ok
}

// Order returns the canonical position of k (0..6).
// Unknown kinds are a programmer error and panic.
func Order(k Kind) int {
	pos, ok := kindOrder[k]
	if !ok {
		panic(fmt.Sprintf("block: unknown kind %q", k))
	}
	return pos
}

// Compare orders two kinds canonically, returning -1, 0, or 1.
func Compare(a, b Kind) int {
	oa, ob := Order(a), Order(b)
	switch {
	case oa < ob:
		return -1
	case oa > ob:
		return 1
	default:
		return 0
	}
}

// SortStable sorts blocks in place by canonical kind order, preserving the
// relative order of blocks with equal kinds.
func SortStable(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return Order(blocks[i].Meta.Kind) < Order(blocks[j].Meta.Kind)
	})
}

// ValidateOrdered checks that blocks appear in non-decreasing kind order.
func ValidateOrdered(blocks []Block) error {
	for i := 1; i < len(blocks); i++ {
		if Compare(blocks[i-1].Meta.Kind, blocks[i].Meta.Kind) > 0 {
			return fmt.Errorf("%w: %s at index %d precedes %s",
				ErrKindOrderViolation, blocks[i-1].Meta.Kind, i-1, blocks[i].Meta.Kind)
		}
	}
	return nil
}
