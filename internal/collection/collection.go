// Package collection holds the small set of generic container helpers
// the reference-data layer needs: a map-or-array JSON shim for fields
// an AIRAC extract sometimes encodes as a bare object instead of a
// one-element list, and deterministic key ordering for map iteration
// that otherwise feeds straight into user-visible error messages.
package collection

import (
	"encoding/json"
	"slices"

	"golang.org/x/exp/constraints"
)

// SingleOrArray holds a JSON field that may be encoded as either a
// single object or an array of objects, decoding either shape into a
// slice of one element or many. Source extracts are inconsistent about
// which shape they use for fields that are usually singular (an
// airport with one runway, a procedure with one transition).
type SingleOrArray[V any] []V

func (s *SingleOrArray[V]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = nil
		return nil
	}
	if n := len(b); n > 1 && b[0] == '[' {
		var v []V
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = v
		return nil
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = []V{v}
	return nil
}

// SortedMapKeys returns m's keys in ascending order, so output that
// iterates a map (validation errors, printed summaries) comes out
// deterministic instead of depending on Go's randomized map order.
func SortedMapKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
