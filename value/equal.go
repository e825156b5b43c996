package value

import (
	"math"
	"math/big"
)

// Equal reports whether a and b describe the same graph.
//
// Scalars compare by value; Int and BigInt compare numerically, since both
// are tags of the one integer variant. Containers compare structurally, and
// the pairing between nodes of a and nodes of b must be consistent: if a
// holds the same *Object twice, b must hold one *Object in the same two
// places. This makes Equal terminate on cycles and detect lost sharing.
func Equal(a, b Value) bool {
	e := &equalState{
		ab: make(map[Value]Value),
		ba: make(map[Value]Value),
	}
	return e.equal(a, b)
}

type equalState struct {
	ab map[Value]Value
	ba map[Value]Value
}

func (e *equalState) equal(a, b Value) bool {
	if a == nil || b == nil {
		return isNull(a) && isNull(b)
	}
	if isInteger(a) && isInteger(b) {
		return integer(a).Cmp(integer(b)) == 0
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Float:
		return floatEqual(float64(av), float64(b.(Float)))
	case Decimal:
		return floatEqual(float64(av), float64(b.(Decimal)))
	case String:
		return av == b.(String)
	case Date:
		return av.Time().Equal(b.(Date).Time())
	case *Array:
		bv := b.(*Array)
		if done, ok := e.pair(av, bv); done {
			return ok
		}
		if av.Len() != bv.Len() {
			return false
		}
		for i := range av.elems {
			if !e.equal(av.elems[i], bv.elems[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv := b.(*Object)
		if done, ok := e.pair(av, bv); done {
			return ok
		}
		if av.Len() != bv.Len() {
			return false
		}
		for i, k := range av.keys {
			if bv.keys[i] != k {
				return false
			}
			if !e.equal(av.fields[k], bv.fields[k]) {
				return false
			}
		}
		return true
	}
	return false
}

// pair records a <-> b. done is true when either side was already paired,
// in which case ok tells whether the earlier pairing matches.
func (e *equalState) pair(a, b Value) (done, ok bool) {
	pb, seenA := e.ab[a]
	pa, seenB := e.ba[b]
	if seenA || seenB {
		return true, seenA && seenB && pb == b && pa == a
	}
	e.ab[a] = b
	e.ba[b] = a
	return false, false
}

func isNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

func isInteger(v Value) bool {
	k := v.Kind()
	return k == IntKind || k == BigIntKind
}

func integer(v Value) *big.Int {
	switch n := v.(type) {
	case Int:
		return big.NewInt(int64(n))
	case BigInt:
		return n.Big()
	}
	return nil
}

func floatEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
