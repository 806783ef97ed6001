package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Type names accepted by $type.
const (
	TypeString    = "string"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeObject    = "object"
	TypeArray     = "array"
	TypeNull      = "null"
	TypeUndefined = "undefined"
)

// asSequence returns v as a []any when it is one of the sequence shapes
// produced by decoders or written as Go literals. No reflection.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []bool:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}

// AsSequence is the exported form of asSequence, used by the engine to
// validate its collection argument.
func AsSequence(v any) ([]any, bool) {
	return asSequence(v)
}

// AsDocument returns v as a keyed structure.
func AsDocument(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

type numKind uint8

const (
	numInt numKind = iota
	numUint
	numFloat
)

// number keeps integers exact so 64-bit ids compare without rounding.
type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func (n number) float() float64 {
	switch n.kind {
	case numInt:
		return float64(n.i)
	case numUint:
		return float64(n.u)
	}
	return n.f
}

func (n number) isNaN() bool {
	return n.kind == numFloat && n.f != n.f
}

func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case float64:
		return number{kind: numFloat, f: n}, true
	case float32:
		return number{kind: numFloat, f: float64(n)}, true
	case int:
		return number{kind: numInt, i: int64(n)}, true
	case int8:
		return number{kind: numInt, i: int64(n)}, true
	case int16:
		return number{kind: numInt, i: int64(n)}, true
	case int32:
		return number{kind: numInt, i: int64(n)}, true
	case int64:
		return number{kind: numInt, i: n}, true
	case uint:
		return number{kind: numUint, u: uint64(n)}, true
	case uint8:
		return number{kind: numUint, u: uint64(n)}, true
	case uint16:
		return number{kind: numUint, u: uint64(n)}, true
	case uint32:
		return number{kind: numUint, u: uint64(n)}, true
	case uint64:
		return number{kind: numUint, u: n}, true
	}
	return number{}, false
}

func cmpOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareNumbers orders two numbers. Integers compare exactly, including
// signed against unsigned; floats are involved only when either side is one.
// ok is false when either side is NaN.
func compareNumbers(a, b number) (cmp int, ok bool) {
	if a.isNaN() || b.isNaN() {
		return 0, false
	}
	switch {
	case a.kind == numFloat || b.kind == numFloat:
		return cmpOrdered(a.float(), b.float()), true
	case a.kind == numInt && b.kind == numInt:
		return cmpOrdered(a.i, b.i), true
	case a.kind == numUint && b.kind == numUint:
		return cmpOrdered(a.u, b.u), true
	case a.kind == numInt:
		if a.i < 0 {
			return -1, true
		}
		return cmpOrdered(uint64(a.i), b.u), true
	default:
		if b.i < 0 {
			return 1, true
		}
		return cmpOrdered(a.u, uint64(b.i)), true
	}
}

// TypeOf names the type of v using the $type vocabulary.
func TypeOf(v any) string {
	if IsAbsent(v) {
		return TypeUndefined
	}
	if v == nil {
		return TypeNull
	}
	if _, ok := toNumber(v); ok {
		return TypeNumber
	}
	switch v.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	}
	if _, ok := asSequence(v); ok {
		return TypeArray
	}
	return TypeObject
}

// Equal is strict equality: no coercion between types, numbers compare
// numerically across Go kinds, keyed structures and sequences compare
// element by element.
func Equal(a, b any) bool {
	if IsAbsent(a) || IsAbsent(b) {
		return IsAbsent(a) && IsAbsent(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toNumber(a); ok {
		y, ok := toNumber(b)
		if !ok {
			return false
		}
		c, ok := compareNumbers(x, y)
		return ok && c == 0
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	if xs, ok := asSequence(a); ok {
		ys, ok := asSequence(b)
		if !ok || len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !Equal(xs[i], ys[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders a against b. ok is false unless both are numbers, both
// strings or both times.
func Compare(a, b any) (cmp int, ok bool) {
	if x, isNum := toNumber(a); isNum {
		y, isNum := toNumber(b)
		if !isNum {
			return 0, false
		}
		return compareNumbers(x, y)
	}
	switch x := a.(type) {
	case string:
		y, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, isTime := b.(time.Time)
		if !isTime {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

// stringify renders v as the subject of a regex match.
func stringify(v any) string {
	if v == nil {
		return "null"
	}
	if IsAbsent(v) {
		return "undefined"
	}
	if n, ok := toNumber(v); ok {
		switch n.kind {
		case numInt:
			return strconv.FormatInt(n.i, 10)
		case numUint:
			return strconv.FormatUint(n.u, 10)
		}
		return strconv.FormatFloat(n.f, 'f', -1, 64)
	}
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	}
	if seq, ok := asSequence(v); ok {
		parts := make([]string, len(seq))
		for i, e := range seq {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
