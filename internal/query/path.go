package query

import (
	"strconv"
	"strings"
)

type absent struct{}

func (absent) String() string { return "undefined" }

// Absent is returned by Resolve when a path does not address any value.
// It is distinct from nil, which is a stored null.
var Absent any = absent{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// Resolve walks record along a dotted path ("address.city") and returns the
// value found there, or Absent. Numeric segments index into sequences
// ("tags.0"). Only map[string]any and map[string]string are navigable;
// named map types and structs resolve to Absent. Resolve never panics;
// malformed paths resolve to Absent.
func Resolve(record any, path string) any {
	cur := record
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return Absent
			}
			cur = v
		case map[string]string:
			v, ok := node[seg]
			if !ok {
				return Absent
			}
			cur = v
		default:
			seq, ok := asSequence(cur)
			if !ok {
				return Absent
			}
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(seq) {
				return Absent
			}
			cur = seq[i]
		}
	}
	return cur
}
