package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Operator represents a field operator (e.g., $eq, $gt, $in).
type Operator string

const (
	OpEq       Operator = "$eq"
	OpNe       Operator = "$ne"
	OpGt       Operator = "$gt"
	OpGte      Operator = "$gte"
	OpLt       Operator = "$lt"
	OpLte      Operator = "$lte"
	OpIn       Operator = "$in"
	OpNin      Operator = "$nin"
	OpRegex    Operator = "$regex"
	OpExists   Operator = "$exists"
	OpType     Operator = "$type"
	OpSize     Operator = "$size"
	OpContains Operator = "$contains"
	OpNot      Operator = "$not"
)

// Condition is the right-hand side of a field key after parsing. It is one
// of LiteralCondition, RegexCondition or OperatorCondition.
type Condition interface {
	Eval(value any) bool
	String() string
	condition()
}

// LiteralCondition matches values strictly equal to Value.
type LiteralCondition struct {
	Value any
}

// RegexCondition matches the stringified value against Pattern. A nil
// Pattern (uncompilable source) matches nothing.
type RegexCondition struct {
	Source  string
	Pattern *regexp.Regexp
}

// OperatorCondition is the AND of its predicates. With no predicates it
// matches everything.
type OperatorCondition struct {
	Predicates []Predicate
}

// Predicate is one operator entry of an operator map.
type Predicate struct {
	Op      Operator
	Operand any
	test    func(value any) bool
}

func (LiteralCondition) condition()  {}
func (RegexCondition) condition()    {}
func (OperatorCondition) condition() {}

func (c LiteralCondition) Eval(value any) bool {
	return Equal(value, c.Value)
}

func (c LiteralCondition) String() string {
	return fmt.Sprintf("%v", c.Value)
}

func (c RegexCondition) Eval(value any) bool {
	if c.Pattern == nil {
		return false
	}
	return c.Pattern.MatchString(stringify(value))
}

func (c RegexCondition) String() string {
	return "/" + c.Source + "/"
}

func (c OperatorCondition) Eval(value any) bool {
	for _, p := range c.Predicates {
		if !p.test(value) {
			return false
		}
	}
	return true
}

func (c OperatorCondition) String() string {
	parts := make([]string, len(c.Predicates))
	for i, p := range c.Predicates {
		if inner, ok := p.Operand.(Condition); ok {
			parts[i] = fmt.Sprintf("%s: %s", p.Op, inner)
			continue
		}
		parts[i] = fmt.Sprintf("%s: %v", p.Op, p.Operand)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ParseCondition classifies a raw field condition. Keyed structures are
// operator maps when empty or when any key starts with '$'; otherwise they
// are literals compared structurally.
func ParseCondition(raw any, opts Options) Condition {
	switch c := raw.(type) {
	case *regexp.Regexp:
		return newRegex(c.String(), opts)
	case map[string]any:
		if isOperatorMap(c) {
			return parseOperators(c, opts)
		}
	}
	return LiteralCondition{Value: raw}
}

func isOperatorMap(m map[string]any) bool {
	if len(m) == 0 {
		return true
	}
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func newRegex(source string, opts Options) RegexCondition {
	pattern := source
	if !opts.CaseSensitive {
		pattern = "(?i)" + source
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return RegexCondition{Source: source}
	}
	return RegexCondition{Source: source, Pattern: re}
}

func parseOperators(m map[string]any, opts Options) OperatorCondition {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		preds = append(preds, parsePredicate(Operator(k), m[k], opts))
	}
	return OperatorCondition{Predicates: preds}
}

func never(any) bool { return false }

func parsePredicate(op Operator, operand any, opts Options) Predicate {
	p := Predicate{Op: op, Operand: operand, test: never}

	switch op {
	case OpEq:
		p.test = func(v any) bool { return Equal(v, operand) }
	case OpNe:
		p.test = func(v any) bool { return !Equal(v, operand) }
	case OpGt:
		p.test = func(v any) bool { c, ok := Compare(v, operand); return ok && c > 0 }
	case OpGte:
		p.test = func(v any) bool { c, ok := Compare(v, operand); return ok && c >= 0 }
	case OpLt:
		p.test = func(v any) bool { c, ok := Compare(v, operand); return ok && c < 0 }
	case OpLte:
		p.test = func(v any) bool { c, ok := Compare(v, operand); return ok && c <= 0 }
	case OpIn, OpNin:
		set, ok := asSequence(operand)
		if !ok {
			break
		}
		want := op == OpIn
		p.test = func(v any) bool { return containsEqual(set, v) == want }
	case OpRegex:
		var rc RegexCondition
		switch r := operand.(type) {
		case *regexp.Regexp:
			rc = newRegex(r.String(), opts)
		case string:
			rc = newRegex(r, opts)
		}
		p.Operand = rc
		p.test = rc.Eval
	case OpExists:
		want, ok := operand.(bool)
		if !ok {
			break
		}
		p.test = func(v any) bool { return !IsAbsent(v) == want }
	case OpType:
		name, ok := operand.(string)
		if !ok || !knownType(name) {
			break
		}
		p.test = func(v any) bool { return TypeOf(v) == name }
	case OpSize:
		n, ok := toNumber(operand)
		if !ok {
			break
		}
		p.test = func(v any) bool {
			seq, ok := asSequence(v)
			if !ok {
				return false
			}
			c, ok := compareNumbers(number{kind: numInt, i: int64(len(seq))}, n)
			return ok && c == 0
		}
	case OpContains:
		p.test = func(v any) bool {
			seq, ok := asSequence(v)
			return ok && containsEqual(seq, operand)
		}
	case OpNot:
		inner := ParseCondition(operand, opts)
		p.Operand = inner
		p.test = func(v any) bool { return !inner.Eval(v) }
	}
	return p
}

func containsEqual(seq []any, v any) bool {
	for _, e := range seq {
		if Equal(v, e) {
			return true
		}
	}
	return false
}

func knownType(name string) bool {
	switch name {
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeArray, TypeNull, TypeUndefined:
		return true
	}
	return false
}
