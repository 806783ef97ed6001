// Package bunquery filters in-memory records with MongoDB-style query
// documents.
//
//	adults, err := bunquery.Filter(users, bunquery.Query{
//		"age":  bunquery.Query{"$gte": 18},
//		"$or":  []bunquery.Query{{"city": "NY"}, {"city": "LDN"}},
//	})
//
// Every call re-scans the whole collection; there is no indexing and no
// state is kept between calls. Once a query has passed validation,
// evaluation never fails: unsupported operators and type-incompatible
// comparisons simply do not match.
package bunquery

import (
	"fmt"

	"github.com/kartikbazzad/bunbase/bunquery/internal/query"
)

// Record is a keyed structure; values may be scalars, nested records or
// sequences.
type Record = map[string]any

// Query is a query document: field paths and logical keys ($and, $or,
// $not) mapped to conditions.
type Query = map[string]any

// Absent is the value of a field path that does not resolve. It can be used
// as a literal condition to select records missing a field.
var Absent = query.Absent

// Expr is a compiled query document.
type Expr struct {
	root query.Node
	opts Options
}

// Compile parses q once for repeated matching.
func Compile(q Query, opts ...Option) (*Expr, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: got null", ErrInvalidQuery)
	}
	o := ResolveOptions(opts...)
	return &Expr{root: query.Parse(q, o), opts: o}, nil
}

// Match reports whether record satisfies the compiled query.
func (e *Expr) Match(record any) bool {
	return e.root.Matches(record)
}

// Options returns the options the expression was compiled with.
func (e *Expr) Options() Options {
	return e.opts
}

// String renders the compiled tree.
func (e *Expr) String() string {
	return e.root.String()
}

// Match is shorthand for compiling q and matching a single record.
func Match(record any, q Query, opts ...Option) (bool, error) {
	expr, err := Compile(q, opts...)
	if err != nil {
		return false, err
	}
	return expr.Match(record), nil
}

// Filter returns the records of data that match q, in their original order.
// data and its elements are never modified.
//
// Fields are resolved through map[string]any (Record) and map[string]string
// values only. Elements of a named map type or struct type never resolve a
// field, so only an empty query or {"f": Absent}-style conditions match them;
// convert such records to Record first.
func Filter[T any](data []T, q Query, opts ...Option) ([]T, error) {
	expr, err := Compile(q, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(data))
	for _, rec := range data {
		if expr.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AsSequence returns v as a []any when it is a collection the engine
// accepts.
func AsSequence(v any) ([]any, bool) {
	return query.AsSequence(v)
}

// FilterAny is Filter for dynamically typed input such as decoded JSON.
// data must be a sequence and q a keyed structure.
func FilterAny(data any, q any, opts ...Option) ([]any, error) {
	records, ok := AsSequence(data)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidInput, data)
	}
	doc, ok := query.AsDocument(q)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidQuery, q)
	}
	return Filter(records, doc, opts...)
}
