// Package query implements the query parsing and evaluation engine for
// bunquery.
//
// Unstructured queries (e.g., `{"age": {"$gt": 25}}`) are parsed into an
// Abstract Syntax Tree (AST) once per call; the tree is then matched against
// each record. Parsing never fails: malformed parts of a query compile to
// nodes that match nothing, and unknown '$' keys at document level are
// ignored.
package query

import (
	"fmt"
	"sort"
	"strings"
)

// Logical combinator keys.
const (
	KeyAnd = "$and"
	KeyOr  = "$or"
	KeyNot = "$not"
)

// Options control evaluation. The zero value is case-insensitive; use
// DefaultOptions for the documented defaults.
type Options struct {
	// CaseSensitive affects $regex and regex literals only.
	CaseSensitive bool
}

// DefaultOptions returns the default evaluation options.
func DefaultOptions() Options {
	return Options{CaseSensitive: true}
}

// Node is the common interface for all nodes in the Query AST.
type Node interface {
	Matches(record any) bool
	String() string
}

// FieldNode represents a condition on a single field path.
type FieldNode struct {
	Path      string
	Condition Condition
}

// LogicalNode represents AND/OR over its children.
type LogicalNode struct {
	Operator string // $and, $or
	Children []Node
}

// NotNode negates its child.
type NotNode struct {
	Child Node
}

// constNode is the result of compiling a malformed combinator.
type constNode bool

// Parse converts a map-based query into an AST. Keys are visited in sorted
// order and combined with an implicit $and.
// query: { "age": { "$gt": 25 }, "status": "active" }
func Parse(q map[string]any, opts Options) Node {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nodes := make([]Node, 0, len(keys))
	for _, key := range keys {
		val := q[key]
		switch key {
		case KeyAnd, KeyOr:
			nodes = append(nodes, parseLogical(key, val, opts))
		case KeyNot:
			sub, ok := AsDocument(val)
			if !ok {
				nodes = append(nodes, constNode(false))
				continue
			}
			nodes = append(nodes, &NotNode{Child: Parse(sub, opts)})
		default:
			if strings.HasPrefix(key, "$") {
				// Reserved for future combinators.
				continue
			}
			nodes = append(nodes, &FieldNode{Path: key, Condition: ParseCondition(val, opts)})
		}
	}

	if len(nodes) == 1 {
		return nodes[0]
	}
	return &LogicalNode{Operator: KeyAnd, Children: nodes}
}

func parseLogical(op string, val any, opts Options) Node {
	list, ok := asSequence(val)
	if !ok {
		return constNode(false)
	}
	children := make([]Node, 0, len(list))
	for _, item := range list {
		sub, ok := AsDocument(item)
		if !ok {
			children = append(children, constNode(false))
			continue
		}
		children = append(children, Parse(sub, opts))
	}
	return &LogicalNode{Operator: op, Children: children}
}

// Matches checks if a record matches the node. Absent values are passed to
// the condition so $exists can observe them.
func (n *FieldNode) Matches(record any) bool {
	return n.Condition.Eval(Resolve(record, n.Path))
}

func (n *FieldNode) String() string {
	return fmt.Sprintf("%s: %s", n.Path, n.Condition)
}

// Matches reports whether all ($and) or any ($or) children match. An empty
// $and matches everything, an empty $or matches nothing.
func (n *LogicalNode) Matches(record any) bool {
	switch n.Operator {
	case KeyAnd:
		for _, child := range n.Children {
			if !child.Matches(record) {
				return false
			}
		}
		return true
	case KeyOr:
		for _, child := range n.Children {
			if child.Matches(record) {
				return true
			}
		}
		return false
	}
	return false
}

func (n *LogicalNode) String() string {
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.String()
	}
	return n.Operator + "(" + strings.Join(parts, ", ") + ")"
}

func (n *NotNode) Matches(record any) bool {
	return !n.Child.Matches(record)
}

func (n *NotNode) String() string {
	return KeyNot + "(" + n.Child.String() + ")"
}

func (c constNode) Matches(any) bool { return bool(c) }

func (c constNode) String() string {
	if c {
		return "true"
	}
	return "false"
}
