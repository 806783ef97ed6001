package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndMatch(t *testing.T) {
	opts := DefaultOptions()
	doc1 := map[string]any{"role": "admin", "age": 30}
	doc2 := map[string]any{"role": "user", "age": 25}

	// 1. Simple equality
	// { "role": "admin" }
	ast1 := Parse(map[string]any{"role": "admin"}, opts)
	assert.True(t, ast1.Matches(doc1), "doc1 should match q1")
	assert.False(t, ast1.Matches(doc2), "doc2 should not match q1")

	// 2. Comparison
	// { "age": { "$gt": 25 } }
	ast2 := Parse(map[string]any{"age": map[string]any{"$gt": 25}}, opts)
	assert.True(t, ast2.Matches(doc1), "30 > 25")
	assert.False(t, ast2.Matches(doc2), "25 is not > 25")

	// 3. Implicit AND
	// { "role": "admin", "age": { "$gt": 20 } }
	ast3 := Parse(map[string]any{
		"role": "admin",
		"age":  map[string]any{"$gt": 20},
	}, opts)
	assert.True(t, ast3.Matches(doc1))
	assert.False(t, ast3.Matches(doc2), "role mismatch")
}

func TestParseEmptyQueryMatchesAll(t *testing.T) {
	n := Parse(map[string]any{}, DefaultOptions())
	assert.True(t, n.Matches(map[string]any{}))
	assert.True(t, n.Matches("not even a record"))
}

func TestParseLogical(t *testing.T) {
	opts := DefaultOptions()
	ny := map[string]any{"city": "NY", "age": 25}
	ldn := map[string]any{"city": "LDN", "age": 30}

	or := Parse(map[string]any{"$or": []any{
		map[string]any{"city": "LDN"},
		map[string]any{"age": map[string]any{"$lt": 20}},
	}}, opts)
	assert.False(t, or.Matches(ny))
	assert.True(t, or.Matches(ldn))

	and := Parse(map[string]any{"$and": []map[string]any{
		{"city": "NY"},
		{"age": 25},
	}}, opts)
	assert.True(t, and.Matches(ny))
	assert.False(t, and.Matches(ldn))

	not := Parse(map[string]any{"$not": map[string]any{"city": "NY"}}, opts)
	assert.False(t, not.Matches(ny))
	assert.True(t, not.Matches(ldn))
}

func TestParseEmptyCombinators(t *testing.T) {
	opts := DefaultOptions()
	rec := map[string]any{"a": 1}

	assert.True(t, Parse(map[string]any{"$and": []any{}}, opts).Matches(rec))
	assert.False(t, Parse(map[string]any{"$or": []any{}}, opts).Matches(rec))
	// $not of the identity query excludes everything.
	assert.False(t, Parse(map[string]any{"$not": map[string]any{}}, opts).Matches(rec))
}

func TestParseCombinatorsWithSiblingFields(t *testing.T) {
	q := map[string]any{
		"$or":    []any{map[string]any{"city": "NY"}, map[string]any{"city": "LDN"}},
		"active": true,
	}
	n := Parse(q, DefaultOptions())

	assert.True(t, n.Matches(map[string]any{"city": "NY", "active": true}))
	// The $or holds but the sibling field vetoes.
	assert.False(t, n.Matches(map[string]any{"city": "NY", "active": false}))
	assert.False(t, n.Matches(map[string]any{"city": "SF", "active": true}))
}

func TestParseMalformedCombinators(t *testing.T) {
	opts := DefaultOptions()
	rec := map[string]any{"a": 1}

	assert.False(t, Parse(map[string]any{"$and": "nope"}, opts).Matches(rec))
	assert.False(t, Parse(map[string]any{"$or": []any{5}}, opts).Matches(rec))
	assert.False(t, Parse(map[string]any{"$not": 5}, opts).Matches(rec))
	assert.False(t, Parse(map[string]any{"$and": []any{map[string]any{}, 5}}, opts).Matches(rec))
}

func TestParseIgnoresUnknownDocumentKeys(t *testing.T) {
	n := Parse(map[string]any{"$comment": "audit", "a": 1}, DefaultOptions())
	assert.True(t, n.Matches(map[string]any{"a": 1}))

	only := Parse(map[string]any{"$where": "this.a > 0"}, DefaultOptions())
	assert.True(t, only.Matches(map[string]any{"a": 0}))
}

func TestParseNestedPaths(t *testing.T) {
	n := Parse(map[string]any{
		"profile.address.city": "NY",
		"profile.nickname":     map[string]any{"$exists": false},
	}, DefaultOptions())

	require.Implements(t, (*Node)(nil), n)
	assert.True(t, n.Matches(map[string]any{
		"profile": map[string]any{"address": map[string]any{"city": "NY"}},
	}))
	assert.False(t, n.Matches(map[string]any{
		"profile": map[string]any{"address": map[string]any{"city": "NY"}, "nickname": "x"},
	}))
}

func TestNodeString(t *testing.T) {
	n := Parse(map[string]any{
		"age":  map[string]any{"$gte": 18},
		"$not": map[string]any{"city": "NY"},
	}, DefaultOptions())

	assert.Equal(t, "$and($not(city: NY), age: {$gte: 18})", n.String())
}
