package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	re, err := NewRulesEngine()
	require.NoError(t, err)

	order := map[string]any{"price": 12.5, "qty": 10.0, "sku": "A-1", "tags": []any{"gift"}}

	tests := []struct {
		expr string
		want bool
	}{
		{"record.price * record.qty > 100.0", true},
		{"record.qty > 20", false},
		{`record.sku.startsWith("A-")`, true},
		{`"gift" in record.tags`, true},
		{`has(record.coupon)`, false},
		{"true", true},
		{"false", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := re.Evaluate(tt.expr, order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	re, err := NewRulesEngine()
	require.NoError(t, err)

	_, err = re.Evaluate("record.price >", map[string]any{})
	assert.ErrorContains(t, err, "compile error")

	_, err = re.Evaluate("1 + 2", map[string]any{})
	assert.ErrorContains(t, err, "boolean")

	_, err = re.Evaluate("record.missing > 1", map[string]any{"price": 1.0})
	assert.ErrorContains(t, err, "eval error")
}

func TestCompileCaches(t *testing.T) {
	re, err := NewRulesEngine()
	require.NoError(t, err)

	p1, err := re.Compile("record.a == 1")
	require.NoError(t, err)
	p2, err := re.Compile("record.a == 1")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}
