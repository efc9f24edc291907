package product

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{count: 0, want: 1},
		{count: -3, want: 1},
		{count: 1, want: 1},
		{count: 12, want: 1},
		{count: 13, want: 2},
		{count: 24, want: 2},
		{count: 25, want: 3},
		{count: 120, want: 10},
		{count: math.MaxInt, want: math.MaxInt/PageSize + 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.count), "count=%d", tt.count)
	}
}

func TestParseID(t *testing.T) {
	id := ParseID(" 42 ")
	assert.Equal(t, "42", id.String())
	assert.True(t, id.IsNumeric())

	id = ParseID("sku-7")
	assert.Equal(t, "sku-7", id.String())
	assert.False(t, id.IsNumeric())

	assert.True(t, ParseID("   ").IsZero())

	for _, in := range []string{"007", "00"} {
		id = ParseID(in)
		assert.Equal(t, in, id.String())
		assert.False(t, id.IsNumeric(), "%q has leading zeros", in)
	}
	assert.True(t, ParseID("0").IsNumeric())
}

func TestIDEquality(t *testing.T) {
	assert.Equal(t, NumericID("7"), ParseID("7"))
	assert.NotEqual(t, NumericID("7"), StringID("7"))
}
