package ident

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "film-community/backend/pkg/errors"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"int", 7, 7},
		{"negative int", -3, -3},
		{"int64", int64(1 << 40), 1 << 40},
		{"int32", int32(12), 12},
		{"uint", uint(610), 610},
		{"uint64", uint64(math.MaxInt64), math.MaxInt64},
		{"float truncates", 42.9, 42},
		{"negative float truncates toward zero", -2.7, -2},
		{"float32", float32(3.5), 3},
		{"numeric string", "42", 42},
		{"float string", "42.9", 42},
		{"padded string", " 17 ", 17},
		{"exponent string", "1e3", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalize_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"word", "abc"},
		{"empty", ""},
		{"mixed", "12abc"},
		{"nan", math.NaN()},
		{"inf string", "Inf"},
		{"bool", true},
		{"uint64 overflow", uint64(math.MaxInt64) + 1},
		{"nil", nil},
		{"slice", []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.value)
			require.Error(t, err)
			assert.True(t, apperrors.IsInvalidIdentifier(err))
		})
	}
}

func TestCanonicalize_IntegersRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 193609, math.MaxInt64, math.MinInt64} {
		got, err := Canonicalize(n)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestCanonicalize_FloatsTruncate(t *testing.T) {
	for _, f := range []float64{0.1, 0.999, 1.5, -1.5, 1234.5678, -0.4} {
		got, err := Canonicalize(f)
		require.NoError(t, err)
		assert.Equal(t, int64(math.Trunc(f)), got)
	}
}
