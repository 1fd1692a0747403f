// Package ident canonicalizes externally supplied entity identifiers.
//
// Every id that reaches a graph lookup passes through Canonicalize first, so
// "42", "42.0", 42.9 and int64(42) all address the same Movie or User.
package ident

import (
	"math"
	"strconv"
	"strings"

	apperrors "film-community/backend/pkg/errors"
)

// Canonicalize converts an integer, float or numeric string into the integer
// form stored on graph entities. Floats are truncated toward zero.
func Canonicalize(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		return unsigned(uint64(v), value)
	case uint64:
		return unsigned(v, value)
	case float32:
		return truncate(float64(v), value)
	case float64:
		return truncate(v, value)
	case string:
		return parse(v)
	}
	return 0, apperrors.NewInvalidIdentifier(value)
}

func unsigned(n uint64, original any) (int64, error) {
	if n > math.MaxInt64 {
		return 0, apperrors.NewInvalidIdentifier(original)
	}
	return int64(n), nil
}

func parse(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, apperrors.NewInvalidIdentifier(s)
	}
	return truncate(f, s)
}

func truncate(f float64, original any) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, apperrors.NewInvalidIdentifier(original)
	}
	return int64(math.Trunc(f)), nil
}
