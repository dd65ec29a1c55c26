package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned when a raw value cannot be read as a number.
var ErrNotNumeric = errors.New("value is not numeric")

// RawListing is an unprocessed listing as returned by the marketplace. No key
// is guaranteed to be present; a nil value is treated the same as a missing key.
type RawListing map[string]any

// Value returns the value stored under key, reporting false when the key is
// absent or nil.
func (r RawListing) Value(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the value under key as a string. Scalars are formatted;
// composite values are reported as absent.
func (r RawListing) String(key string) (string, bool) {
	v, ok := r.Value(key)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprint(t), true
	}
	return "", false
}

// StringOr returns the string under key, or fallback when it is absent.
func (r RawListing) StringOr(key, fallback string) string {
	if s, ok := r.String(key); ok {
		return s
	}
	return fallback
}

// Float returns the numeric value under key. The boolean is false when the
// key is absent; a present value that cannot be converted yields an error
// wrapping ErrNotNumeric.
func (r RawListing) Float(key string) (float64, bool, error) {
	v, ok := r.Value(key)
	if !ok {
		return 0, false, nil
	}
	f, err := ToFloat(v)
	if err != nil {
		return 0, true, err
	}
	return f, true, nil
}

// Strings returns the string elements of the sequence stored under key.
// Non-string elements are skipped. The result is never nil.
func (r RawListing) Strings(key string) []string {
	out := []string{}
	v, ok := r.Value(key)
	if !ok {
		return out
	}
	switch t := v.(type) {
	case []string:
		out = append(out, t...)
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// ToFloat converts Go numeric types, json.Number and numeric strings. NaN and
// infinities are rejected since they cannot be written as JSON.
func ToFloat(v any) (float64, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not finite", ErrNotNumeric, v)
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, t.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, t)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
}
