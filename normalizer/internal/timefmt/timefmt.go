// Package timefmt converts the time representations found in log records to
// the canonical form: RFC3339 in UTC with exactly six fractional digits.
package timefmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical output layout. Formatting a UTC time with it yields
// a "+00:00" offset, e.g. 2017-07-27T17:27:46.216527+00:00.
const Layout = "2006-01-02T15:04:05.000000-07:00"

// ErrUnsupported is returned for values that are not a recognised time form.
var ErrUnsupported = errors.New("unsupported time value")

// Format renders t canonically.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// FromEpochMicros interprets v as microseconds since the Unix epoch. Strings
// and numbers are accepted.
func FromEpochMicros(v any) (time.Time, error) {
	switch n := v.(type) {
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMicro(i).UTC(), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return time.Time{}, fmt.Errorf("%w: %q is not epoch microseconds", ErrUnsupported, n)
		}
		return microsFloat(f), nil
	case int64:
		return time.UnixMicro(n).UTC(), nil
	case int:
		return time.UnixMicro(int64(n)).UTC(), nil
	case float64:
		return microsFloat(n), nil
	case json.Number:
		return FromEpochMicros(n.String())
	default:
		return time.Time{}, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

func microsFloat(f float64) time.Time {
	sec, frac := math.Modf(f / 1e6)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC()
}

// Parse accepts a native time.Time or an RFC3339 / RFC3339Nano string.
func Parse(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("%w: nil", ErrUnsupported)
		}
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return parsed.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

// Normalize returns the canonical string for v. A nil v yields fallback.
// Strings that are all digits are read as epoch microseconds.
func Normalize(v any, fallback time.Time) (string, error) {
	if v == nil {
		return Format(fallback), nil
	}
	if s, ok := v.(string); ok && isDigits(s) {
		t, err := FromEpochMicros(s)
		if err != nil {
			return "", err
		}
		return Format(t), nil
	}
	switch v.(type) {
	case int, int64, float64, json.Number:
		t, err := FromEpochMicros(v)
		if err != nil {
			return "", err
		}
		return Format(t), nil
	}
	t, err := Parse(v)
	if err != nil {
		return "", err
	}
	return Format(t), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
