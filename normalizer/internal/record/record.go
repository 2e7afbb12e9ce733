// Package record holds the mutable per-line key-value structure that flows
// through the normalizer, plus the envelope the hosting service receives it in.
package record

import (
	"strings"
	"time"
)

// Record is a single log line keyed by field name. Values are strings,
// numbers, booleans, nil, nested maps, []any or time.Time.
type Record map[string]any

// Envelope carries a record together with its routing tag and arrival time.
type Envelope struct {
	Tag        string    `json:"tag"`
	ReceivedAt time.Time `json:"time"`
	Record     Record    `json:"record"`
}

// AsMap returns v as a nested map when it is one.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Lookup resolves a dotted path such as "kubernetes.host".
func (r Record) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at path when it is a non-nil string.
func (r Record) String(path string) (string, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// FirstPresent returns the first of keys holding a non-nil top-level value.
func (r Record) FirstPresent(keys ...string) (any, bool) {
	for _, k := range keys {
		if r.Has(k) {
			return r[k], true
		}
	}
	return nil, false
}

// Child returns the nested map stored under key, creating it (or replacing a
// non-map value) when needed.
func (r Record) Child(key string) map[string]any {
	if m, ok := AsMap(r[key]); ok {
		return m
	}
	m := make(map[string]any)
	r[key] = m
	return m
}

// Delete removes every named top-level key.
func (r Record) Delete(keys ...string) {
	for _, k := range keys {
		delete(r, k)
	}
}

// Clone returns a deep copy; used for debug dumps and tests.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
