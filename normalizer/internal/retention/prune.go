package retention

import "github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"

// Prune removes empty values from v in place, children before parents, and
// reports whether v itself is empty afterwards. nil, "" and containers left
// with no entries are empty; numeric zero and false never are.
func Prune(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case record.Record:
		return pruneMap(t)
	case map[string]any:
		return pruneMap(t)
	case []any:
		return len(pruneSlice(t)) == 0
	default:
		return false
	}
}

func pruneMap(m map[string]any) bool {
	for k, v := range m {
		if s, ok := v.([]any); ok {
			s = pruneSlice(s)
			if len(s) == 0 {
				delete(m, k)
				continue
			}
			m[k] = s
			continue
		}
		if Prune(v) {
			delete(m, k)
		}
	}
	return len(m) == 0
}

// pruneSlice compacts s in place and returns the surviving prefix.
func pruneSlice(s []any) []any {
	out := s[:0]
	for _, e := range s {
		if inner, ok := e.([]any); ok {
			inner = pruneSlice(inner)
			if len(inner) > 0 {
				out = append(out, inner)
			}
			continue
		}
		if !Prune(e) {
			out = append(out, e)
		}
	}
	for i := len(out); i < len(s); i++ {
		s[i] = nil
	}
	return out
}

// PruneTopLevel prunes every top-level field of rec and drops the ones left
// empty. Keep-empty fields are left exactly as they are.
func (p *Policy) PruneTopLevel(rec map[string]any) {
	for k, v := range rec {
		if p.KeepsEmpty(k) {
			continue
		}
		if s, ok := v.([]any); ok {
			s = pruneSlice(s)
			if len(s) == 0 {
				delete(rec, k)
			} else {
				rec[k] = s
			}
			continue
		}
		if Prune(v) {
			delete(rec, k)
		}
	}
}
