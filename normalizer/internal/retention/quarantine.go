package retention

// Quarantine moves every top-level field that is not kept into the bucket
// named by the policy. No bucket is created when every field is kept. It is a
// no-op when quarantine is disabled. Reports whether a bucket was written.
func (p *Policy) Quarantine(rec map[string]any) bool {
	if !p.useUndefined {
		return false
	}

	var bucket map[string]any
	for k, v := range rec {
		if p.Keeps(k) {
			continue
		}
		if bucket == nil {
			bucket = make(map[string]any)
		}
		bucket[k] = v
	}
	if bucket == nil {
		return false
	}

	for k := range bucket {
		delete(rec, k)
	}
	rec[p.undefinedName] = bucket
	return true
}
