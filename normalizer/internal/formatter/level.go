package formatter

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Levels maps a syslog priority (index) to its canonical level name. Index 9
// is used for anything that cannot be parsed or is out of range.
var Levels = [10]string{"emerg", "alert", "crit", "err", "warning", "notice", "info", "debug", "trace", "unknown"}

const unknownPriority = 9

// LevelForPriority maps a raw PRIORITY value to a level name.
func LevelForPriority(v any) string {
	idx, ok := priorityIndex(v)
	if !ok || idx < 0 || idx > unknownPriority {
		idx = unknownPriority
	}
	return Levels[idx]
}

func priorityIndex(v any) (int64, bool) {
	switch p := v.(type) {
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		return i, err == nil
	case int:
		return int64(p), true
	case int64:
		return p, true
	case float64:
		if math.IsInf(p, 0) || p != math.Trunc(p) {
			return 0, false
		}
		return int64(p), true
	case json.Number:
		i, err := p.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
