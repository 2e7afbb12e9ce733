package formatter

import (
	"time"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/timefmt"
)

func formatContainer(rec record.Record, opts Options) {
	if msg, ok := rec.FirstPresent("message", "log"); ok {
		rec["message"] = msg
	}

	if rec["stream"] == "stdout" {
		rec["level"] = "info"
	} else {
		rec["level"] = "err"
	}

	if host, ok := kubernetesHost(rec); ok {
		rec["hostname"] = host
	} else if opts.HostnameOverride != "" {
		rec["hostname"] = opts.HostnameOverride
	}

	if v, ok := rec["time"]; ok {
		// Unparseable values are dropped so the arrival fallback applies.
		n, err := timefmt.Normalize(v, time.Time{})
		if err != nil || v == nil {
			delete(rec, "time")
		} else {
			rec["time"] = n
		}
	}
}
