package formatter

import (
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/timefmt"
)

func formatJournal(rec record.Record, opts Options, k8s bool) {
	groups := []struct {
		name   string
		fields map[string]string
	}{
		{"t", SystemdT},
		{"u", SystemdU},
		{"k", SystemdK},
	}
	for _, g := range groups {
		if sub := remap(rec, g.fields); sub != nil {
			rec.Child("systemd")[g.name] = sub
		}
	}

	rec["level"] = LevelForPriority(rec["PRIORITY"])

	for _, field := range JournalTimeFields {
		if !rec.Has(field) {
			continue
		}
		if t, err := timefmt.FromEpochMicros(rec[field]); err == nil {
			rec["time"] = timefmt.Format(t)
			break
		}
	}

	if k8s {
		if msg, ok := rec.FirstPresent("message", "MESSAGE", "log"); ok {
			rec["message"] = msg
		}
		switch host, ok := kubernetesHost(rec); {
		case ok:
			rec["hostname"] = host
		case opts.HostnameOverride != "":
			rec["hostname"] = opts.HostnameOverride
		case rec.Has("_HOSTNAME"):
			rec["hostname"] = rec["_HOSTNAME"]
		}
		return
	}

	if rec.Has("MESSAGE") {
		rec["message"] = rec["MESSAGE"]
	}
	if host, ok := rec["_HOSTNAME"]; ok && host != nil {
		if host == "localhost" && opts.HostnameOverride != "" {
			rec["hostname"] = opts.HostnameOverride
		} else {
			rec["hostname"] = host
		}
	}
}

// remap copies the populated keys of fields into a new group, or returns nil
// when none are populated.
func remap(rec record.Record, fields map[string]string) map[string]any {
	var sub map[string]any
	for raw, canonical := range fields {
		v, ok := rec[raw]
		if !ok || v == nil || v == "" {
			continue
		}
		if sub == nil {
			sub = make(map[string]any)
		}
		sub[canonical] = v
	}
	return sub
}
