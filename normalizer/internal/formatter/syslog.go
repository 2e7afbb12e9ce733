package formatter

import (
	"strings"
	"time"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/timefmt"
)

// Yearless layouts written by syslog daemons to /var/log/messages.
var syslogLayouts = []string{time.StampNano, time.StampMicro, time.StampMilli, time.Stamp}

func formatSyslog(rec record.Record, arrival time.Time, opts Options) {
	if rec.Has("pid") {
		rec.Child("systemd")["t"] = map[string]any{"PID": rec["pid"]}
	}
	if rec.Has("ident") {
		rec.Child("systemd")["u"] = map[string]any{"SYSLOG_IDENTIFIER": rec["ident"]}
	}

	if t, ok := syslogTime(rec["time"], opts); ok {
		rec["time"] = timefmt.Format(t)
	} else {
		rec["time"] = timefmt.Format(arrival)
	}

	if host, ok := rec["host"]; ok && host != nil {
		if host == "localhost" && opts.HostnameOverride != "" {
			rec["hostname"] = opts.HostnameOverride
		} else {
			rec["hostname"] = host
		}
	}
}

// syslogTime resolves the record time. Syslog files carry no year, so the
// upstream parser assumes the current one; a result in the future means the
// line was written last year.
func syslogTime(v any, opts Options) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}

	now := opts.now()
	var t time.Time
	switch raw := v.(type) {
	case string:
		parsed, ok := parseStamp(raw, now.In(opts.location()).Year(), opts.location())
		if !ok {
			n, err := timefmt.Normalize(raw, now)
			if err != nil {
				return time.Time{}, false
			}
			parsed, _ = time.Parse(timefmt.Layout, n)
		}
		t = parsed
	default:
		n, err := timefmt.Normalize(raw, now)
		if err != nil {
			return time.Time{}, false
		}
		t, _ = time.Parse(timefmt.Layout, n)
	}

	if t.After(now) {
		t = t.AddDate(-1, 0, 0)
	}
	return t, true
}

func parseStamp(s string, year int, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range syslogLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), true
	}
	return time.Time{}, false
}
