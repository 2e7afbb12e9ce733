package pipeline

import (
	"time"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/formatter"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/indexname"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/metadata"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
)

// TimestampPolicy controls moving the source time field to its destination
// after pruning.
type TimestampPolicy struct {
	Source string
	Dest   string
	// Rename moves Source to Dest, overwriting Dest.
	Rename bool
	// RenameIfMissing moves Source to Dest only when Dest is absent. Source
	// is removed either way. Takes precedence over Rename.
	RenameIfMissing bool
}

// Active reports whether any rename mode is on.
func (tp TimestampPolicy) Active() bool {
	return tp.Rename || tp.RenameIfMissing
}

// Apply renames the time field in rec.
func (tp TimestampPolicy) Apply(rec record.Record) {
	if !tp.Active() {
		return
	}
	val, ok := rec[tp.Source]
	if !ok {
		return
	}
	delete(rec, tp.Source)
	if tp.RenameIfMissing {
		if _, exists := rec[tp.Dest]; exists {
			return
		}
	}
	rec[tp.Dest] = val
}

// Config is everything the pipeline needs, assembled by the hosting process.
type Config struct {
	DefaultKeepFields []string
	ExtraKeepFields   []string
	KeepEmptyFields   []string
	UseUndefined      bool
	UndefinedName     string

	Timestamp TimestampPolicy

	Role     string
	Identity metadata.Identity

	Formatters       []formatter.RuleConfig
	HostnameOverride string
	// SyslogLocation is the zone of yearless syslog timestamps.
	SyslogLocation *time.Location

	IndexRules     []indexname.Rule
	IndexNameField string

	// Debug dumps every record before and after processing, except records
	// whose tag equals DebugIgnoreTag.
	Debug          bool
	DebugIgnoreTag string

	// Now overrides the clock used for syslog year reconstruction.
	Now func() time.Time
}

// DefaultConfig returns a Config with the documented defaults and no rules.
func DefaultConfig() Config {
	return Config{
		KeepEmptyFields: []string{"message"},
		UndefinedName:   "undefined",
		Timestamp: TimestampPolicy{
			Source: "time",
			Dest:   "@timestamp",
			Rename: true,
		},
		Role: string(metadata.Collector),
	}
}
