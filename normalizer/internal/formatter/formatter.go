// Package formatter detects the collection source of a record from its tag
// and remaps source-specific fields onto the common data model.
package formatter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/tagmatch"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/timefmt"
)

// ErrUnknownType is returned for formatter types outside the supported set.
var ErrUnknownType = errors.New("unknown formatter type")

// Type identifies a collection source.
type Type string

const (
	// SysJournal is a host journal entry.
	SysJournal Type = "sys_journal"
	// K8sJournal is a container log collected through the journal.
	K8sJournal Type = "k8s_journal"
	// SysVarLog is a line from a plain-text syslog file.
	SysVarLog Type = "sys_var_log"
	// K8sJSONFile is a container log line from the json-file driver.
	K8sJSONFile Type = "k8s_json_file"
)

// ParseType validates a configured type name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case SysJournal, K8sJournal, SysVarLog, K8sJSONFile:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// RuleConfig is one configured formatter rule.
type RuleConfig struct {
	Type       string
	Tag        string
	RemoveKeys []string
}

// Rule is a compiled RuleConfig.
type Rule struct {
	Type       Type
	RemoveKeys []string
	matcher    *tagmatch.Matcher
}

// Tag returns the rule's pattern list.
func (r *Rule) Tag() string { return r.matcher.String() }

// Options is the static context every formatter reads.
type Options struct {
	// HostnameOverride replaces unhelpful hostnames such as "localhost".
	HostnameOverride string
	// Now returns the current time; syslog year reconstruction uses it.
	Now func() time.Time
	// Location is the zone of yearless syslog timestamps. Defaults to UTC.
	Location *time.Location
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.UTC
}

// Set is an ordered list of rules with per-tag memoization of the result.
type Set struct {
	rules []*Rule
	opts  Options

	matched   sync.Map // tag -> *Rule
	unmatched sync.Map // tag -> struct{}
}

// NewSet compiles the rules in order.
func NewSet(configs []RuleConfig, opts Options) (*Set, error) {
	s := &Set{opts: opts, rules: make([]*Rule, 0, len(configs))}
	for i, c := range configs {
		typ, err := ParseType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("formatter %d: %w", i, err)
		}
		m, err := tagmatch.Compile(c.Tag)
		if err != nil {
			return nil, fmt.Errorf("formatter %d (%s): %w", i, typ, err)
		}
		s.rules = append(s.rules, &Rule{
			Type:       typ,
			RemoveKeys: append([]string(nil), c.RemoveKeys...),
			matcher:    m,
		})
	}
	return s, nil
}

// Len returns the number of rules.
func (s *Set) Len() int { return len(s.rules) }

// Find returns the first rule matching tag, or nil.
func (s *Set) Find(tag string) *Rule {
	if v, ok := s.matched.Load(tag); ok {
		return v.(*Rule)
	}
	if _, ok := s.unmatched.Load(tag); ok {
		return nil
	}
	for _, r := range s.rules {
		if r.matcher.Match(tag) {
			s.matched.Store(tag, r)
			return r
		}
	}
	s.unmatched.Store(tag, struct{}{})
	return nil
}

// Apply formats rec according to the rule matching tag and returns that rule,
// or nil when no rule matches (rec is then left untouched).
func (s *Set) Apply(tag string, arrival time.Time, rec record.Record) *Rule {
	r := s.Find(tag)
	if r == nil {
		return nil
	}

	switch r.Type {
	case SysJournal:
		formatJournal(rec, s.opts, false)
	case K8sJournal:
		formatJournal(rec, s.opts, true)
	case SysVarLog:
		formatSyslog(rec, arrival, s.opts)
	case K8sJSONFile:
		formatContainer(rec, s.opts)
	}

	if !rec.Has("time") {
		rec["time"] = timefmt.Format(arrival)
	}
	rec.Delete(r.RemoveKeys...)
	return r
}

// kubernetesHost returns kubernetes.host when it is a non-empty value.
func kubernetesHost(rec record.Record) (any, bool) {
	v, ok := rec.Lookup("kubernetes.host")
	if !ok || v == "" {
		return nil, false
	}
	return v, true
}
