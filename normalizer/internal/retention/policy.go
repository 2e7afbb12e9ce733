// Package retention decides which top-level fields of a record survive:
// fields outside the keep sets may be quarantined into a single nested bucket,
// and empty values are pruned recursively.
package retention

import (
	"errors"
	"fmt"
)

var (
	// ErrQuarantineCollision is returned when the quarantine field is itself kept.
	ErrQuarantineCollision = errors.New("quarantine field must not be listed in default_keep_fields, extra_keep_fields or keep_empty_fields")

	// ErrTimeFieldNotKept is returned when quarantine would hide the time
	// field before it can be renamed.
	ErrTimeFieldNotKept = errors.New("time field must be listed in default_keep_fields or extra_keep_fields")
)

// DefaultQuarantineName is the bucket name used when none is configured.
const DefaultQuarantineName = "undefined"

// Options are the configured retention settings.
type Options struct {
	DefaultKeepFields []string
	ExtraKeepFields   []string
	KeepEmptyFields   []string
	UseUndefined      bool
	UndefinedName     string
}

// Policy is the compiled, immutable form of Options.
type Policy struct {
	keep          map[string]struct{}
	keepEmpty     map[string]struct{}
	useUndefined  bool
	undefinedName string
}

// NewPolicy compiles opts. Keep-empty names are kept as well.
func NewPolicy(opts Options) (*Policy, error) {
	p := &Policy{
		keep:          make(map[string]struct{}),
		keepEmpty:     make(map[string]struct{}),
		useUndefined:  opts.UseUndefined,
		undefinedName: opts.UndefinedName,
	}
	if p.undefinedName == "" {
		p.undefinedName = DefaultQuarantineName
	}
	for _, set := range [][]string{opts.DefaultKeepFields, opts.ExtraKeepFields} {
		for _, name := range set {
			p.keep[name] = struct{}{}
		}
	}
	for _, name := range opts.KeepEmptyFields {
		p.keepEmpty[name] = struct{}{}
		p.keep[name] = struct{}{}
	}

	if p.useUndefined && p.Keeps(p.undefinedName) {
		return nil, fmt.Errorf("%w: %q", ErrQuarantineCollision, p.undefinedName)
	}
	return p, nil
}

// RequireKept fails when quarantine is on and name would be quarantined.
func (p *Policy) RequireKept(name string) error {
	if p.useUndefined && !p.Keeps(name) {
		return fmt.Errorf("%w: %q", ErrTimeFieldNotKept, name)
	}
	return nil
}

// Keeps reports whether name is in any keep set.
func (p *Policy) Keeps(name string) bool {
	_, ok := p.keep[name]
	return ok
}

// KeepsEmpty reports whether name survives pruning even when empty.
func (p *Policy) KeepsEmpty(name string) bool {
	_, ok := p.keepEmpty[name]
	return ok
}

// QuarantineEnabled reports whether unkept fields are bucketed.
func (p *Policy) QuarantineEnabled() bool { return p.useUndefined }

// QuarantineName is the bucket field name.
func (p *Policy) QuarantineName() string { return p.undefinedName }
