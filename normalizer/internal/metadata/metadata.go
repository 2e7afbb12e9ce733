// Package metadata stamps provenance information about the pipeline stage
// that handled a record.
package metadata

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/timefmt"
)

// Field is the top-level record field holding every stage's block.
const Field = "pipeline_metadata"

// ErrUnknownRole is returned for roles other than collector and normalizer.
var ErrUnknownRole = errors.New("unknown pipeline role")

// Role names the stage slot under pipeline_metadata.
type Role string

const (
	Collector  Role = "collector"
	Normalizer Role = "normalizer"
)

// ParseRole validates a configured role. An empty string selects Collector.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return Collector, nil
	case Collector, Normalizer:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Identity is the static part of a metadata block.
type Identity struct {
	IPv4      string
	IPv6      string
	InputName string
	Name      string
	Version   string
}

// JoinVersion renders the combined version string "<agent> <data>".
func JoinVersion(agent, data string) string {
	return strings.TrimSpace(agent + " " + data)
}

// Stamper writes the block for a single role.
type Stamper struct {
	role     Role
	identity Identity
}

// NewStamper returns a Stamper for role.
func NewStamper(role Role, identity Identity) *Stamper {
	return &Stamper{role: role, identity: identity}
}

// Role returns the slot the stamper writes.
func (s *Stamper) Role() Role { return s.role }

// Stamp replaces pipeline_metadata.<role> with a fresh block. Blocks written
// by other roles are preserved.
func (s *Stamper) Stamp(rec record.Record, arrival time.Time) {
	rec.Child(Field)[string(s.role)] = map[string]any{
		"ipaddr4":     s.identity.IPv4,
		"ipaddr6":     s.identity.IPv6,
		"inputname":   s.identity.InputName,
		"name":        s.identity.Name,
		"received_at": timefmt.Format(arrival),
		"version":     s.identity.Version,
	}
}
