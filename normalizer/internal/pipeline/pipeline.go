// Package pipeline runs the fixed sequence of stages that turns a raw record
// into a common data model record.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/formatter"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/indexname"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/metadata"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/retention"
)

// Pipeline is immutable after New and safe for concurrent use.
type Pipeline struct {
	formatters *formatter.Set
	stamper    *metadata.Stamper
	policy     *retention.Policy
	timestamp  TimestampPolicy
	index      *indexname.Resolver

	debug          bool
	debugIgnoreTag string
	logger         *logging.Logger
}

// Result describes what happened to one record.
type Result struct {
	Record record.Record
	// Formatter is the type that formatted the record, empty when no rule
	// matched.
	Formatter formatter.Type
	Index     indexname.Outcome
	// Emptied is set when pruning left no fields.
	Emptied bool
}

// New validates cfg and builds a pipeline. All configuration errors surface
// here.
func New(cfg Config, logger *logging.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Default()
	}

	policy, err := retention.NewPolicy(retention.Options{
		DefaultKeepFields: cfg.DefaultKeepFields,
		ExtraKeepFields:   cfg.ExtraKeepFields,
		KeepEmptyFields:   cfg.KeepEmptyFields,
		UseUndefined:      cfg.UseUndefined,
		UndefinedName:     cfg.UndefinedName,
	})
	if err != nil {
		return nil, fmt.Errorf("retention policy: %w", err)
	}
	if cfg.Timestamp.Active() {
		if err := policy.RequireKept(cfg.Timestamp.Source); err != nil {
			return nil, fmt.Errorf("timestamp policy: %w", err)
		}
	}

	role, err := metadata.ParseRole(cfg.Role)
	if err != nil {
		return nil, err
	}

	formatters, err := formatter.NewSet(cfg.Formatters, formatter.Options{
		HostnameOverride: cfg.HostnameOverride,
		Now:              cfg.Now,
		Location:         cfg.SyslogLocation,
	})
	if err != nil {
		return nil, fmt.Errorf("formatters: %w", err)
	}

	index, err := indexname.NewResolver(cfg.IndexRules, cfg.IndexNameField, logger)
	if err != nil {
		return nil, fmt.Errorf("index name: %w", err)
	}

	return &Pipeline{
		formatters:     formatters,
		stamper:        metadata.NewStamper(role, cfg.Identity),
		policy:         policy,
		timestamp:      cfg.Timestamp,
		index:          index,
		debug:          cfg.Debug,
		debugIgnoreTag: cfg.DebugIgnoreTag,
		logger:         logger,
	}, nil
}

// Process transforms rec in place and returns it. It never fails; problems
// with individual records are logged.
func (p *Pipeline) Process(ctx context.Context, tag string, arrival time.Time, rec record.Record) record.Record {
	return p.ProcessResult(ctx, tag, arrival, rec).Record
}

// ProcessResult is Process with details about the stages that ran.
func (p *Pipeline) ProcessResult(ctx context.Context, tag string, arrival time.Time, rec record.Record) Result {
	if rec == nil {
		rec = record.Record{}
	}
	p.dump(ctx, "input", tag, arrival, rec)

	res := Result{Record: rec}
	if rule := p.formatters.Apply(tag, arrival, rec); rule != nil {
		res.Formatter = rule.Type
	}

	p.stamper.Stamp(rec, arrival)
	p.policy.Quarantine(rec)
	p.policy.PruneTopLevel(rec)

	if len(rec) == 0 {
		res.Emptied = true
		p.logger.WarnContext(ctx, "empty record",
			logging.Tag(tag),
			"time", arrival,
		)
	}

	p.timestamp.Apply(rec)
	res.Index = p.index.Resolve(ctx, tag, arrival, rec)

	p.dump(ctx, "output", tag, arrival, rec)
	return res
}

func (p *Pipeline) dump(ctx context.Context, stage, tag string, arrival time.Time, rec record.Record) {
	if !p.debug || tag == p.debugIgnoreTag {
		return
	}
	p.logger.InfoContext(ctx, "record dump",
		logging.Stage(stage),
		logging.Tag(tag),
		"time", arrival,
		logging.Record(rec.Clone()),
	)
}

// IndexField returns the field Resolve writes index names to, or "" when
// index naming is disabled.
func (p *Pipeline) IndexField() string {
	if !p.index.Enabled() {
		return ""
	}
	return p.index.Field()
}
