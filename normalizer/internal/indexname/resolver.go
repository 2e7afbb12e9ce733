// Package indexname computes the destination index for a record from ordered
// tag rules. Each rule carries a CEL expression evaluated against the record
// and its arrival time.
//
// Expressions see two variables:
//
//	record  map(string, dyn)  the transformed record
//	time    timestamp         the arrival time
//
// plus the CEL string extensions, date(v) and format_time(v, layout). For
// example:
//
//	".operations." + date(record["@timestamp"])
//	"project." + record.kubernetes.namespace_name + "." +
//	    record.kubernetes.namespace_id + "." + date(record["@timestamp"])
package indexname

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/tagmatch"
)

var (
	// ErrFieldWithoutRules is returned when a destination field is set but no
	// rules are configured.
	ErrFieldWithoutRules = errors.New("index name field configured without rules")
	// ErrRulesWithoutField is returned when rules are configured without a
	// destination field.
	ErrRulesWithoutField = errors.New("index name rules configured without a field")
	// ErrInvalidExpression is returned when an expression fails to compile,
	// does not produce a string, or fails its smoke test.
	ErrInvalidExpression = errors.New("invalid index name expression")
)

// SmokeInstant is the arrival time used to validate expressions at startup.
var SmokeInstant = time.Date(2017, 7, 27, 17, 27, 46, 0, time.UTC)

// costLimit bounds the work a single evaluation may do.
const costLimit = 10000

// Rule maps tags to an expression.
type Rule struct {
	Tag        string `mapstructure:"tag" yaml:"tag"`
	Expression string `mapstructure:"expression" yaml:"expression"`
}

// Outcome reports what Resolve did with a record.
type Outcome string

const (
	Disabled Outcome = "disabled"
	Resolved Outcome = "resolved"
	NoMatch  Outcome = "no_match"
	Failed   Outcome = "failed"
)

type compiledRule struct {
	matcher    *tagmatch.Matcher
	expression string
	program    cel.Program
}

// Resolver is safe for concurrent use.
type Resolver struct {
	field  string
	rules  []*compiledRule
	logger *logging.Logger

	matched   sync.Map // tag -> *compiledRule
	unmatched sync.Map // tag -> struct{}
}

// NewResolver compiles rules. Rules and field must be configured together;
// when both are empty the resolver is disabled.
func NewResolver(rules []Rule, field string, logger *logging.Logger) (*Resolver, error) {
	switch {
	case field != "" && len(rules) == 0:
		return nil, fmt.Errorf("%w: %q", ErrFieldWithoutRules, field)
	case field == "" && len(rules) > 0:
		return nil, ErrRulesWithoutField
	}
	if logger == nil {
		logger = logging.Default()
	}

	r := &Resolver{field: field, logger: logger}
	if len(rules) == 0 {
		return r, nil
	}

	env, err := cel.NewEnv(append([]cel.EnvOption{
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("time", cel.TimestampType),
		ext.Strings(),
	}, functions()...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}

	for i, rule := range rules {
		m, err := tagmatch.Compile(rule.Tag)
		if err != nil {
			return nil, fmt.Errorf("index name rule %d: %w", i, err)
		}
		prg, err := compile(env, rule.Expression)
		if err != nil {
			return nil, fmt.Errorf("index name rule %d (%s): %w", i, rule.Tag, err)
		}
		r.rules = append(r.rules, &compiledRule{matcher: m, expression: rule.Expression, program: prg})
	}
	return r, nil
}

func compile(env *cel.Env, expr string) (cel.Program, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, iss.Err())
	}
	if !ast.OutputType().IsAssignableType(cel.StringType) {
		return nil, fmt.Errorf("%w: result type is %s, want string", ErrInvalidExpression, ast.OutputType())
	}
	prg, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	// Missing keys are expected on an empty record; any other failure means
	// the expression can never succeed.
	if _, err := evaluate(prg, map[string]any{}, SmokeInstant); err != nil && !isMissingKey(err) {
		return nil, fmt.Errorf("%w: smoke test: %v", ErrInvalidExpression, err)
	}
	return prg, nil
}

func evaluate(prg cel.Program, rec map[string]any, arrival time.Time) (string, error) {
	out, _, err := prg.Eval(map[string]any{"record": rec, "time": arrival})
	if err != nil {
		return "", err
	}
	s, ok := out.Value().(string)
	if !ok {
		return "", fmt.Errorf("expression returned %s, want string", out.Type().TypeName())
	}
	return s, nil
}

func isMissingKey(err error) bool {
	return strings.Contains(err.Error(), "no such key")
}

// Enabled reports whether a destination field is configured.
func (r *Resolver) Enabled() bool { return r != nil && r.field != "" }

// Field returns the destination field.
func (r *Resolver) Field() string { return r.field }

func (r *Resolver) find(tag string) *compiledRule {
	if v, ok := r.matched.Load(tag); ok {
		return v.(*compiledRule)
	}
	if _, ok := r.unmatched.Load(tag); ok {
		return nil
	}
	for _, c := range r.rules {
		if c.matcher.Match(tag) {
			r.matched.Store(tag, c)
			return c
		}
	}
	r.unmatched.Store(tag, struct{}{})
	return nil
}

// Resolve evaluates the first rule matching tag and writes the result to the
// destination field. Failures are logged and leave the field untouched.
func (r *Resolver) Resolve(ctx context.Context, tag string, arrival time.Time, rec record.Record) Outcome {
	if !r.Enabled() {
		return Disabled
	}

	c := r.find(tag)
	if c == nil {
		r.logger.WarnContext(ctx, "no index name rule matches tag", logging.Tag(tag))
		return NoMatch
	}

	name, err := evaluate(c.program, map[string]any(rec), arrival)
	if err != nil {
		r.logger.WarnContext(ctx, "index name expression failed",
			logging.Tag(tag),
			logging.Expression(c.expression),
			logging.Error(err),
		)
		return Failed
	}
	rec[r.field] = name
	return Resolved
}
