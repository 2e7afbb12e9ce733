package indexname

import (
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/timefmt"
)

// DateLayout is the date form embedded in index names.
const DateLayout = "2006.01.02"

// functions declares the helpers available to expressions in addition to the
// CEL standard library.
func functions() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("date",
			cel.Overload("date_dyn", []*cel.Type{cel.DynType}, cel.StringType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					t, err := toTime(v)
					if err != nil {
						return types.NewErr("date: %v", err)
					}
					return types.String(t.Format(DateLayout))
				}),
			),
		),
		cel.Function("format_time",
			cel.Overload("format_time_dyn_string", []*cel.Type{cel.DynType, cel.StringType}, cel.StringType,
				cel.BinaryBinding(func(v, layout ref.Val) ref.Val {
					l, ok := layout.Value().(string)
					if !ok {
						return types.NewErr("format_time: layout must be a string")
					}
					t, err := toTime(v)
					if err != nil {
						return types.NewErr("format_time: %v", err)
					}
					return types.String(t.Format(l))
				}),
			),
		),
	}
}

// toTime accepts CEL timestamps, canonical or RFC3339 strings, and epoch
// microseconds. The result is in UTC.
func toTime(v ref.Val) (time.Time, error) {
	native := v.Value()
	if t, ok := native.(time.Time); ok {
		return t.UTC(), nil
	}
	s, err := timefmt.Normalize(native, time.Time{})
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(timefmt.Layout, s)
}
