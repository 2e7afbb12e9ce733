package logging

import "log/slog"

// Common field names for consistent logging across the normalizer and cdmctl.
const (
	FieldService    = "service"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldError      = "error"
	FieldTag        = "tag"
	FieldStage      = "stage"
	FieldFormatter  = "formatter"
	FieldIndexName  = "index_name"
	FieldExpression = "expression"
	FieldSubject    = "subject"
	FieldRecord     = "record"
	FieldCount      = "count"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// Tag returns a slog attribute for a record routing tag.
func Tag(tag string) slog.Attr {
	return slog.String(FieldTag, tag)
}

// Stage returns a slog attribute naming a processing stage, e.g. "input".
func Stage(stage string) slog.Attr {
	return slog.String(FieldStage, stage)
}

// Formatter returns a slog attribute for the formatter type applied.
func Formatter(name string) slog.Attr {
	return slog.String(FieldFormatter, name)
}

// IndexName returns a slog attribute for a resolved index name.
func IndexName(name string) slog.Attr {
	return slog.String(FieldIndexName, name)
}

// Expression returns a slog attribute for an index name expression.
func Expression(expr string) slog.Attr {
	return slog.String(FieldExpression, expr)
}

// Subject returns a slog attribute for a messaging subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}

// Record returns a slog attribute holding a whole record. Only used for
// debug dumps.
func Record(rec map[string]any) slog.Attr {
	return slog.Any(FieldRecord, rec)
}

// Count returns a slog attribute for a count.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}
