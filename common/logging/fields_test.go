package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestStringFields(t *testing.T) {
	tests := []struct {
		name  string
		attr  slog.Attr
		key   string
		value string
	}{
		{name: "service", attr: Service("cdm-normalizer"), key: FieldService, value: "cdm-normalizer"},
		{name: "method", attr: Method("POST"), key: FieldMethod, value: "POST"},
		{name: "path", attr: Path("/api/v1/normalize"), key: FieldPath, value: "/api/v1/normalize"},
		{name: "tag", attr: Tag("journal.system"), key: FieldTag, value: "journal.system"},
		{name: "stage", attr: Stage("input"), key: FieldStage, value: "input"},
		{name: "formatter", attr: Formatter("sys_journal"), key: FieldFormatter, value: "sys_journal"},
		{name: "index name", attr: IndexName(".operations.2017.07.27"), key: FieldIndexName, value: ".operations.2017.07.27"},
		{name: "expression", attr: Expression(`"x"`), key: FieldExpression, value: `"x"`},
		{name: "subject", attr: Subject("logs.records.raw"), key: FieldSubject, value: "logs.records.raw"},
		{name: "error", attr: Error(errors.New("boom")), key: FieldError, value: "boom"},
		{name: "nil error", attr: Error(nil), key: FieldError, value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, tt.attr.Key)
			}
			if tt.attr.Value.String() != tt.value {
				t.Errorf("expected value %q, got %q", tt.value, tt.attr.Value.String())
			}
		})
	}
}

func TestCount(t *testing.T) {
	if got := Count(3).Value.Int64(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestRecord(t *testing.T) {
	attr := Record(map[string]any{"message": "m"})
	if attr.Key != FieldRecord {
		t.Errorf("expected key %q, got %q", FieldRecord, attr.Key)
	}
	if attr.Value.Kind() != slog.KindAny {
		t.Errorf("expected KindAny, got %v", attr.Value.Kind())
	}
}
