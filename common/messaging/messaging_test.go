package messaging

import (
	"testing"
)

func TestNormalizedSubject(t *testing.T) {
	tests := []struct {
		name      string
		indexName string
		expected  string
	}{
		{name: "no index", indexName: "", expected: "logs.records.normalized"},
		{name: "operations", indexName: ".operations.2017.07.27", expected: "logs.records.normalized.operations_2017_07_27"},
		{name: "project", indexName: "project.name.uuid.2017.07.27", expected: "logs.records.normalized.project_name_uuid_2017_07_27"},
		{name: "wildcards stripped", indexName: "a*b>c", expected: "logs.records.normalized.a_b_c"},
		{name: "only separators", indexName: "...", expected: "logs.records.normalized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizedSubject(SubjectRecordsNormalized, tt.indexName); got != tt.expected {
				t.Errorf("NormalizedSubject(%q) = %q, expected %q", tt.indexName, got, tt.expected)
			}
		})
	}
}

func TestCheckClientHealth_Nil(t *testing.T) {
	status := CheckClientHealth(nil)
	if status.Connected {
		t.Error("expected disconnected status for nil client")
	}
	if status.Error == "" {
		t.Error("expected error message for nil client")
	}
}
