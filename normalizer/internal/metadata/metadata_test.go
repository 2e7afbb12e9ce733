package metadata_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/metadata"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
)

func TestParseRole(t *testing.T) {
	testCases := []struct {
		in      string
		want    metadata.Role
		wantErr bool
	}{
		{in: "", want: metadata.Collector},
		{in: "collector", want: metadata.Collector},
		{in: " Normalizer ", want: metadata.Normalizer},
		{in: "shipper", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := metadata.ParseRole(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, metadata.ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestJoinVersion(t *testing.T) {
	assert.Equal(t, "1.2.3 0.0.5", metadata.JoinVersion("1.2.3", "0.0.5"))
	assert.Equal(t, "1.2.3", metadata.JoinVersion("1.2.3", ""))
}

func TestStamp(t *testing.T) {
	s := metadata.NewStamper(metadata.Normalizer, metadata.Identity{
		IPv4:      "10.0.0.1",
		IPv6:      "fe80::1",
		InputName: "nats",
		Name:      "cdm-normalizer",
		Version:   "1.0.0 0.0.5",
	})
	rec := record.Record{
		"pipeline_metadata": map[string]any{
			"collector":  map[string]any{"name": "fluentd"},
			"normalizer": map[string]any{"stale": true},
		},
	}

	s.Stamp(rec, time.Date(2017, 7, 27, 17, 27, 46, 216527000, time.UTC))

	pm := rec["pipeline_metadata"].(map[string]any)
	assert.Equal(t, map[string]any{"name": "fluentd"}, pm["collector"])
	assert.Equal(t, map[string]any{
		"ipaddr4":     "10.0.0.1",
		"ipaddr6":     "fe80::1",
		"inputname":   "nats",
		"name":        "cdm-normalizer",
		"received_at": "2017-07-27T17:27:46.216527+00:00",
		"version":     "1.0.0 0.0.5",
	}, pm["normalizer"])
}

func TestStamp_ReplacesNonMapField(t *testing.T) {
	s := metadata.NewStamper(metadata.Collector, metadata.Identity{Name: "x"})
	rec := record.Record{"pipeline_metadata": "garbage"}

	s.Stamp(rec, time.Unix(0, 0))

	pm := rec["pipeline_metadata"].(map[string]any)
	assert.Contains(t, pm, "collector")
	assert.Equal(t, metadata.Collector, s.Role())
}
