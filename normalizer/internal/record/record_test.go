package record_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
)

func TestRecord_Lookup(t *testing.T) {
	rec := record.Record{
		"kubernetes": map[string]any{
			"host":      "node-1",
			"namespace": nil,
		},
		"message": "hello",
	}

	testCases := []struct {
		name  string
		path  string
		found bool
		want  any
	}{
		{name: "top level", path: "message", found: true, want: "hello"},
		{name: "nested", path: "kubernetes.host", found: true, want: "node-1"},
		{name: "nil value", path: "kubernetes.namespace", found: false},
		{name: "missing parent", path: "docker.container_id", found: false},
		{name: "through scalar", path: "message.length", found: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := rec.Lookup(tc.path)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestRecord_FirstPresent(t *testing.T) {
	rec := record.Record{"message": nil, "MESSAGE": "", "log": "from log"}

	v, ok := rec.FirstPresent("message", "MESSAGE", "log")
	require.True(t, ok)
	assert.Equal(t, "", v, "an empty string counts as present")

	_, ok = rec.FirstPresent("missing")
	assert.False(t, ok)
}

func TestRecord_ChildReplacesScalar(t *testing.T) {
	rec := record.Record{"systemd": "oops"}
	child := rec.Child("systemd")
	child["t"] = "x"

	m, ok := record.AsMap(rec["systemd"])
	require.True(t, ok)
	assert.Equal(t, "x", m["t"])
}

func TestRecord_CloneIsDeep(t *testing.T) {
	rec := record.Record{"a": map[string]any{"b": []any{"c"}}}
	cp := rec.Clone()
	cp["a"].(map[string]any)["b"].([]any)[0] = "changed"

	assert.Equal(t, "c", rec["a"].(map[string]any)["b"].([]any)[0])
}

func TestDecoder_DecodeRecord(t *testing.T) {
	var d record.Decoder
	rec, err := d.DecodeRecord([]byte(`{"s":"x","i":42,"f":1.5,"b":false,"n":null,"o":{"k":[1,"two"]}}`))
	require.NoError(t, err)

	assert.Equal(t, "x", rec["s"])
	assert.Equal(t, int64(42), rec["i"])
	assert.Equal(t, 1.5, rec["f"])
	assert.Equal(t, false, rec["b"])
	assert.Nil(t, rec["n"])
	assert.Contains(t, rec, "n")

	o, ok := record.AsMap(rec["o"])
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), "two"}, o["k"])
}

func TestDecoder_DecodeRecord_Errors(t *testing.T) {
	var d record.Decoder

	_, err := d.DecodeRecord([]byte(`{broken`))
	assert.Error(t, err)

	_, err = d.DecodeRecord([]byte(`[1,2]`))
	assert.ErrorIs(t, err, record.ErrNotObject)
}

func TestDecoder_DecodeEnvelope(t *testing.T) {
	var d record.Decoder
	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		payload string
		want    time.Time
		wantErr bool
	}{
		{
			name:    "rfc3339 time",
			payload: `{"tag":"journal.system","time":"2017-07-27T17:27:46.216527Z","record":{"MESSAGE":"hi"}}`,
			want:    time.Date(2017, 7, 27, 17, 27, 46, 216527000, time.UTC),
		},
		{
			name:    "epoch seconds",
			payload: `{"tag":"journal.system","time":1501176466,"record":{}}`,
			want:    time.Unix(1501176466, 0).UTC(),
		},
		{
			name:    "missing time uses fallback",
			payload: `{"tag":"journal.system","record":{}}`,
			want:    fallback,
		},
		{
			name:    "missing tag",
			payload: `{"record":{}}`,
			wantErr: true,
		},
		{
			name:    "record not an object",
			payload: `{"tag":"a","record":"text"}`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := d.DecodeEnvelope([]byte(tc.payload), fallback)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "journal.system", env.Tag)
			assert.True(t, tc.want.Equal(env.ReceivedAt), "got %v", env.ReceivedAt)
			assert.NotNil(t, env.Record)
		})
	}
}
