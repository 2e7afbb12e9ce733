package formatter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/formatter"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/tagmatch"
)

var arrival = time.Date(2017, 7, 27, 17, 30, 0, 123456000, time.UTC)

func newSet(t *testing.T, opts formatter.Options, configs ...formatter.RuleConfig) *formatter.Set {
	t.Helper()
	s, err := formatter.NewSet(configs, opts)
	require.NoError(t, err)
	return s
}

func journalRecord() record.Record {
	return record.Record{
		"_HOSTNAME":                  "myhost",
		"MESSAGE":                    "hello world",
		"PRIORITY":                   "6",
		"_SOURCE_REALTIME_TIMESTAMP": "1501176466216527",
		"__REALTIME_TIMESTAMP":       "1501176466216999",
		"_PID":                       "123",
		"_COMM":                      "sshd",
		"_TRANSPORT":                 "journal",
		"SYSLOG_IDENTIFIER":          "sshd",
		"CODE_FILE":                  "main.c",
		"_KERNEL_DEVICE":             "c1:2",
		"_UDEV_SYSNAME":              "sda",
	}
}

func TestLevelForPriority(t *testing.T) {
	testCases := []struct {
		in   any
		want string
	}{
		{"0", "emerg"},
		{"3", "err"},
		{"6", "info"},
		{" 7 ", "debug"},
		{"9", "unknown"},
		{"10", "unknown"},
		{"-1", "unknown"},
		{"NaN", "unknown"},
		{"1.0", "unknown"},
		{"", "unknown"},
		{nil, "unknown"},
		{4, "warning"},
		{int64(5), "notice"},
		{float64(2), "crit"},
		{2.5, "unknown"},
		{true, "unknown"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, formatter.LevelForPriority(tc.in), "priority %#v", tc.in)
	}
}

func TestParseType(t *testing.T) {
	typ, err := formatter.ParseType("k8s_json_file")
	require.NoError(t, err)
	assert.Equal(t, formatter.K8sJSONFile, typ)

	_, err = formatter.ParseType("windows_event")
	assert.ErrorIs(t, err, formatter.ErrUnknownType)
}

func TestNewSet_Errors(t *testing.T) {
	_, err := formatter.NewSet([]formatter.RuleConfig{{Type: "bogus", Tag: "a.**"}}, formatter.Options{})
	assert.ErrorIs(t, err, formatter.ErrUnknownType)

	_, err = formatter.NewSet([]formatter.RuleConfig{{Type: "sys_journal", Tag: "a.[b"}}, formatter.Options{})
	assert.ErrorIs(t, err, tagmatch.ErrBadPattern)
}

func TestSet_FindFirstMatchWinsAndCaches(t *testing.T) {
	s := newSet(t, formatter.Options{},
		formatter.RuleConfig{Type: "k8s_journal", Tag: "journal.container.**"},
		formatter.RuleConfig{Type: "sys_journal", Tag: "journal.**"},
	)
	require.Equal(t, 2, s.Len())

	r := s.Find("journal.container._default_.x")
	require.NotNil(t, r)
	assert.Equal(t, formatter.K8sJournal, r.Type)
	assert.Same(t, r, s.Find("journal.container._default_.x"))

	r = s.Find("journal.system")
	require.NotNil(t, r)
	assert.Equal(t, formatter.SysJournal, r.Type)
	assert.Equal(t, "journal.**", r.Tag())

	assert.Nil(t, s.Find("kubernetes.var.log"))
	assert.Nil(t, s.Find("kubernetes.var.log"))
}

func TestApply_NoMatchLeavesRecordUntouched(t *testing.T) {
	s := newSet(t, formatter.Options{}, formatter.RuleConfig{Type: "sys_journal", Tag: "journal.**"})
	rec := record.Record{"MESSAGE": "x"}

	assert.Nil(t, s.Apply("other", arrival, rec))
	assert.Equal(t, record.Record{"MESSAGE": "x"}, rec)
}

func TestApply_SystemJournal(t *testing.T) {
	s := newSet(t, formatter.Options{}, formatter.RuleConfig{
		Type:       "sys_journal",
		Tag:        "journal.system**",
		RemoveKeys: formatter.DefaultJournalRemoveKeys,
	})
	rec := journalRecord()

	r := s.Apply("journal.system", arrival, rec)
	require.NotNil(t, r)

	assert.Equal(t, "myhost", rec["hostname"])
	assert.Equal(t, "hello world", rec["message"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "2017-07-27T17:27:46.216527+00:00", rec["time"])

	systemd := rec["systemd"].(map[string]any)
	assert.Equal(t, map[string]any{"PID": "123", "COMM": "sshd", "TRANSPORT": "journal"}, systemd["t"])
	assert.Equal(t, map[string]any{"SYSLOG_IDENTIFIER": "sshd", "CODE_FILE": "main.c"}, systemd["u"])
	assert.Equal(t, map[string]any{"KERNEL_DEVICE": "c1:2", "UDEV_SYSNAME": "sda"}, systemd["k"])

	for _, k := range []string{"_HOSTNAME", "MESSAGE", "PRIORITY", "_SOURCE_REALTIME_TIMESTAMP", "_PID", "_KERNEL_DEVICE"} {
		assert.NotContains(t, rec, k)
	}
}

func TestApply_JournalOmitsEmptyGroups(t *testing.T) {
	s := newSet(t, formatter.Options{}, formatter.RuleConfig{Type: "sys_journal", Tag: "journal"})
	rec := record.Record{"MESSAGE": "m", "_PID": "", "_COMM": nil, "CODE_LINE": "12"}

	s.Apply("journal", arrival, rec)

	systemd := rec["systemd"].(map[string]any)
	assert.NotContains(t, systemd, "t")
	assert.NotContains(t, systemd, "k")
	assert.Equal(t, map[string]any{"CODE_LINE": "12"}, systemd["u"])
}

func TestApply_JournalTimePrecedence(t *testing.T) {
	testCases := []struct {
		name string
		rec  record.Record
		want string
	}{
		{
			name: "source realtime wins",
			rec:  record.Record{"_SOURCE_REALTIME_TIMESTAMP": "1501176466216527", "__REALTIME_TIMESTAMP": "1501176466000000"},
			want: "2017-07-27T17:27:46.216527+00:00",
		},
		{
			name: "realtime used when source is absent",
			rec:  record.Record{"__REALTIME_TIMESTAMP": "1501176466000001"},
			want: "2017-07-27T17:27:46.000001+00:00",
		},
		{
			name: "unparseable source skipped",
			rec:  record.Record{"_SOURCE_REALTIME_TIMESTAMP": "garbage", "__REALTIME_TIMESTAMP": "1501176466000001"},
			want: "2017-07-27T17:27:46.000001+00:00",
		},
		{
			name: "arrival fallback",
			rec:  record.Record{"MESSAGE": "m"},
			want: "2017-07-27T17:30:00.123456+00:00",
		},
	}

	s := newSet(t, formatter.Options{}, formatter.RuleConfig{Type: "sys_journal", Tag: "journal"})
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s.Apply("journal", arrival, tc.rec)
			assert.Equal(t, tc.want, tc.rec["time"])
		})
	}
}

func TestApply_SystemJournalHostname(t *testing.T) {
	testCases := []struct {
		name     string
		override string
		rec      record.Record
		want     any
	}{
		{name: "raw hostname", override: "node1", rec: record.Record{"_HOSTNAME": "myhost"}, want: "myhost"},
		{name: "localhost replaced", override: "node1", rec: record.Record{"_HOSTNAME": "localhost"}, want: "node1"},
		{name: "localhost kept without override", rec: record.Record{"_HOSTNAME": "localhost"}, want: "localhost"},
		{name: "absent", override: "node1", rec: record.Record{}, want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSet(t, formatter.Options{HostnameOverride: tc.override}, formatter.RuleConfig{Type: "sys_journal", Tag: "journal"})
			s.Apply("journal", arrival, tc.rec)
			assert.Equal(t, tc.want, tc.rec["hostname"])
		})
	}
}

func TestApply_K8sJournal(t *testing.T) {
	testCases := []struct {
		name         string
		override     string
		rec          record.Record
		wantMessage  any
		wantHostname any
	}{
		{
			name:         "kubernetes host wins",
			override:     "node1",
			rec:          record.Record{"MESSAGE": "m", "_HOSTNAME": "h", "kubernetes": map[string]any{"host": "k8s-node"}},
			wantMessage:  "m",
			wantHostname: "k8s-node",
		},
		{
			name:         "override before raw hostname",
			override:     "node1",
			rec:          record.Record{"log": "from log", "_HOSTNAME": "h"},
			wantMessage:  "from log",
			wantHostname: "node1",
		},
		{
			name:         "raw hostname last",
			rec:          record.Record{"message": "existing", "MESSAGE": "raw", "_HOSTNAME": "h"},
			wantMessage:  "existing",
			wantHostname: "h",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSet(t, formatter.Options{HostnameOverride: tc.override}, formatter.RuleConfig{Type: "k8s_journal", Tag: "journal.container.**"})
			s.Apply("journal.container.x", arrival, tc.rec)
			assert.Equal(t, tc.wantMessage, tc.rec["message"])
			assert.Equal(t, tc.wantHostname, tc.rec["hostname"])
		})
	}
}

func TestApply_SyslogFile(t *testing.T) {
	now := time.Date(2018, 1, 1, 0, 5, 0, 0, time.UTC)
	s := newSet(t, formatter.Options{HostnameOverride: "node1", Now: func() time.Time { return now }},
		formatter.RuleConfig{Type: "sys_var_log", Tag: "system.var.log**", RemoveKeys: formatter.DefaultSyslogRemoveKeys},
	)

	testCases := []struct {
		name         string
		rec          record.Record
		wantTime     string
		wantHostname any
	}{
		{
			name:         "same year",
			rec:          record.Record{"time": "Jan  1 00:01:02", "host": "web1", "pid": "42", "ident": "cron"},
			wantTime:     "2018-01-01T00:01:02.000000+00:00",
			wantHostname: "web1",
		},
		{
			name:         "rolled back a year",
			rec:          record.Record{"time": "Dec 31 23:59:59", "host": "localhost", "pid": "42", "ident": "cron"},
			wantTime:     "2017-12-31T23:59:59.000000+00:00",
			wantHostname: "node1",
		},
		{
			name:         "native time",
			rec:          record.Record{"time": time.Date(2017, 6, 1, 1, 2, 3, 0, time.UTC), "host": "web1"},
			wantTime:     "2017-06-01T01:02:03.000000+00:00",
			wantHostname: "web1",
		},
		{
			name:         "missing time uses arrival",
			rec:          record.Record{"host": "web1"},
			wantTime:     "2017-07-27T17:30:00.123456+00:00",
			wantHostname: "web1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s.Apply("system.var.log", arrival, tc.rec)
			assert.Equal(t, tc.wantTime, tc.rec["time"])
			assert.Equal(t, tc.wantHostname, tc.rec["hostname"])
			assert.NotContains(t, tc.rec, "host")
			assert.NotContains(t, tc.rec, "pid")
		})
	}
}

func TestApply_SyslogFileSystemdGroups(t *testing.T) {
	s := newSet(t, formatter.Options{}, formatter.RuleConfig{Type: "sys_var_log", Tag: "system.var.log**"})
	rec := record.Record{"pid": "42", "ident": "cron", "message": "m"}

	s.Apply("system.var.log", arrival, rec)

	assert.Equal(t, map[string]any{
		"t": map[string]any{"PID": "42"},
		"u": map[string]any{"SYSLOG_IDENTIFIER": "cron"},
	}, rec["systemd"])
}

func TestApply_ContainerJSONFile(t *testing.T) {
	testCases := []struct {
		name         string
		override     string
		rec          record.Record
		wantMessage  any
		wantLevel    string
		wantHostname any
		wantTime     string
	}{
		{
			name:         "stdout with kubernetes host",
			override:     "node1",
			rec:          record.Record{"log": "line", "stream": "stdout", "time": "2017-07-27T17:27:46.216527123Z", "kubernetes": map[string]any{"host": "k8s-node"}},
			wantMessage:  "line",
			wantLevel:    "info",
			wantHostname: "k8s-node",
			wantTime:     "2017-07-27T17:27:46.216527+00:00",
		},
		{
			name:         "stderr with override",
			override:     "node1",
			rec:          record.Record{"message": "existing", "log": "line", "stream": "stderr"},
			wantMessage:  "existing",
			wantLevel:    "err",
			wantHostname: "node1",
			wantTime:     "2017-07-27T17:30:00.123456+00:00",
		},
		{
			name:        "no host and unparseable time",
			rec:         record.Record{"log": "line", "time": "yesterday"},
			wantMessage: "line",
			wantLevel:   "err",
			wantTime:    "2017-07-27T17:30:00.123456+00:00",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSet(t, formatter.Options{HostnameOverride: tc.override},
				formatter.RuleConfig{Type: "k8s_json_file", Tag: "kubernetes.**", RemoveKeys: formatter.DefaultContainerRemoveKeys},
			)
			s.Apply("kubernetes.var.log.containers.x", arrival, tc.rec)

			assert.Equal(t, tc.wantMessage, tc.rec["message"])
			assert.Equal(t, tc.wantLevel, tc.rec["level"])
			assert.Equal(t, tc.wantHostname, tc.rec["hostname"])
			assert.Equal(t, tc.wantTime, tc.rec["time"])
			assert.NotContains(t, tc.rec, "log")
			assert.NotContains(t, tc.rec, "stream")
		})
	}
}
