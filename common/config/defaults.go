package config

// DefaultKeepFields are the top-level fields of the common data model.
var DefaultKeepFields = []string{
	"CEE", "time", "@timestamp", "aushape", "ci_job", "collectd", "docker", "fedora-ci",
	"file", "foreman", "geoip", "hostname", "ipaddr4", "ipaddr6", "kubernetes", "level",
	"message", "namespace_name", "namespace_uuid", "offset", "openstack", "ovirt", "pid",
	"pipeline_metadata", "rsyslog", "service", "systemd", "tags", "testcase", "tlog",
	"viaq_msg_id",
}

// Tags written by the collectors for each source.
const (
	journalSystemTags  = "journal.system journal.system.**"
	journalK8sTags     = "kubernetes.journal.container kubernetes.journal.container.**"
	syslogTags         = "system.var.log system.var.log.**"
	containerFileTags  = "kubernetes.var.log.containers.**"
	operationsK8sTags  = "**.*_default_*.** **.*_openshift_*.** **.*_openshift-*_*.** **.*_kube-*_*.**"
	operationsHostTags = journalSystemTags + " " + syslogTags
)

// journalRemoveKeys mirrors formatter.DefaultJournalRemoveKeys. It is listed
// here so the default configuration can be rendered and edited as a whole.
var journalRemoveKeys = []string{
	"log", "stream", "MESSAGE", "_SOURCE_REALTIME_TIMESTAMP", "__REALTIME_TIMESTAMP",
	"CONTAINER_ID", "CONTAINER_ID_FULL", "CONTAINER_NAME", "PRIORITY",
	"_BOOT_ID", "_CAP_EFFECTIVE", "_CMDLINE", "_COMM", "_EXE", "_GID", "_HOSTNAME",
	"_MACHINE_ID", "_PID", "_SELINUX_CONTEXT", "_SYSTEMD_CGROUP", "_SYSTEMD_SLICE",
	"_SYSTEMD_UNIT", "_TRANSPORT", "_UID", "_AUDIT_LOGINUID", "_AUDIT_SESSION",
	"_SYSTEMD_OWNER_UID", "_SYSTEMD_SESSION", "_SYSTEMD_USER_UNIT",
	"CODE_FILE", "CODE_FUNCTION", "CODE_LINE", "ERRNO", "MESSAGE_ID", "RESULT", "UNIT",
	"_KERNEL_DEVICE", "_KERNEL_SUBSYSTEM", "_UDEV_SYSNAME", "_UDEV_DEVNODE", "_UDEV_DEVLINK",
	"SYSLOG_FACILITY", "SYSLOG_IDENTIFIER", "SYSLOG_PID",
}

func defaultFormatters() []map[string]any {
	return []map[string]any{
		{"type": "sys_journal", "tag": journalSystemTags, "remove_keys": journalRemoveKeys},
		{"type": "k8s_journal", "tag": journalK8sTags, "remove_keys": journalRemoveKeys},
		{"type": "sys_var_log", "tag": syslogTags, "remove_keys": []string{"host", "pid", "ident"}},
		{"type": "k8s_json_file", "tag": containerFileTags, "remove_keys": []string{"log", "stream"}},
	}
}

func defaultIndexNames() []map[string]any {
	return []map[string]any{
		{
			"tag":        operationsHostTags + " " + operationsK8sTags,
			"expression": `".operations." + date(record["@timestamp"])`,
		},
		{
			"tag": "**",
			"expression": `"project." + record.kubernetes.namespace_name + "." + ` +
				`record.kubernetes.namespace_id + "." + date(record["@timestamp"])`,
		},
	}
}
