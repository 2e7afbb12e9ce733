package formatter

// Journal keys copied into systemd.t (trusted fields set by journald).
var SystemdT = map[string]string{
	"_AUDIT_LOGINUID":    "AUDIT_LOGINUID",
	"_AUDIT_SESSION":     "AUDIT_SESSION",
	"_BOOT_ID":           "BOOT_ID",
	"_CAP_EFFECTIVE":     "CAP_EFFECTIVE",
	"_CMDLINE":           "CMDLINE",
	"_COMM":              "COMM",
	"_EXE":               "EXE",
	"_GID":               "GID",
	"_MACHINE_ID":        "MACHINE_ID",
	"_PID":               "PID",
	"_SELINUX_CONTEXT":   "SELINUX_CONTEXT",
	"_SYSTEMD_CGROUP":    "SYSTEMD_CGROUP",
	"_SYSTEMD_OWNER_UID": "SYSTEMD_OWNER_UID",
	"_SYSTEMD_SESSION":   "SYSTEMD_SESSION",
	"_SYSTEMD_SLICE":     "SYSTEMD_SLICE",
	"_SYSTEMD_UNIT":      "SYSTEMD_UNIT",
	"_SYSTEMD_USER_UNIT": "SYSTEMD_USER_UNIT",
	"_TRANSPORT":         "TRANSPORT",
	"_UID":               "UID",
}

// Journal keys copied into systemd.u (user fields set by the logging client).
var SystemdU = map[string]string{
	"CODE_FILE":         "CODE_FILE",
	"CODE_FUNCTION":     "CODE_FUNCTION",
	"CODE_LINE":         "CODE_LINE",
	"ERRNO":             "ERRNO",
	"MESSAGE_ID":        "MESSAGE_ID",
	"RESULT":            "RESULT",
	"UNIT":              "UNIT",
	"SYSLOG_FACILITY":   "SYSLOG_FACILITY",
	"SYSLOG_IDENTIFIER": "SYSLOG_IDENTIFIER",
	"SYSLOG_PID":        "SYSLOG_PID",
}

// Journal keys copied into systemd.k (kernel fields).
var SystemdK = map[string]string{
	"_KERNEL_DEVICE":    "KERNEL_DEVICE",
	"_KERNEL_SUBSYSTEM": "KERNEL_SUBSYSTEM",
	"_UDEV_SYSNAME":     "UDEV_SYSNAME",
	"_UDEV_DEVNODE":     "UDEV_DEVNODE",
	"_UDEV_DEVLINK":     "UDEV_DEVLINK",
}

// JournalTimeFields are tried in order for the record time.
var JournalTimeFields = []string{"_SOURCE_REALTIME_TIMESTAMP", "__REALTIME_TIMESTAMP"}

// DefaultJournalRemoveKeys lists the raw journal keys that are redundant once
// a journal record has been formatted. The default configuration attaches it
// to journal rules; it is never applied implicitly.
var DefaultJournalRemoveKeys = []string{
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

// DefaultSyslogRemoveKeys lists the raw syslog-file keys replaced by
// canonical fields.
var DefaultSyslogRemoveKeys = []string{"host", "pid", "ident"}

// DefaultContainerRemoveKeys lists the raw container json-file keys replaced
// by canonical fields.
var DefaultContainerRemoveKeys = []string{"log", "stream"}
