// Package generator produces realistic raw envelopes for each supported log
// source, for demos and load tests.
package generator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
)

// Source selects which collector's output to imitate.
type Source string

const (
	SystemJournal Source = "journal"
	K8sJournal    Source = "k8s-journal"
	Syslog        Source = "syslog"
	ContainerFile Source = "container"
)

// Sources lists every Source in generation order.
var Sources = []Source{SystemJournal, K8sJournal, Syslog, ContainerFile}

// ErrUnknownSource is returned by ParseSources.
var ErrUnknownSource = errors.New("unknown source")

// ParseSources parses a comma-separated list. "all" or "" selects every source.
func ParseSources(s string) ([]Source, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return Sources, nil
	}
	var out []Source
	for _, part := range strings.Split(s, ",") {
		src := Source(strings.TrimSpace(part))
		switch src {
		case SystemJournal, K8sJournal, Syslog, ContainerFile:
			out = append(out, src)
		default:
			return nil, fmt.Errorf("%w %q", ErrUnknownSource, src)
		}
	}
	return out, nil
}

var (
	units      = []string{"sshd.service", "crond.service", "docker.service", "kubelet.service", "NetworkManager.service"}
	namespaces = []string{"default", "openshift-logging", "kube-system", "payments", "frontend"}
	streams    = []string{"stdout", "stderr"}
)

// Generator creates envelopes. It is not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

// New returns a generator. A non-zero seed makes output repeatable.
func New(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{faker: gofakeit.New(seed), now: now}
}

// Envelope returns one envelope for src.
func (g *Generator) Envelope(src Source) record.Envelope {
	at := g.now().UTC().Add(-time.Duration(g.faker.Number(0, 5000)) * time.Millisecond)

	switch src {
	case K8sJournal:
		return g.k8sJournal(at)
	case Syslog:
		return g.syslog(at)
	case ContainerFile:
		return g.container(at)
	default:
		return g.systemJournal(at)
	}
}

func (g *Generator) systemJournal(at time.Time) record.Envelope {
	unit := g.faker.RandomString(units)
	comm := strings.TrimSuffix(unit, ".service")
	return record.Envelope{
		Tag:        "journal.system",
		ReceivedAt: at,
		Record: record.Record{
			"MESSAGE":              g.faker.HackerPhrase(),
			"PRIORITY":             strconv.Itoa(g.faker.Number(0, 7)),
			"_HOSTNAME":            g.hostname(),
			"_PID":                 strconv.Itoa(g.faker.Number(100, 65535)),
			"_UID":                 "0",
			"_GID":                 "0",
			"_COMM":                comm,
			"_EXE":                 "/usr/sbin/" + comm,
			"_BOOT_ID":             g.hex(32),
			"_MACHINE_ID":          g.hex(32),
			"_TRANSPORT":           "journal",
			"_SYSTEMD_UNIT":        unit,
			"_SYSTEMD_SLICE":       "system.slice",
			"SYSLOG_IDENTIFIER":    comm,
			"SYSLOG_FACILITY":      strconv.Itoa(g.faker.Number(0, 23)),
			"__REALTIME_TIMESTAMP": strconv.FormatInt(at.UnixMicro(), 10),
		},
	}
}

func (g *Generator) k8sJournal(at time.Time) record.Envelope {
	kube := g.kubernetes()
	pod := kube["pod_name"].(string)
	ns := kube["namespace_name"].(string)
	container := kube["container_name"].(string)
	return record.Envelope{
		Tag:        "kubernetes.journal.container." + ns,
		ReceivedAt: at,
		Record: record.Record{
			"MESSAGE":                    g.faker.Sentence(8),
			"PRIORITY":                   strconv.Itoa(g.faker.Number(3, 7)),
			"CONTAINER_NAME":             fmt.Sprintf("k8s_%s.%s_%s_%s_%s_0", container, g.hex(8), pod, ns, kube["pod_id"]),
			"CONTAINER_ID_FULL":          g.hex(64),
			"_HOSTNAME":                  kube["host"],
			"_TRANSPORT":                 "journal",
			"_SOURCE_REALTIME_TIMESTAMP": strconv.FormatInt(at.UnixMicro(), 10),
			"kubernetes":                 kube,
			"docker":                     map[string]any{"container_id": g.hex(64)},
		},
	}
}

func (g *Generator) syslog(at time.Time) record.Envelope {
	ident := strings.TrimSuffix(g.faker.RandomString(units), ".service")
	return record.Envelope{
		Tag:        "system.var.log.messages",
		ReceivedAt: at,
		Record: record.Record{
			"host":    g.hostname(),
			"ident":   ident,
			"pid":     strconv.Itoa(g.faker.Number(100, 65535)),
			"message": g.faker.HackerPhrase(),
			"time":    at.Format(time.Stamp),
		},
	}
}

func (g *Generator) container(at time.Time) record.Envelope {
	kube := g.kubernetes()
	return record.Envelope{
		Tag: fmt.Sprintf("kubernetes.var.log.containers.%s_%s_%s-%s.log",
			kube["pod_name"], kube["namespace_name"], kube["container_name"], g.hex(64)),
		ReceivedAt: at,
		Record: record.Record{
			"log":        g.faker.Sentence(10) + "\n",
			"stream":     g.faker.RandomString(streams),
			"time":       at.Format(time.RFC3339Nano),
			"kubernetes": kube,
			"docker":     map[string]any{"container_id": g.hex(64)},
		},
	}
}

func (g *Generator) kubernetes() map[string]any {
	app := g.faker.AppName()
	name := strings.ToLower(strings.ReplaceAll(app, " ", "-"))
	return map[string]any{
		"namespace_name": g.faker.RandomString(namespaces),
		"namespace_id":   g.faker.UUID(),
		"pod_name":       fmt.Sprintf("%s-%s-%s", name, g.hex(10), strings.ToLower(g.faker.LetterN(5))),
		"pod_id":         g.faker.UUID(),
		"container_name": name,
		"host":           "node-" + strconv.Itoa(g.faker.Number(1, 9)) + ".cluster.local",
		"labels":         map[string]any{"app": name},
	}
}

func (g *Generator) hostname() string {
	return "host-" + strings.ToLower(g.faker.LetterN(6))
}

func (g *Generator) hex(n int) string {
	const digits = "0123456789abcdef"
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[g.faker.Number(0, 15)]
	}
	return string(b)
}
