// Package setup turns the loaded service configuration into the inputs the
// pipeline and its sinks need.
package setup

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/telhawk-systems/cdm-normalizer/common/config"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/formatter"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/indexname"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/metadata"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/pipeline"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/storage"
)

// BuildPipelineConfig assembles a pipeline.Config from cfg. Validation of
// the rules themselves happens in pipeline.New.
func BuildPipelineConfig(cfg *config.Config) (pipeline.Config, error) {
	n := cfg.Normalizer

	loc, err := time.LoadLocation(n.SyslogTimezone)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("syslog_timezone %q: %w", n.SyslogTimezone, err)
	}

	pc := pipeline.Config{
		DefaultKeepFields: n.DefaultKeepFields,
		ExtraKeepFields:   n.ExtraKeepFields,
		KeepEmptyFields:   n.KeepEmptyFields,
		UseUndefined:      n.UseUndefined,
		UndefinedName:     n.UndefinedName,
		Timestamp: pipeline.TimestampPolicy{
			Source:          n.SrcTimeName,
			Dest:            n.DestTimeName,
			Rename:          n.RenameTime,
			RenameIfMissing: n.RenameTimeIfMissing,
		},
		Role:             n.PipelineType,
		Identity:         BuildIdentity(cfg.Identity),
		HostnameOverride: HostnameOverride(cfg.Identity),
		SyslogLocation:   loc,
		IndexNameField:   n.IndexNameField,
		Debug:            cfg.Debug.Enabled,
		DebugIgnoreTag:   cfg.Debug.IgnoreTag,
	}

	for _, f := range n.Formatters {
		pc.Formatters = append(pc.Formatters, formatter.RuleConfig{
			Type:       f.Type,
			Tag:        f.Tag,
			RemoveKeys: f.RemoveKeys,
		})
	}
	for _, r := range n.IndexNames {
		pc.IndexRules = append(pc.IndexRules, indexname.Rule{Tag: r.Tag, Expression: r.Expression})
	}
	return pc, nil
}

// HostnameOverride reads the node name from the hostname file, falling back
// to the configured environment variable.
func HostnameOverride(id config.IdentityConfig) string {
	if id.HostnameFile != "" {
		if data, err := os.ReadFile(id.HostnameFile); err == nil {
			if name := strings.TrimSpace(string(data)); name != "" {
				return name
			}
		}
	}
	if id.HostnameEnv != "" {
		return strings.TrimSpace(os.Getenv(id.HostnameEnv))
	}
	return ""
}

// BuildIdentity fills in interface addresses that were not configured.
func BuildIdentity(id config.IdentityConfig) metadata.Identity {
	out := metadata.Identity{
		IPv4:      id.IPAddr4,
		IPv6:      id.IPAddr6,
		InputName: id.InputName,
		Name:      id.Name,
		Version:   metadata.JoinVersion(id.AgentVersion, id.DataVersion),
	}
	if out.IPv4 == "" || out.IPv6 == "" {
		v4, v6 := interfaceAddrs()
		if out.IPv4 == "" {
			out.IPv4 = v4
		}
		if out.IPv6 == "" {
			out.IPv6 = v6
		}
	}
	return out
}

// interfaceAddrs returns the first non-loopback IPv4 and IPv6 addresses.
func interfaceAddrs() (v4, v6 string) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", ""
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() || ipnet.IP.IsLinkLocalUnicast() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			if v4 == "" {
				v4 = ip4.String()
			}
		} else if v6 == "" {
			v6 = ipnet.IP.String()
		}
	}
	return v4, v6
}

// ErrUnknownOutput is returned for an unsupported normalizer.output.
var ErrUnknownOutput = errors.New("unknown output")

// Output names accepted in normalizer.output.
const (
	OutputOpenSearch = "opensearch"
	OutputNATS       = "nats"
	OutputStdout     = "stdout"
)

// ValidateOutput checks normalizer.output.
func ValidateOutput(output string) error {
	switch output {
	case OutputOpenSearch, OutputNATS, OutputStdout:
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownOutput, output)
}

// OpenSearchConfig maps the opensearch section onto the sink's settings.
func OpenSearchConfig(cfg *config.Config) storage.OpenSearchConfig {
	oc := cfg.OpenSearch
	return storage.OpenSearchConfig{
		URL:           oc.URL,
		Username:      oc.Username,
		Password:      oc.Password,
		TLSSkipVerify: oc.TLSSkipVerify,
		DefaultIndex:  oc.DefaultIndex,
		IndexField:    cfg.Normalizer.IndexNameField,
		Workers:       oc.Workers,
		FlushBytes:    oc.FlushBytes,
		FlushInterval: oc.FlushInterval,
	}
}
