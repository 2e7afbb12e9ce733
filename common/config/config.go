// Package config provides configuration loading for the normalizer service
// and the cdmctl tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvConfigDir names the directory holding config.yaml.
const EnvConfigDir = "CDM_CONFIG_DIR"

// DefaultConfigDir is used when EnvConfigDir is unset.
const DefaultConfigDir = "/etc/cdm-normalizer"

// Config is the master configuration struct.
type Config struct {
	Normalizer NormalizerConfig `mapstructure:"normalizer" yaml:"normalizer"`
	Identity   IdentityConfig   `mapstructure:"identity" yaml:"identity"`
	Debug      DebugConfig      `mapstructure:"debug" yaml:"debug"`

	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	NATS       NATSConfig       `mapstructure:"nats" yaml:"nats"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch" yaml:"opensearch"`
	DLQ        DLQConfig        `mapstructure:"dlq" yaml:"dlq"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// NormalizerConfig holds the record transformation settings.
type NormalizerConfig struct {
	DefaultKeepFields   []string `mapstructure:"default_keep_fields" yaml:"default_keep_fields"`
	ExtraKeepFields     []string `mapstructure:"extra_keep_fields" yaml:"extra_keep_fields"`
	KeepEmptyFields     []string `mapstructure:"keep_empty_fields" yaml:"keep_empty_fields"`
	UseUndefined        bool     `mapstructure:"use_undefined" yaml:"use_undefined"`
	UndefinedName       string   `mapstructure:"undefined_name" yaml:"undefined_name"`
	RenameTime          bool     `mapstructure:"rename_time" yaml:"rename_time"`
	RenameTimeIfMissing bool     `mapstructure:"rename_time_if_missing" yaml:"rename_time_if_missing"`
	SrcTimeName         string   `mapstructure:"src_time_name" yaml:"src_time_name"`
	DestTimeName        string   `mapstructure:"dest_time_name" yaml:"dest_time_name"`
	PipelineType        string   `mapstructure:"pipeline_type" yaml:"pipeline_type"` // collector or normalizer
	SyslogTimezone      string   `mapstructure:"syslog_timezone" yaml:"syslog_timezone"`

	Formatters     []FormatterConfig `mapstructure:"formatters" yaml:"formatters"`
	IndexNameField string            `mapstructure:"index_name_field" yaml:"index_name_field"`
	IndexNames     []IndexNameConfig `mapstructure:"index_names" yaml:"index_names"`

	// Output selects the sink: "opensearch", "nats" or "stdout".
	Output string `mapstructure:"output" yaml:"output"`
}

// FormatterConfig is one ordered formatter rule.
type FormatterConfig struct {
	Type       string   `mapstructure:"type" yaml:"type"`
	Tag        string   `mapstructure:"tag" yaml:"tag"`
	RemoveKeys []string `mapstructure:"remove_keys" yaml:"remove_keys,omitempty"`
}

// IndexNameConfig is one ordered index name rule.
type IndexNameConfig struct {
	Tag        string `mapstructure:"tag" yaml:"tag"`
	Expression string `mapstructure:"expression" yaml:"expression"`
}

// IdentityConfig describes where this process runs. Values are stamped into
// pipeline_metadata.
type IdentityConfig struct {
	HostnameFile string `mapstructure:"hostname_file" yaml:"hostname_file"`
	HostnameEnv  string `mapstructure:"hostname_env" yaml:"hostname_env"`
	IPAddr4      string `mapstructure:"ipaddr4" yaml:"ipaddr4"`
	IPAddr6      string `mapstructure:"ipaddr6" yaml:"ipaddr6"`
	InputName    string `mapstructure:"inputname" yaml:"inputname"`
	Name         string `mapstructure:"name" yaml:"name"`
	AgentVersion string `mapstructure:"agent_version" yaml:"agent_version"`
	DataVersion  string `mapstructure:"data_version" yaml:"data_version"`
}

// DebugConfig toggles before/after record dumps.
type DebugConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	IgnoreTag string `mapstructure:"ignore_tag" yaml:"ignore_tag"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	// MaxBodyBytes caps POST /api/v1/normalize payloads.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// NATSConfig holds NATS message broker configuration
type NATSConfig struct {
	URL           string        `mapstructure:"url" yaml:"url"`
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxReconnects int           `mapstructure:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait" yaml:"reconnect_wait"`
	Subject       string        `mapstructure:"subject" yaml:"subject"`
	Queue         string        `mapstructure:"queue" yaml:"queue"`
	OutputSubject string        `mapstructure:"output_subject" yaml:"output_subject"`
}

// OpenSearchConfig holds OpenSearch connection and bulk indexing settings
type OpenSearchConfig struct {
	URL           string        `mapstructure:"url" yaml:"url"`
	Username      string        `mapstructure:"username" yaml:"username"`
	Password      string        `mapstructure:"password" yaml:"-"`
	TLSSkipVerify bool          `mapstructure:"tls_skip_verify" yaml:"tls_skip_verify"`
	DefaultIndex  string        `mapstructure:"default_index" yaml:"default_index"`
	Workers       int           `mapstructure:"workers" yaml:"workers"`
	FlushBytes    int           `mapstructure:"flush_bytes" yaml:"flush_bytes"`
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`
}

// DLQConfig holds dead letter queue configuration
type DLQConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads $CDM_CONFIG_DIR/config.yaml (default /etc/cdm-normalizer) and
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	configDir := os.Getenv(EnvConfigDir)
	if configDir == "" {
		configDir = DefaultConfigDir
	}
	return LoadFile(filepath.Join(configDir, "config.yaml"))
}

// LoadFile reads configuration from path and environment overrides. A
// missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variables override with no prefix: nats.url -> NATS_URL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("invalid built-in config defaults: %v", err))
	}
	return &cfg
}

// Render returns cfg as YAML. Secrets are omitted.
func Render(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	// Normalizer defaults
	v.SetDefault("normalizer.default_keep_fields", DefaultKeepFields)
	v.SetDefault("normalizer.extra_keep_fields", []string{})
	v.SetDefault("normalizer.keep_empty_fields", []string{"message"})
	v.SetDefault("normalizer.use_undefined", false)
	v.SetDefault("normalizer.undefined_name", "undefined")
	v.SetDefault("normalizer.rename_time", true)
	v.SetDefault("normalizer.rename_time_if_missing", false)
	v.SetDefault("normalizer.src_time_name", "time")
	v.SetDefault("normalizer.dest_time_name", "@timestamp")
	v.SetDefault("normalizer.pipeline_type", "collector")
	v.SetDefault("normalizer.syslog_timezone", "UTC")
	v.SetDefault("normalizer.formatters", defaultFormatters())
	v.SetDefault("normalizer.index_name_field", "viaq_index_name")
	v.SetDefault("normalizer.index_names", defaultIndexNames())
	v.SetDefault("normalizer.output", "opensearch")

	// Identity defaults
	v.SetDefault("identity.hostname_file", "/etc/docker-hostname")
	v.SetDefault("identity.hostname_env", "NODE_NAME")
	v.SetDefault("identity.inputname", "nats")
	v.SetDefault("identity.name", "cdm-normalizer")
	v.SetDefault("identity.data_version", "")

	// Debug defaults
	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.ignore_tag", "")

	// Server defaults
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 10<<20)

	// NATS defaults
	v.SetDefault("nats.url", "nats://nats:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.subject", "logs.records.raw")
	v.SetDefault("nats.queue", "normalizer-workers")
	v.SetDefault("nats.output_subject", "logs.records.normalized")

	// OpenSearch defaults
	v.SetDefault("opensearch.url", "https://localhost:9200")
	v.SetDefault("opensearch.username", "admin")
	v.SetDefault("opensearch.password", "admin")
	v.SetDefault("opensearch.tls_skip_verify", true)
	v.SetDefault("opensearch.default_index", "orphaned")
	v.SetDefault("opensearch.workers", 2)
	v.SetDefault("opensearch.flush_bytes", 5<<20)
	v.SetDefault("opensearch.flush_interval", "5s")

	// DLQ defaults
	v.SetDefault("dlq.enabled", true)
	v.SetDefault("dlq.base_path", "/var/lib/cdm-normalizer/dlq")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
