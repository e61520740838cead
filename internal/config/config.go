// Package config loads process configuration from an optional YAML file
// and LIFEBAND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lifeband/edgeai/internal/inference"
	"github.com/lifeband/edgeai/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. LIFEBAND_HTTP_ADDR.
const EnvPrefix = "LIFEBAND"

// Config is the whole process configuration. Each section maps to one YAML
// key and one LIFEBAND_<SECTION>_* environment group.
type Config struct {
	Inference InferenceConfig `mapstructure:"inference" yaml:"inference"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	MQTT      MQTTConfig      `mapstructure:"mqtt" yaml:"mqtt"`
	Monitor   MonitorConfig   `mapstructure:"monitor" yaml:"monitor"`
	Journal   JournalConfig   `mapstructure:"journal" yaml:"journal"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
}

// InferenceConfig selects the backend behind every detector.
type InferenceConfig struct {
	Engine          string `mapstructure:"engine" yaml:"engine"`                     // dense|none
	ModelDir        string `mapstructure:"model_dir" yaml:"model_dir"`               // holds <model>_risk_model.json
	SupportedSchema string `mapstructure:"supported_schema" yaml:"supported_schema"` // e.g. v1
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json|console
}

// HTTPConfig configures the serve command's listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// MQTTConfig configures the wearable sample subscription. Password is never
// written back out by config show.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker" yaml:"broker"` // ex: tcp://localhost:1883
	Topic    string `mapstructure:"topic" yaml:"topic"`
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	QoS      int    `mapstructure:"qos" yaml:"qos"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"-"`
}

// MonitorConfig drives the periodic assessment of the latest samples.
type MonitorConfig struct {
	Schedule   string        `mapstructure:"schedule" yaml:"schedule"`       // cron spec, ex: @every 1s
	Workers    int           `mapstructure:"workers" yaml:"workers"`         // concurrent device assessments
	StaleAfter time.Duration `mapstructure:"stale_after" yaml:"stale_after"` // skip samples older than this
}

// JournalConfig controls the SQLite detection journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"` // empty = default data dir
	Keep    int    `mapstructure:"keep" yaml:"keep"`           // rows kept by prune, 0 = unlimited
}

// TracingConfig enables OTLP span export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	inf := inference.DefaultConfig()
	return Config{
		Inference: InferenceConfig{
			Engine:          inf.Engine,
			ModelDir:        inf.ModelDir,
			SupportedSchema: inf.SupportedSchema,
		},
		Log:  LogConfig{Level: "info", Format: logging.FormatJSON},
		HTTP: HTTPConfig{Addr: ":8080"},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			Topic:    "lifeband/+/vitals",
			ClientID: "lifeband-edgeai",
			QoS:      1,
		},
		Monitor: MonitorConfig{
			Schedule:   "@every 1s",
			Workers:    4,
			StaleAfter: 10 * time.Second,
		},
		Journal: JournalConfig{Keep: 100000},
		Tracing: TracingConfig{
			ServiceName: "lifeband-edgeai",
			Endpoint:    "localhost:4317",
			SampleRatio: 1.0,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("inference.engine", d.Inference.Engine)
	v.SetDefault("inference.model_dir", d.Inference.ModelDir)
	v.SetDefault("inference.supported_schema", d.Inference.SupportedSchema)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.topic", d.MQTT.Topic)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("mqtt.qos", d.MQTT.QoS)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("monitor.schedule", d.Monitor.Schedule)
	v.SetDefault("monitor.workers", d.Monitor.Workers)
	v.SetDefault("monitor.stale_after", d.Monitor.StaleAfter)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("journal.keep", d.Journal.Keep)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.sample_ratio", d.Tracing.SampleRatio)
}

// Load reads path (if non-empty), applies LIFEBAND_* environment overrides
// and validates the result. Nested keys map to env vars with dots replaced
// by underscores: inference.model_dir -> LIFEBAND_INFERENCE_MODEL_DIR.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short alias kept for model deployment scripts.
	if err := v.BindEnv("inference.model_dir", "LIFEBAND_INFERENCE_MODEL_DIR", "LIFEBAND_MODEL_DIR"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Backend converts the inference section to the inference package's Config.
func (c Config) Backend() inference.Config {
	return inference.Config{
		Engine:          c.Inference.Engine,
		ModelDir:        c.Inference.ModelDir,
		SupportedSchema: c.Inference.SupportedSchema,
	}
}

// Validate checks every section and joins all problems found.
func (c Config) Validate() error {
	var errs []error
	if err := c.Backend().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("inference: %w", err))
	}
	switch c.Log.Format {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if _, err := cron.ParseStandard(c.Monitor.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("monitor: invalid schedule %q: %w", c.Monitor.Schedule, err))
	}
	if c.Monitor.Workers < 1 {
		errs = append(errs, fmt.Errorf("monitor: workers must be positive, got %d", c.Monitor.Workers))
	}
	if c.Journal.Keep < 0 {
		errs = append(errs, fmt.Errorf("journal: keep must be non-negative, got %d", c.Journal.Keep))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing: sample_ratio must be within [0,1], got %v", c.Tracing.SampleRatio))
	}
	return errors.Join(errs...)
}

// YAML renders the effective configuration. Secrets are omitted.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
