package pulse_config

import (
	"time"

	"github.com/zbreeden/pulse/internal/obs"
)

// Hub describes where source broadcasts are fetched from. The template is
// expanded with (owner, repo) for any source that carries no explicit URL.
type Hub struct {
	Owner       string `mapstructure:"owner"`
	URLTemplate string `mapstructure:"url_template"`
}

type HTTP struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	FollowRedirects bool          `mapstructure:"follow_redirects"`
	VerifyTLS       bool          `mapstructure:"verify_tls"`
	MaxParallel     int           `mapstructure:"max_parallel"`
}

// Signals locates the registry seeds file and the directory the three
// output documents are written to.
type Signals struct {
	Dir      string `mapstructure:"dir"`
	Registry string `mapstructure:"registry"`
}

type Kafka struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Sweep struct {
	Tick        time.Duration `mapstructure:"tick"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig(app string) obs.LogConfig {
	return obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    app,
	}
}

type Config struct {
	Hub     Hub     `mapstructure:"hub"`
	HTTP    HTTP    `mapstructure:"http"`
	Signals Signals `mapstructure:"signals"`
	Kafka   Kafka   `mapstructure:"kafka"`
	Sweep   Sweep   `mapstructure:"sweep"`
	OTEL    OTEL    `mapstructure:"otel"`
	Log     Log     `mapstructure:"log"`
}
