package pulse_config

import (
	"strings"

	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("hub.owner", "zbreeden")
	v.SetDefault("hub.url_template", "https://raw.githubusercontent.com/%s/%s/main/signals/latest.json")

	v.SetDefault("http.timeout", "20s")
	v.SetDefault("http.user_agent", "pulse/1.0")
	v.SetDefault("http.follow_redirects", true)
	v.SetDefault("http.verify_tls", true)
	v.SetDefault("http.max_parallel", 4)

	v.SetDefault("signals.dir", "signals")
	v.SetDefault("signals.registry", "seeds/constellation.yml")

	v.SetDefault("kafka.enable", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "pulse.broadcasts.appended")

	v.SetDefault("sweep.tick", "24h")
	v.SetDefault("sweep.metrics_addr", ":8082")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "pulse")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
