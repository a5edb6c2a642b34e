package config

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

func loadMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:   getEnvAsBool("METRICS_ENABLED", true),
		Path:      getEnv("METRICS_PATH", "/metrics"),
		Namespace: getEnv("METRICS_NAMESPACE", "tripmate"),
	}
}
