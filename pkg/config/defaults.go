package config

import "time"

// Default values for configuration fields.
const (
	// Client defaults
	DefaultClientTimeout      = 30 * time.Second
	DefaultClientMaxRetries   = 2
	DefaultClientRetryBackoff = time.Second

	// Rules defaults
	DefaultRulesSchedule    = "0 */8 * * *"
	DefaultRulesPageSize    = 50
	DefaultRulesConcurrency = 1
	DefaultRulesCacheTTL    = 10 * time.Minute
	DefaultGitBranch        = "main"
	DefaultGitLocalPath     = "data/rules-repo"
	DefaultGitDepth         = 1
	DefaultGitTimeout       = 30 * time.Second
	DefaultGitAuthType      = "none"

	// Collections defaults
	DefaultCollectionsSchedule = "0 */12 * * *"

	// Storage defaults
	DefaultStorageDriver       = "sqlite"
	DefaultStoragePath         = "data/curator.db"
	DefaultStorageMaxOpenConns = 1
	DefaultStorageWALMode      = true
	DefaultStorageBusyTimeout  = 5 * time.Second

	// Secrets defaults
	DefaultSecretsEnvPrefix = "CURATOR_SECRET_"

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultLogRedactSecrets = true
	DefaultMetricsEnabled   = false
	DefaultMetricsListen    = "127.0.0.1:9464"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "curator"
	DefaultTracingService   = "curator"
	DefaultTracingSampler   = "always"
	DefaultTracingRatio     = 1.0
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingTimeout   = 10 * time.Second
)

// Default returns a configuration with every default applied. YAML is
// decoded on top of it, so booleans keep their default unless set.
func Default() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			WALMode: DefaultStorageWALMode,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				RedactSecrets: DefaultLogRedactSecrets,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	for _, c := range []*ClientConfig{&cfg.Plex, &cfg.Radarr, &cfg.Sonarr, &cfg.Overseerr} {
		applyClientDefaults(c)
	}

	if cfg.Rules.Schedule == "" {
		cfg.Rules.Schedule = DefaultRulesSchedule
	}
	if cfg.Rules.PageSize == 0 {
		cfg.Rules.PageSize = DefaultRulesPageSize
	}
	if cfg.Rules.Concurrency == 0 {
		cfg.Rules.Concurrency = DefaultRulesConcurrency
	}
	if cfg.Rules.CacheTTL == 0 {
		cfg.Rules.CacheTTL = DefaultRulesCacheTTL
	}
	if g := &cfg.Rules.Git; g.Enabled() {
		if g.Branch == "" {
			g.Branch = DefaultGitBranch
		}
		if g.LocalPath == "" {
			g.LocalPath = DefaultGitLocalPath
		}
		if g.Depth == 0 {
			g.Depth = DefaultGitDepth
		}
		if g.Timeout == 0 {
			g.Timeout = DefaultGitTimeout
		}
		if g.Auth.Type == "" {
			g.Auth.Type = DefaultGitAuthType
		}
	}

	if cfg.Collections.Schedule == "" {
		cfg.Collections.Schedule = DefaultCollectionsSchedule
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListen
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	tr := &cfg.Telemetry.Tracing
	if tr.ServiceName == "" {
		tr.ServiceName = DefaultTracingService
	}
	if tr.Sampler == "" {
		tr.Sampler = DefaultTracingSampler
	}
	if tr.SampleRatio == 0 {
		tr.SampleRatio = DefaultTracingRatio
	}
	if tr.Endpoint == "" {
		tr.Endpoint = DefaultTracingEndpoint
	}
	if tr.Timeout == 0 {
		tr.Timeout = DefaultTracingTimeout
	}
}

func applyClientDefaults(c *ClientConfig) {
	if c.Timeout == 0 {
		c.Timeout = DefaultClientTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultClientMaxRetries
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = DefaultClientRetryBackoff
	}
}
