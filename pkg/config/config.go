package config

import "time"

// Config is the root configuration structure.
type Config struct {
	// Plex is the library server. Its APIKey is the X-Plex-Token.
	Plex ClientConfig `yaml:"plex"`

	// Radarr is the movie manager.
	Radarr ClientConfig `yaml:"radarr"`

	// Sonarr is the show manager.
	Sonarr ClientConfig `yaml:"sonarr"`

	// Overseerr is the request tracker.
	Overseerr ClientConfig `yaml:"overseerr"`

	// Rules configures rule evaluation.
	Rules RulesConfig `yaml:"rules"`

	// Collections configures the collection maintenance worker.
	Collections CollectionsConfig `yaml:"collections"`

	// Storage configures persistence.
	Storage StorageConfig `yaml:"storage"`

	// Secrets configures how ${secret:name} references in credentials are
	// resolved.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ClientConfig configures access to one external application.
type ClientConfig struct {
	// BaseURL is the application root, e.g. "http://radarr:7878".
	// An empty BaseURL leaves the application unconfigured.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates requests.
	APIKey string `yaml:"api_key"`

	// Timeout is the per-request timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after a transport error or a 5xx
	// response.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoff is the delay before the first retry; it doubles on each
	// further attempt.
	// Default: 1s
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// Enabled reports whether the application is configured.
func (c ClientConfig) Enabled() bool {
	return c.BaseURL != ""
}

// RulesConfig configures rule evaluation.
type RulesConfig struct {
	// Schedule is the cron expression of the rule evaluation job.
	// Default: "0 */8 * * *"
	Schedule string `yaml:"schedule"`

	// PageSize is the number of library items fetched per request.
	// Default: 50
	PageSize int `yaml:"page_size"`

	// Concurrency bounds parallel value lookups within one rule.
	// Default: 1
	Concurrency int `yaml:"concurrency"`

	// CacheTTL bounds how long cross-reference lookups are reused within a
	// run.
	// Default: 10m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// File is an optional YAML file of rule groups saved at startup. With
	// Git configured it is a path inside the repository.
	File string `yaml:"file"`

	// Git pulls the rule file from a repository before each evaluation run.
	Git GitConfig `yaml:"git"`
}

// GitConfig configures a repository holding the rule file.
type GitConfig struct {
	// Repository is the clone URL. Empty disables the git source.
	Repository string `yaml:"repository"`

	// Branch is the branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// LocalPath is where the repository is cloned.
	// Default: "data/rules-repo"
	LocalPath string `yaml:"local_path"`

	// Depth limits clone history; 0 clones everything.
	// Default: 1
	Depth int `yaml:"depth"`

	// Timeout bounds each clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures repository credentials.
	Auth GitAuthConfig `yaml:"auth"`
}

// Enabled reports whether a repository is configured.
func (g GitConfig) Enabled() bool {
	return g.Repository != ""
}

// GitAuthConfig configures repository credentials.
type GitAuthConfig struct {
	// Type is "none", "token" or "ssh".
	// Default: "none"
	Type string `yaml:"type"`

	// Token is the access token for "token" auth.
	Token string `yaml:"token"`

	// SSHKeyPath is the private key for "ssh" auth.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase unlocks an encrypted private key.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// CollectionsConfig configures the collection maintenance worker.
type CollectionsConfig struct {
	// Schedule is the cron expression of the maintenance job.
	// Default: "0 */12 * * *"
	Schedule string `yaml:"schedule"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file.
	// Default: "data/curator.db"
	Path string `yaml:"path"`

	// MaxOpenConns limits open connections.
	// Default: 1
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a locked database is retried.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// SecretsConfig configures secret references. A credential such as
// api_key: ${secret:plex-token} is looked up in Dir first, then in the
// environment.
type SecretsConfig struct {
	// Dir holds one file per secret, named after the secret. Files must be
	// readable by the owner only. Empty disables file lookups.
	Dir string `yaml:"dir"`

	// EnvPrefix is prepended to the upper-cased secret name to form the
	// environment variable, e.g. CURATOR_SECRET_PLEX_TOKEN.
	// Default: "CURATOR_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line in records.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks API keys and tokens.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns on metric collection and the HTTP endpoint.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address of the metrics HTTP server.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "curator"
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing of scheduled jobs.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "curator"
	ServiceName string `yaml:"service_name"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
