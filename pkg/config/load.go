package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "CURATOR_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields missing from the file keep their defaults. The result is validated.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables from envFiles are loaded into the
// environment first without replacing variables that are already set; missing
// env files are ignored. An empty path skips the file and starts from the
// defaults.
//
// The loading sequence is:
// 1. Load .env files
// 2. Load YAML from file on top of the defaults
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	var (
		cfg = Default()
		err error
	)
	if path != "" {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, rerr)
		}
		if cfg, err = parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("env file %q: %w", f, err)
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// applyEnvOverrides applies CURATOR_SECTION_FIELD variables. A malformed
// value is an error rather than being silently ignored.
func applyEnvOverrides(cfg *Config) error {
	o := &overrider{}

	o.client("PLEX", &cfg.Plex)
	o.client("RADARR", &cfg.Radarr)
	o.client("SONARR", &cfg.Sonarr)
	o.client("OVERSEERR", &cfg.Overseerr)

	o.stringVar("RULES_SCHEDULE", &cfg.Rules.Schedule)
	o.intVar("RULES_PAGE_SIZE", &cfg.Rules.PageSize)
	o.intVar("RULES_CONCURRENCY", &cfg.Rules.Concurrency)
	o.durationVar("RULES_CACHE_TTL", &cfg.Rules.CacheTTL)
	o.stringVar("RULES_FILE", &cfg.Rules.File)
	o.stringVar("RULES_GIT_REPOSITORY", &cfg.Rules.Git.Repository)
	o.stringVar("RULES_GIT_BRANCH", &cfg.Rules.Git.Branch)
	o.stringVar("RULES_GIT_LOCAL_PATH", &cfg.Rules.Git.LocalPath)
	o.intVar("RULES_GIT_DEPTH", &cfg.Rules.Git.Depth)
	o.durationVar("RULES_GIT_TIMEOUT", &cfg.Rules.Git.Timeout)
	o.stringVar("RULES_GIT_AUTH_TYPE", &cfg.Rules.Git.Auth.Type)
	o.stringVar("RULES_GIT_AUTH_TOKEN", &cfg.Rules.Git.Auth.Token)
	o.stringVar("RULES_GIT_AUTH_SSH_KEY_PATH", &cfg.Rules.Git.Auth.SSHKeyPath)
	o.stringVar("RULES_GIT_AUTH_SSH_KEY_PASSPHRASE", &cfg.Rules.Git.Auth.SSHKeyPassphrase)

	o.stringVar("COLLECTIONS_SCHEDULE", &cfg.Collections.Schedule)

	o.stringVar("STORAGE_DRIVER", &cfg.Storage.Driver)
	o.stringVar("STORAGE_PATH", &cfg.Storage.Path)
	o.intVar("STORAGE_MAX_OPEN_CONNS", &cfg.Storage.MaxOpenConns)
	o.boolVar("STORAGE_WAL_MODE", &cfg.Storage.WALMode)
	o.durationVar("STORAGE_BUSY_TIMEOUT", &cfg.Storage.BusyTimeout)

	o.stringVar("SECRETS_DIR", &cfg.Secrets.Dir)
	o.stringVar("SECRETS_ENV_PREFIX", &cfg.Secrets.EnvPrefix)

	o.stringVar("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	o.stringVar("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	o.boolVar("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	o.boolVar("TELEMETRY_LOGGING_REDACT_SECRETS", &cfg.Telemetry.Logging.RedactSecrets)
	o.boolVar("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	o.stringVar("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	o.stringVar("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	o.stringVar("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	o.boolVar("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	o.stringVar("TELEMETRY_TRACING_SERVICE_NAME", &cfg.Telemetry.Tracing.ServiceName)
	o.stringVar("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	o.floatVar("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	o.stringVar("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	o.boolVar("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	o.durationVar("TELEMETRY_TRACING_TIMEOUT", &cfg.Telemetry.Tracing.Timeout)

	if len(o.errs) > 0 {
		return ValidationError{Errors: o.errs}
	}
	return nil
}

// overrider reads typed environment variables and collects parse errors.
type overrider struct {
	errs []FieldError
}

func (o *overrider) lookup(name string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (o *overrider) fail(name, val string, err error) {
	o.errs = append(o.errs, FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid value %q: %v", val, err),
	})
}

func (o *overrider) stringVar(name string, dst *string) {
	if val, ok := o.lookup(name); ok {
		*dst = val
	}
}

func (o *overrider) intVar(name string, dst *int) {
	val, ok := o.lookup(name)
	if !ok {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = i
}

func (o *overrider) boolVar(name string, dst *bool) {
	val, ok := o.lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = b
}

func (o *overrider) floatVar(name string, dst *float64) {
	val, ok := o.lookup(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = f
}

func (o *overrider) durationVar(name string, dst *time.Duration) {
	val, ok := o.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		o.fail(name, val, err)
		return
	}
	*dst = d
}

func (o *overrider) client(section string, c *ClientConfig) {
	o.stringVar(section+"_BASE_URL", &c.BaseURL)
	o.stringVar(section+"_API_KEY", &c.APIKey)
	o.durationVar(section+"_TIMEOUT", &c.Timeout)
	o.intVar(section+"_MAX_RETRIES", &c.MaxRetries)
	o.durationVar(section+"_RETRY_BACKOFF", &c.RetryBackoff)
}
