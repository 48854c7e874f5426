package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "rules.schedule").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateClient("plex", &cfg.Plex, true)...)
	errs = append(errs, validateClient("radarr", &cfg.Radarr, false)...)
	errs = append(errs, validateClient("sonarr", &cfg.Sonarr, false)...)
	errs = append(errs, validateClient("overseerr", &cfg.Overseerr, false)...)
	errs = append(errs, validateRules(&cfg.Rules)...)
	errs = append(errs, validateCollections(&cfg.Collections)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateClient(name string, c *ClientConfig, required bool) []FieldError {
	var errs []FieldError

	if c.BaseURL == "" {
		if required {
			errs = append(errs, FieldError{Field: name + ".base_url", Message: "is required"})
		}
		return errs
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{Field: name + ".base_url", Message: fmt.Sprintf("must be an absolute URL, got %q", c.BaseURL)})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{Field: name + ".base_url", Message: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)})
	}
	if c.APIKey == "" {
		errs = append(errs, FieldError{Field: name + ".api_key", Message: "is required when base_url is set"})
	}
	if c.Timeout < 0 {
		errs = append(errs, FieldError{Field: name + ".timeout", Message: "must not be negative"})
	}
	if c.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: name + ".max_retries", Message: "must not be negative"})
	}
	if c.RetryBackoff < 0 {
		errs = append(errs, FieldError{Field: name + ".retry_backoff", Message: "must not be negative"})
	}
	return errs
}

func validateSchedule(field, spec string) []FieldError {
	if _, err := cron.ParseStandard(spec); err != nil {
		return []FieldError{{Field: field, Message: fmt.Sprintf("invalid cron expression %q: %v", spec, err)}}
	}
	return nil
}

func validateRules(r *RulesConfig) []FieldError {
	errs := validateSchedule("rules.schedule", r.Schedule)
	if r.PageSize <= 0 {
		errs = append(errs, FieldError{Field: "rules.page_size", Message: "must be positive"})
	}
	if r.Concurrency < 1 {
		errs = append(errs, FieldError{Field: "rules.concurrency", Message: "must be at least 1"})
	}
	if r.CacheTTL < 0 {
		errs = append(errs, FieldError{Field: "rules.cache_ttl", Message: "must not be negative"})
	}
	if r.Git.Enabled() {
		errs = append(errs, validateGit(&r.Git)...)
		if r.File == "" {
			errs = append(errs, FieldError{Field: "rules.file", Message: "is required when rules.git.repository is set"})
		}
	}
	return errs
}

func validateGit(g *GitConfig) []FieldError {
	var errs []FieldError
	if g.Depth < 0 {
		errs = append(errs, FieldError{Field: "rules.git.depth", Message: "must not be negative"})
	}
	if g.Timeout < 0 {
		errs = append(errs, FieldError{Field: "rules.git.timeout", Message: "must not be negative"})
	}
	switch g.Auth.Type {
	case "none", "":
	case "token":
		if g.Auth.Token == "" {
			errs = append(errs, FieldError{Field: "rules.git.auth.token", Message: "is required for token auth"})
		}
	case "ssh":
		if g.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{Field: "rules.git.auth.ssh_key_path", Message: "is required for ssh auth"})
		}
	default:
		errs = append(errs, FieldError{Field: "rules.git.auth.type", Message: fmt.Sprintf("must be none, token or ssh, got %q", g.Auth.Type)})
	}
	return errs
}

func validateCollections(c *CollectionsConfig) []FieldError {
	return validateSchedule("collections.schedule", c.Schedule)
}

func validateStorage(s *StorageConfig) []FieldError {
	var errs []FieldError
	if s.Driver != "sqlite" && s.Driver != "sqlite3" {
		errs = append(errs, FieldError{Field: "storage.driver", Message: fmt.Sprintf("must be sqlite or sqlite3, got %q", s.Driver)})
	}
	if s.Path == "" {
		errs = append(errs, FieldError{Field: "storage.path", Message: "is required"})
	}
	if s.MaxOpenConns < 1 {
		errs = append(errs, FieldError{Field: "storage.max_open_conns", Message: "must be at least 1"})
	}
	if s.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "storage.busy_timeout", Message: "must not be negative"})
	}
	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("unknown level %q", t.Logging.Level)})
	}
	switch strings.ToLower(t.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("unknown format %q", t.Logging.Format)})
	}

	if t.Metrics.Enabled {
		if t.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{Field: "telemetry.metrics.listen_address", Message: "is required when metrics are enabled"})
		}
		if !strings.HasPrefix(t.Metrics.Path, "/") {
			errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
		}
	}

	if tr := t.Tracing; tr.Enabled {
		switch tr.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Message: fmt.Sprintf("must be always, never or ratio, got %q", tr.Sampler)})
		}
		if tr.SampleRatio < 0 || tr.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0.0 and 1.0"})
		}
		if tr.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "is required when tracing is enabled"})
		}
	}
	return errs
}
