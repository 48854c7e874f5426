package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"curator-hq/curator/pkg/cli"
	"curator-hq/curator/pkg/clients"
	"curator-hq/curator/pkg/clients/overseerr"
	"curator-hq/curator/pkg/clients/plex"
	"curator-hq/curator/pkg/clients/servarr"
	"curator-hq/curator/pkg/collections"
	"curator-hq/curator/pkg/config"
	"curator-hq/curator/pkg/rules/engine"
	"curator-hq/curator/pkg/rules/gitsource"
	"curator-hq/curator/pkg/rules/manager"
	"curator-hq/curator/pkg/rules/sources"
	"curator-hq/curator/pkg/rules/types"
	"curator-hq/curator/pkg/secrets"
	"curator-hq/curator/pkg/store"
	"curator-hq/curator/pkg/telemetry/logging"
	"curator-hq/curator/pkg/telemetry/metrics"
	"curator-hq/curator/pkg/telemetry/tracing"
)

// app holds every component built from the configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	store    *store.SQLiteStore
	registry *prometheus.Registry
	metrics  *metrics.Collector
	tracer   *tracing.Tracer

	plex      *plex.Client
	radarr    *servarr.Radarr
	sonarr    *servarr.Sonarr
	overseerr *overseerr.Client

	table        *types.Table
	sources      *sources.Dispatcher
	manager      *manager.Manager
	materializer *collections.Materializer
	handler      *collections.RuleHandler
	worker       *collections.Worker
	repo         ruleRepository
}

// ruleRepository is the git checkout holding the rule file.
type ruleRepository interface {
	Sync(ctx context.Context) (*gitsource.SyncResult, error)
	RulesPath() string
}

// loadConfig reads the configuration selected by the global flags.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
		path = ""
	}
	cfg, err := config.LoadConfigWithEnvOverrides(path, envFiles...)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := resolveSecrets(context.Background(), cfg); err != nil {
		return nil, cli.NewConfigError("secrets", err.Error())
	}
	return cfg, nil
}

// resolveSecrets replaces ${secret:name} references in credentials.
func resolveSecrets(ctx context.Context, cfg *config.Config) error {
	providers := []secrets.Provider{}
	if cfg.Secrets.Dir != "" {
		files, err := secrets.NewFileProvider(cfg.Secrets.Dir)
		if err != nil {
			return err
		}
		providers = append(providers, files)
	}
	providers = append(providers, secrets.NewEnvProvider(cfg.Secrets.EnvPrefix))

	return secrets.NewResolver(providers...).ResolveAll(ctx,
		&cfg.Plex.APIKey,
		&cfg.Radarr.APIKey,
		&cfg.Sonarr.APIKey,
		&cfg.Overseerr.APIKey,
		&cfg.Rules.Git.Auth.Token,
		&cfg.Rules.Git.Auth.SSHKeyPassphrase,
	)
}

// newLogger builds the process logger and makes it the default.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

func clientConfig(name string, c config.ClientConfig, observer clients.Observer) clients.Config {
	return clients.Config{
		Name:         name,
		BaseURL:      c.BaseURL,
		APIKey:       c.APIKey,
		Timeout:      c.Timeout,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		Observer:     observer,
	}
}

// newApp wires the components. Call close when done.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		table:    types.NewTable(),
	}
	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, a.registry)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}
	a.tracer = tracer

	if dir := filepath.Dir(cfg.Storage.Path); dir != "" && cfg.Storage.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}
	st, err := store.NewSQLiteStore(&store.SQLiteConfig{
		Driver:       cfg.Storage.Driver,
		Path:         cfg.Storage.Path,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
		WALMode:      cfg.Storage.WALMode,
		BusyTimeout:  cfg.Storage.BusyTimeout,
	})
	if err != nil {
		_ = a.tracer.Shutdown(context.Background())
		return nil, err
	}
	a.store = st

	ttl := cfg.Rules.CacheTTL
	resolvers := map[types.ApplicationID]sources.Resolver{}
	deps := collections.WorkerDeps{}

	a.plex = plex.New(clientConfig("plex", cfg.Plex, a.metrics))
	resolvers[types.Plex] = sources.NewPlexResolver(a.plex, ttl)
	deps.Plex = a.plex

	if cfg.Radarr.Enabled() {
		a.radarr = servarr.NewRadarr(clientConfig("radarr", cfg.Radarr, a.metrics))
		resolvers[types.Radarr] = sources.NewRadarrResolver(a.radarr, ttl)
		deps.Radarr = a.radarr
	}
	if cfg.Sonarr.Enabled() {
		a.sonarr = servarr.NewSonarr(clientConfig("sonarr", cfg.Sonarr, a.metrics))
		resolvers[types.Sonarr] = sources.NewSonarrResolver(a.sonarr, ttl)
		deps.Sonarr = a.sonarr
	}
	if cfg.Overseerr.Enabled() {
		a.overseerr = overseerr.New(clientConfig("overseerr", cfg.Overseerr, a.metrics))
		resolvers[types.Overseerr] = sources.NewOverseerrResolver(a.overseerr, ttl)
		deps.Overseerr = a.overseerr
	}
	a.sources = sources.NewDispatcher(resolvers)

	evaluator, err := engine.NewEvaluator(&engine.Config{
		PageSize:    cfg.Rules.PageSize,
		Concurrency: cfg.Rules.Concurrency,
	}, a.table, a.plex, a.sources)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating evaluator: %w", err)
	}

	a.manager = manager.New(a.store, a.table)
	a.materializer = collections.NewMaterializer(a.store, a.plex, a.metrics)
	a.handler = collections.NewRuleHandler(a.manager, a.store, evaluator, a.sources, a.materializer, a.metrics, a.tracer)
	a.worker = collections.NewWorker(a.store, a.materializer, deps, a.metrics, a.tracer)

	if cfg.Rules.Git.Enabled() {
		repo, err := gitsource.NewRepository(cfg.Rules.Git, cfg.Rules.File)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("creating rule repository: %w", err)
		}
		a.repo = repo
	}

	logger.Debug("components initialized",
		"radarr", cfg.Radarr.Enabled(),
		"sonarr", cfg.Sonarr.Enabled(),
		"overseerr", cfg.Overseerr.Enabled(),
		"rules_git", cfg.Rules.Git.Enabled(),
	)
	return a, nil
}

// seedRules saves the rule groups of the configured rule file. With a rule
// repository the file is pulled first and, unless force is set, only reseeded
// when it changed.
func (a *app) seedRules(ctx context.Context, force bool) error {
	path := a.cfg.Rules.File
	if a.repo != nil {
		res, err := a.repo.Sync(ctx)
		if err != nil {
			return fmt.Errorf("syncing rule repository: %w", err)
		}
		if !res.FileChanged && !force {
			return nil
		}
		path = a.repo.RulesPath()
	}
	if path == "" {
		return nil
	}
	report, err := a.manager.SeedFromFile(ctx, path)
	if err != nil {
		return fmt.Errorf("seeding rule groups from %s: %w", path, err)
	}
	a.logger.InfoContext(ctx, "rule groups seeded", "file", path, "groups", len(report.Saved))
	return nil
}

func (a *app) close() {
	if err := a.tracer.Shutdown(context.Background()); err != nil {
		a.logger.Warn("tracer shutdown failed", "error", err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing store failed", "error", err)
		}
	}
}

// setup loads the configuration and builds the app.
func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logger)
}
