package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"curator-hq/curator/pkg/cli"
	"curator-hq/curator/pkg/collections"
	"curator-hq/curator/pkg/config"
	"curator-hq/curator/pkg/telemetry/health"
)

var runFlags struct {
	runNow   bool
	noReload bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the rule and collection jobs on their schedules",
	Long: `Run curator in the foreground. The rule job evaluates every active rule
group and syncs its collection; the collection job removes expired items.

With metrics enabled, /metrics, /health, /ready and /version are served on
telemetry.metrics.listen_address. Changes to the configuration file
reschedule the jobs; SIGHUP reseeds the rule groups from rules.file.

Examples:
  # Start with default config
  curator run

  # Run both jobs once at startup, then follow the schedules
  curator run --now`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.runNow, "now", false, "run both jobs once at startup")
	runCmd.Flags().BoolVar(&runFlags.noReload, "no-reload", false, "do not watch the configuration file")
}

func runDaemon(*cobra.Command, []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if err := a.seedRules(ctx, true); err != nil {
		return cli.NewCommandError("run", err)
	}

	sched := collections.NewScheduler(a.logger, a.metrics, a.tracer)
	if err := sched.Register(collections.JobRules, a.cfg.Rules.Schedule, a.rulesJob); err != nil {
		return cli.NewConfigError("rules.schedule", err.Error())
	}
	if err := sched.Register(collections.JobCollections, a.cfg.Collections.Schedule, a.collectionsJob); err != nil {
		return cli.NewConfigError("collections.schedule", err.Error())
	}

	var srv *http.Server
	if a.cfg.Telemetry.Metrics.Enabled {
		srv = a.startHTTP()
	}

	if !runFlags.noReload && fileExists(cfgFile) {
		w, err := config.NewWatcher(cfgFile, 0, envFiles...)
		if err != nil {
			a.logger.Warn("configuration watcher disabled", "error", err)
		} else {
			defer w.Close()
			go func() {
				if err := w.Watch(ctx, func(cfg *config.Config) { a.applyReload(sched, cfg) }); err != nil {
					a.logger.Error("configuration watcher stopped", "error", err)
				}
			}()
		}
	}

	reload, stopReload := cli.ReloadSignals()
	defer stopReload()

	sched.Start(ctx)
	for _, job := range []string{collections.JobRules, collections.JobCollections} {
		if next, ok := sched.NextRun(job); ok {
			a.logger.Info("job scheduled", "job", job, "next_run", next)
		}
	}

	if runFlags.runNow {
		go func() {
			for _, job := range []string{collections.JobRules, collections.JobCollections} {
				if err := sched.Trigger(ctx, job); err != nil {
					a.logger.Error("startup run failed", "job", job, "error", err)
				}
			}
		}()
	}

	for done := false; !done; {
		select {
		case <-ctx.Done():
			done = true
		case <-reload:
			if err := a.seedRules(ctx, true); err != nil {
				a.logger.Error("reseeding rule groups failed", "error", err)
			}
		}
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		a.logger.Warn("jobs still running at shutdown")
	}
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("http server shutdown failed", "error", err)
		}
	}
	return nil
}

// rulesJob pulls or rereads the rule file when a repository is configured
// and evaluates every active rule group.
func (a *app) rulesJob(ctx context.Context) error {
	if a.repo != nil {
		if err := a.seedRules(ctx, false); err != nil {
			a.logger.ErrorContext(ctx, "rule repository sync failed, using stored groups", "error", err)
		}
	}
	_, err := a.handler.Run(ctx)
	return err
}

func (a *app) collectionsJob(ctx context.Context) error {
	_, err := a.worker.Run(ctx)
	return err
}

// applyReload reschedules the jobs from a reloaded configuration. Other
// settings need a restart.
func (a *app) applyReload(sched *collections.Scheduler, cfg *config.Config) {
	if err := sched.Reschedule(collections.JobRules, cfg.Rules.Schedule); err != nil {
		a.logger.Error("rescheduling rule job failed", "error", err)
	}
	if err := sched.Reschedule(collections.JobCollections, cfg.Collections.Schedule); err != nil {
		a.logger.Error("rescheduling collection job failed", "error", err)
	}
}

// startHTTP serves metrics and health endpoints in the background.
func (a *app) startHTTP() *http.Server {
	checker := health.New(0)
	checker.RegisterCheck("store", a.store.Ping)

	mux := http.NewServeMux()
	mux.Handle(a.cfg.Telemetry.Metrics.Path, a.metrics.Handler())
	health.Register(mux, checker, Version, GitCommit, BuildDate)

	srv := &http.Server{
		Addr:              a.cfg.Telemetry.Metrics.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		a.logger.Info("http server listening", "address", srv.Addr, "metrics_path", a.cfg.Telemetry.Metrics.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server failed", "error", fmt.Errorf("listening on %s: %w", srv.Addr, err))
		}
	}()
	return srv
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
