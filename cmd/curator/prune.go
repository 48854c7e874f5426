package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator-hq/curator/pkg/cli"
	"curator-hq/curator/pkg/collections"
)

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired items from collections",
	Long: `Remove every tracked item whose retention window has passed, like one
run of the collection job. Each item is untracked, then removed from Radarr or
Sonarr, Overseerr and the Plex server.

Examples:
  # List what would be removed
  curator prune --dry-run

  # Remove expired items
  curator prune`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "list expired items without removing them")
}

type pruneRow struct {
	Collection string `json:"collection" yaml:"collection"`
	Item       string `json:"item" yaml:"item"`
	Added      string `json:"added" yaml:"added"`
	Expired    string `json:"expired,omitempty" yaml:"expired,omitempty"`
	Steps      string `json:"steps,omitempty" yaml:"steps,omitempty"`
}

type pruneRows []pruneRow

func (r pruneRows) Headers() []string {
	return []string{"COLLECTION", "ITEM", "ADDED", "EXPIRED", "STEPS"}
}

func (r pruneRows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, row := range r {
		out = append(out, []string{row.Collection, row.Item, row.Added, row.Expired, row.Steps})
	}
	return out
}

func expiredRows(expired []collections.Expired) pruneRows {
	rows := make(pruneRows, 0, len(expired))
	for _, e := range expired {
		rows = append(rows, pruneRow{
			Collection: e.Collection.Title,
			Item:       e.Media.MediaServerID,
			Added:      humanize.Time(e.Media.AddDate),
			Expired:    humanize.Time(e.Deadline),
		})
	}
	return rows
}

// stepSummary renders step outcomes as "store=success manager=error(...)".
func stepSummary(steps []collections.StepResult) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.Err != nil {
			parts = append(parts, fmt.Sprintf("%s=%s(%v)", s.Step, s.Outcome, s.Err))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", s.Step, s.Outcome))
	}
	return strings.Join(parts, " ")
}

func reportRows(report *collections.Report) pruneRows {
	rows := make(pruneRows, 0, len(report.Items))
	for _, item := range report.Items {
		rows = append(rows, pruneRow{
			Collection: item.Collection,
			Item:       item.MediaServerID,
			Added:      humanize.Time(item.AddDate),
			Steps:      stepSummary(item.Steps),
		})
	}
	return rows
}

func runPrune(cmd *cobra.Command, _ []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if pruneDryRun {
		expired, err := a.worker.Expired(ctx)
		if err != nil {
			return cli.NewCommandError("prune", err)
		}
		return f.FormatTo(cmd.OutOrStdout(), expiredRows(expired))
	}

	report, err := a.worker.Run(ctx)
	if err != nil {
		return cli.NewCommandError("prune", err)
	}
	if err := f.FormatTo(cmd.OutOrStdout(), reportRows(report)); err != nil {
		return err
	}
	failed := 0
	for _, item := range report.Items {
		if item.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return cli.NewCommandError("prune", fmt.Errorf("%d of %d items had failed steps", failed, len(report.Items)))
	}
	return nil
}
