package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"curator-hq/curator/pkg/cli"
	"curator-hq/curator/pkg/collections"
	"curator-hq/curator/pkg/store"
)

var evaluateFlags struct {
	groups []string
	dryRun bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate rule groups once",
	Long: `Evaluate the active rule groups against their libraries and sync the
matching items into their collections, like one run of the rule job.

With --dry-run the collections are left alone and only the match counts are
reported.

Examples:
  # Evaluate every active rule group
  curator evaluate

  # Preview a single group
  curator evaluate --group "Unwatched movies" --dry-run -o json`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringSliceVarP(&evaluateFlags.groups, "group", "g", nil, "rule group to evaluate (repeatable, default all active)")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.dryRun, "dry-run", false, "report matches without changing collections")
}

type evaluationRow struct {
	Group      string `json:"group" yaml:"group"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	Matched    int    `json:"matched" yaml:"matched"`
	Pages      int    `json:"pages" yaml:"pages"`
	Added      int    `json:"added" yaml:"added"`
	Removed    int    `json:"removed" yaml:"removed"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

type evaluationRows []evaluationRow

func (r evaluationRows) Headers() []string {
	return []string{"GROUP", "COLLECTION", "MATCHED", "PAGES", "ADDED", "REMOVED", "ERROR"}
}

func (r evaluationRows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, row := range r {
		out = append(out, []string{
			row.Group,
			row.Collection,
			strconv.Itoa(row.Matched),
			strconv.Itoa(row.Pages),
			strconv.Itoa(row.Added),
			strconv.Itoa(row.Removed),
			row.Error,
		})
	}
	return out
}

func outcomeRows(outcomes []collections.GroupOutcome) evaluationRows {
	rows := make(evaluationRows, 0, len(outcomes))
	for _, o := range outcomes {
		row := evaluationRow{
			Group:      o.Group,
			Collection: o.Collection,
			Matched:    o.Matched,
			Pages:      o.Pages,
		}
		if o.Sync != nil {
			row.Added = o.Sync.Added
			row.Removed = o.Sync.Removed
		}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
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

	if err := a.seedRules(ctx, true); err != nil {
		return cli.NewCommandError("evaluate", err)
	}

	if !evaluateFlags.dryRun {
		outcomes, runErr := a.handler.Run(ctx, evaluateFlags.groups...)
		if err := f.FormatTo(cmd.OutOrStdout(), outcomeRows(outcomes)); err != nil {
			return err
		}
		if runErr != nil {
			return cli.NewCommandError("evaluate", runErr)
		}
		return nil
	}

	groups, err := a.manager.Groups(ctx, true)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}
	if len(evaluateFlags.groups) > 0 {
		groups = slices.DeleteFunc(groups, func(g store.RuleGroup) bool {
			return !slices.Contains(evaluateFlags.groups, g.Name)
		})
		if len(groups) == 0 {
			return cli.NewCommandError("evaluate", fmt.Errorf("no active rule group named %v", evaluateFlags.groups))
		}
	}

	rows := make(evaluationRows, 0, len(groups))
	failed := 0
	for _, g := range groups {
		row := evaluationRow{Group: g.Name}
		if col, err := a.store.GetCollection(ctx, g.CollectionID); err == nil {
			row.Collection = col.Title
		}
		result, err := a.handler.Evaluate(ctx, g)
		if err != nil {
			row.Error = err.Error()
			failed++
		} else {
			row.Matched = len(result.Items)
			row.Pages = result.Pages
		}
		rows = append(rows, row)
	}
	if err := f.FormatTo(cmd.OutOrStdout(), rows); err != nil {
		return err
	}
	if failed > 0 {
		return cli.NewCommandError("evaluate", fmt.Errorf("%d of %d rule groups failed", failed, len(groups)))
	}
	return nil
}
