package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator-hq/curator/pkg/cli"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Inspect and edit collections",
	Long: `Inspect collections and add or remove items by hand.

Manually added items are never dropped by rule evaluation but expire like any
other item. Removing an item only stops tracking it; the media is left alone.

Examples:
  # List collections
  curator collection list

  # List the items of collection 3
  curator collection items 3

  # Add Plex item 12345 to collection 3
  curator collection add 3 12345`,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionList,
}

var collectionItemsCmd = &cobra.Command{
	Use:   "items <collection-id>",
	Short: "List the items tracked in a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionItems,
}

var collectionAddCmd = &cobra.Command{
	Use:   "add <collection-id> <item-id>",
	Short: "Add a library item to a collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runCollectionAdd,
}

var collectionRemoveCmd = &cobra.Command{
	Use:   "remove <collection-id> <item-id>",
	Short: "Stop tracking an item in a collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runCollectionRemove,
}

func init() {
	rootCmd.AddCommand(collectionCmd)
	collectionCmd.AddCommand(collectionListCmd, collectionItemsCmd, collectionAddCmd, collectionRemoveCmd)
}

type collectionRow struct {
	ID              int64  `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	Library         string `json:"library" yaml:"library"`
	Kind            string `json:"kind" yaml:"kind"`
	Active          bool   `json:"active" yaml:"active"`
	DeleteAfterDays int    `json:"delete_after_days" yaml:"delete_after_days"`
	ManagerAction   string `json:"manager_action" yaml:"manager_action"`
	Items           int    `json:"items" yaml:"items"`
}

type collectionRows []collectionRow

func (c collectionRows) Headers() []string {
	return []string{"ID", "TITLE", "LIBRARY", "KIND", "ACTIVE", "DELETE AFTER", "ACTION", "ITEMS"}
}

func (c collectionRows) Rows() [][]string {
	out := make([][]string, 0, len(c))
	for _, r := range c {
		after := "never"
		if r.DeleteAfterDays > 0 {
			after = strconv.Itoa(r.DeleteAfterDays) + "d"
		}
		out = append(out, []string{
			strconv.FormatInt(r.ID, 10), r.Title, r.Library, r.Kind,
			strconv.FormatBool(r.Active), after, r.ManagerAction, strconv.Itoa(r.Items),
		})
	}
	return out
}

type itemRow struct {
	Item    string `json:"item" yaml:"item"`
	TmdbID  int    `json:"tmdb_id,omitempty" yaml:"tmdb_id,omitempty"`
	TvdbID  int    `json:"tvdb_id,omitempty" yaml:"tvdb_id,omitempty"`
	Added   string `json:"added" yaml:"added"`
	Expires string `json:"expires,omitempty" yaml:"expires,omitempty"`
	Manual  bool   `json:"manual" yaml:"manual"`
}

type itemRows []itemRow

func (r itemRows) Headers() []string {
	return []string{"ITEM", "TMDB", "TVDB", "ADDED", "EXPIRES", "MANUAL"}
}

func (r itemRows) Rows() [][]string {
	out := make([][]string, 0, len(r))
	for _, i := range r {
		out = append(out, []string{
			i.Item, strconv.Itoa(i.TmdbID), strconv.Itoa(i.TvdbID),
			i.Added, i.Expires, strconv.FormatBool(i.Manual),
		})
	}
	return out
}

func parseCollectionID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid collection id %q", s)
	}
	return id, nil
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	cols, err := a.store.ListCollections(ctx, false)
	if err != nil {
		return cli.NewCommandError("collection list", err)
	}
	rows := make(collectionRows, 0, len(cols))
	for _, c := range cols {
		items, err := a.store.ListCollectionMedia(ctx, c.ID)
		if err != nil {
			return cli.NewCommandError("collection list", err)
		}
		rows = append(rows, collectionRow{
			ID:              c.ID,
			Title:           c.Title,
			Library:         c.LibraryID,
			Kind:            string(c.Type),
			Active:          c.IsActive,
			DeleteAfterDays: c.DeleteAfterDays,
			ManagerAction:   string(c.ManagerAction),
			Items:           len(items),
		})
	}
	return f.FormatTo(cmd.OutOrStdout(), rows)
}

func runCollectionItems(cmd *cobra.Command, args []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	id, err := parseCollectionID(args[0])
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	col, err := a.store.GetCollection(ctx, id)
	if err != nil {
		return cli.NewCommandError("collection items", err)
	}
	items, err := a.store.ListCollectionMedia(ctx, id)
	if err != nil {
		return cli.NewCommandError("collection items", err)
	}
	rows := make(itemRows, 0, len(items))
	for _, m := range items {
		row := itemRow{
			Item:   m.MediaServerID,
			TmdbID: m.TmdbID,
			TvdbID: m.TvdbID,
			Added:  humanize.Time(m.AddDate),
			Manual: m.IsManual,
		}
		if col.DeleteAfterDays > 0 {
			row.Expires = humanize.Time(m.Deadline(col.DeleteAfterDays))
		}
		rows = append(rows, row)
	}
	return f.FormatTo(cmd.OutOrStdout(), rows)
}

func runCollectionAdd(cmd *cobra.Command, args []string) error {
	id, err := parseCollectionID(args[0])
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	item, err := a.plex.Metadata(ctx, args[1])
	if err != nil {
		return cli.NewCommandError("collection add", err)
	}
	_, created, err := a.materializer.AddManual(ctx, id, item)
	if err != nil {
		return cli.NewCommandError("collection add", err)
	}
	if !created {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is already in collection %d\n", item.Title, item.ID, id)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s) to collection %d\n", item.Title, item.ID, id)
	return nil
}

func runCollectionRemove(cmd *cobra.Command, args []string) error {
	id, err := parseCollectionID(args[0])
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.materializer.RemoveItem(cmd.Context(), id, args[1]); err != nil {
		return cli.NewCommandError("collection remove", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s from collection %d\n", args[1], id)
	return nil
}
