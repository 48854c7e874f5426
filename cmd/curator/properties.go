package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator-hq/curator/pkg/rules/types"
)

var propertiesApp string

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "List the properties rules can reference",
	Long: `List every application property with its value type and the
comparisons it allows. Rule files reference properties as "app.name".

Examples:
  # All properties
  curator properties

  # Only Radarr properties as YAML
  curator properties --app radarr -o yaml`,
	Args: cobra.NoArgs,
	RunE: runProperties,
}

func init() {
	rootCmd.AddCommand(propertiesCmd)

	propertiesCmd.Flags().StringVar(&propertiesApp, "app", "", "only list properties of this application")
}

type propertyRow struct {
	Reference     string   `json:"reference" yaml:"reference"`
	ID            int      `json:"id" yaml:"id"`
	Description   string   `json:"description" yaml:"description"`
	Type          string   `json:"type" yaml:"type"`
	Possibilities []string `json:"possibilities" yaml:"possibilities"`
}

type propertyRows []propertyRow

func (p propertyRows) Headers() []string {
	return []string{"PROPERTY", "ID", "DESCRIPTION", "TYPE", "POSSIBILITIES"}
}

func (p propertyRows) Rows() [][]string {
	out := make([][]string, 0, len(p))
	for _, r := range p {
		out = append(out, []string{r.Reference, strconv.Itoa(r.ID), r.Description, r.Type, strings.Join(r.Possibilities, ",")})
	}
	return out
}

// listProperties flattens the property table, optionally filtered by
// application name.
func listProperties(table *types.Table, app string) propertyRows {
	var out propertyRows
	for _, a := range table.Applications() {
		if app != "" && !strings.EqualFold(a.ID.String(), app) && !strings.EqualFold(a.Name, app) {
			continue
		}
		for _, p := range a.Properties {
			possibilities := types.Possibilities(p.Type)
			names := make([]string, 0, len(possibilities))
			for _, pos := range possibilities {
				names = append(names, pos.String())
			}
			out = append(out, propertyRow{
				Reference:     table.Name(types.PropertyRef{App: a.ID, Prop: p.ID}),
				ID:            p.ID,
				Description:   p.HumanName,
				Type:          p.Type.String(),
				Possibilities: names,
			})
		}
	}
	return out
}

func runProperties(cmd *cobra.Command, _ []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	return f.FormatTo(cmd.OutOrStdout(), listProperties(types.NewTable(), propertiesApp))
}
