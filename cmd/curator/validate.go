package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"curator-hq/curator/pkg/cli"
	"curator-hq/curator/pkg/rules/manager"
	"curator-hq/curator/pkg/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate <rules.yaml>",
	Short: "Validate a rule file without saving it",
	Long: `Parse a rule file and validate every group against the property table.
Nothing is saved and no application is contacted.

Examples:
  # Validate a rule file
  curator validate rules.yaml

  # Validate with JSON output
  curator validate rules.yaml -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type validatedGroup struct {
	Name    string `json:"name" yaml:"name"`
	Library string `json:"library" yaml:"library"`
	Kind    string `json:"kind" yaml:"kind"`
	Rules   int    `json:"rules" yaml:"rules"`
	Active  bool   `json:"active" yaml:"active"`
}

type validatedGroups []validatedGroup

func (v validatedGroups) Headers() []string {
	return []string{"GROUP", "LIBRARY", "KIND", "RULES", "ACTIVE"}
}

func (v validatedGroups) Rows() [][]string {
	out := make([][]string, 0, len(v))
	for _, g := range v {
		out = append(out, []string{g.Name, g.Library, g.Kind, strconv.Itoa(g.Rules), strconv.FormatBool(g.Active)})
	}
	return out
}

// validateRuleFile parses and checks the rule file at path.
func validateRuleFile(path string) (validatedGroups, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer fh.Close()

	f, err := manager.ParseSeed(fh)
	if err != nil {
		return nil, err
	}
	specs, err := manager.New(store.NewMemoryStore(), nil).CheckSeed(f)
	if err != nil {
		return nil, err
	}

	out := make(validatedGroups, 0, len(specs))
	for _, s := range specs {
		out = append(out, validatedGroup{
			Name:    s.Name,
			Library: s.LibraryID,
			Kind:    string(s.Kind),
			Rules:   len(s.Rules),
			Active:  s.Active,
		})
	}
	return out, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	groups, err := validateRuleFile(args[0])
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	return f.FormatTo(cmd.OutOrStdout(), groups)
}
