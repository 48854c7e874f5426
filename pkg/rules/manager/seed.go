package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/rules"
	"curator-hq/curator/pkg/rules/types"
	"curator-hq/curator/pkg/store"
)

// SeedFile is the YAML document listing rule groups.
//
//	groups:
//	  - name: Old unwatched movies
//	    library: "1"
//	    kind: movie
//	    deleteAfterDays: 30
//	    rules:
//	      - firstVal: plex.addDate
//	        action: before
//	        customVal: {type: date, value: "2024-01-01"}
//	      - operator: and
//	        firstVal: plex.viewCount
//	        action: equals
//	        customVal: {type: number, value: "0"}
type SeedFile struct {
	Groups []SeedGroup `yaml:"groups"`
}

// SeedGroup is one group of a seed file.
type SeedGroup struct {
	Name            string     `yaml:"name"`
	Description     string     `yaml:"description"`
	Library         string     `yaml:"library"`
	Kind            string     `yaml:"kind"`
	Active          *bool      `yaml:"active"`
	DeleteAfterDays int        `yaml:"deleteAfterDays"`
	ManagerAction   string     `yaml:"managerAction"`
	Rules           []SeedRule `yaml:"rules"`
}

// SeedRule is a rule written with property names instead of ids.
type SeedRule struct {
	Operator  string       `yaml:"operator"`
	Section   int          `yaml:"section"`
	FirstVal  string       `yaml:"firstVal"`
	LastVal   string       `yaml:"lastVal"`
	CustomVal *SeedLiteral `yaml:"customVal"`
	Action    string       `yaml:"action"`
}

// SeedLiteral is a custom value. DATE values may be epoch seconds or a
// YYYY-MM-DD date.
type SeedLiteral struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// ParseSeed decodes a seed document.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	return &f, nil
}

// Specs resolves property names and converts the groups of a seed file to
// group specs. It does not validate rule semantics.
func (m *Manager) Specs(f *SeedFile) ([]GroupSpec, error) {
	specs := make([]GroupSpec, 0, len(f.Groups))
	for _, g := range f.Groups {
		spec, err := m.spec(g)
		if err != nil {
			return nil, &ValidationError{Group: g.Name, Reason: err.Error()}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (m *Manager) spec(g SeedGroup) (GroupSpec, error) {
	spec := GroupSpec{
		Name:            g.Name,
		Description:     g.Description,
		LibraryID:       g.Library,
		Kind:            media.Kind(strings.ToLower(g.Kind)),
		Active:          g.Active == nil || *g.Active,
		DeleteAfterDays: g.DeleteAfterDays,
		ManagerAction:   store.ManagerAction(strings.ToLower(g.ManagerAction)),
	}
	for i, r := range g.Rules {
		d, err := m.definition(r)
		if err != nil {
			return GroupSpec{}, fmt.Errorf("rule %d: %w", i+1, err)
		}
		spec.Rules = append(spec.Rules, d)
	}
	return spec, nil
}

func (m *Manager) definition(r SeedRule) (rules.Definition, error) {
	d := rules.Definition{Section: r.Section}

	if r.Operator != "" {
		op, err := types.ParseOperator(r.Operator)
		if err != nil {
			return d, err
		}
		d.Operator = &op
	}

	action, err := types.ParsePossibility(r.Action)
	if err != nil {
		return d, err
	}
	d.Action = action

	ref, ok := m.table.Lookup(r.FirstVal)
	if !ok {
		return d, fmt.Errorf("unknown property %q", r.FirstVal)
	}
	d.FirstVal = ref

	if r.LastVal != "" {
		ref, ok := m.table.Lookup(r.LastVal)
		if !ok {
			return d, fmt.Errorf("unknown property %q", r.LastVal)
		}
		d.LastVal = &ref
	}

	if r.CustomVal != nil {
		t, err := types.ParseRuleType(r.CustomVal.Type)
		if err != nil {
			return d, err
		}
		value := r.CustomVal.Value
		if t == types.RuleTypeDate {
			if day, err := time.Parse(time.DateOnly, strings.TrimSpace(value)); err == nil {
				value = strconv.FormatInt(day.Unix(), 10)
			}
		}
		d.CustomVal = rules.Literal(t, value)
	}
	return d, nil
}

// SeedReport summarizes a seeding pass.
type SeedReport struct {
	Saved []string
}

// CheckSeed resolves and validates every group of f without saving
// anything. All group errors are returned joined.
func (m *Manager) CheckSeed(f *SeedFile) ([]GroupSpec, error) {
	specs, err := m.Specs(f)
	if err != nil {
		return nil, err
	}

	var errs []error
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			errs = append(errs, &ValidationError{Group: spec.Name, Reason: "duplicate group name"})
			continue
		}
		seen[spec.Name] = true
		if err := m.Check(spec); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return specs, nil
}

// Seed validates every group of f and then saves them. If any group is
// invalid nothing is saved.
func (m *Manager) Seed(ctx context.Context, f *SeedFile) (*SeedReport, error) {
	specs, err := m.CheckSeed(f)
	if err != nil {
		return nil, err
	}

	report := &SeedReport{}
	for _, spec := range specs {
		if _, err := m.SaveGroup(ctx, spec); err != nil {
			return report, err
		}
		report.Saved = append(report.Saved, spec.Name)
	}
	return report, nil
}

// SeedFromFile loads and applies a seed file.
func (m *Manager) SeedFromFile(ctx context.Context, path string) (*SeedReport, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer fh.Close()

	f, err := ParseSeed(fh)
	if err != nil {
		return nil, err
	}
	return m.Seed(ctx, f)
}
