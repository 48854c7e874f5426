package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"curator-hq/curator/pkg/collections"
	"curator-hq/curator/pkg/config"
	"curator-hq/curator/pkg/rules/gitsource"
	"curator-hq/curator/pkg/rules/manager"
	"curator-hq/curator/pkg/rules/types"
	"curator-hq/curator/pkg/store"
)

const validRules = `
groups:
  - name: Old unwatched movies
    library: "1"
    kind: movie
    deleteAfterDays: 30
    rules:
      - firstVal: plex.addDate
        action: before
        customVal: {type: date, value: "2024-01-01"}
      - operator: and
        firstVal: plex.viewCount
        action: equals
        customVal: {type: number, value: "0"}
  - name: Ended shows
    library: "2"
    kind: show
    active: false
    rules:
      - firstVal: sonarr.ended
        action: equals
        customVal: {type: number, value: "1"}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateRuleFile(t *testing.T) {
	groups, err := validateRuleFile(writeFile(t, "rules.yaml", validRules))
	if err != nil {
		t.Fatalf("validateRuleFile() error: %v", err)
	}
	want := validatedGroups{
		{Name: "Old unwatched movies", Library: "1", Kind: "movie", Rules: 2, Active: true},
		{Name: "Ended shows", Library: "2", Kind: "show", Rules: 1, Active: false},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRuleFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown property",
			content: `
groups:
  - name: g
    library: "1"
    kind: movie
    rules:
      - firstVal: plex.nope
        action: equals
        customVal: {type: number, value: "0"}
`,
		},
		{
			name: "illegal comparison",
			content: `
groups:
  - name: g
    library: "1"
    kind: movie
    rules:
      - firstVal: plex.viewCount
        action: in_last
        customVal: {type: number, value: "0"}
`,
		},
		{
			name:    "unknown field",
			content: "groups:\n  - name: g\n    colour: red\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := validateRuleFile(writeFile(t, "rules.yaml", tt.content)); err == nil {
				t.Error("validateRuleFile() error = nil, want error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := validateRuleFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("validateRuleFile() error = nil, want error")
		}
	})
}

func TestListProperties(t *testing.T) {
	table := types.NewTable()

	all := listProperties(table, "")
	radarr := listProperties(table, "Radarr")
	if len(radarr) != 10 {
		t.Fatalf("len(radarr) = %d, want 10", len(radarr))
	}
	if len(all) <= len(radarr) {
		t.Errorf("len(all) = %d, want more than %d", len(all), len(radarr))
	}
	for _, row := range radarr {
		if !strings.HasPrefix(row.Reference, "radarr.") {
			t.Errorf("reference %q outside radarr", row.Reference)
		}
	}

	want := propertyRow{
		Reference:     "radarr.addDate",
		ID:            types.RadarrAddDate,
		Description:   "Date added",
		Type:          "DATE",
		Possibilities: []string{"BIGGER", "SMALLER", "EQUALS", "BEFORE", "AFTER", "IN_LAST", "IN_NEXT"},
	}
	if diff := cmp.Diff(want, radarr[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}

	if got := listProperties(table, "jellyfin"); len(got) != 0 {
		t.Errorf("unknown app returned %d rows", len(got))
	}
}

func TestOutcomeRows(t *testing.T) {
	outcomes := []collections.GroupOutcome{
		{Group: "a", Collection: "A", Matched: 3, Pages: 1, Sync: &collections.SyncReport{Added: 2, Removed: 1}},
		{Group: "b", Collection: "B", Err: os.ErrNotExist},
	}
	want := evaluationRows{
		{Group: "a", Collection: "A", Matched: 3, Pages: 1, Added: 2, Removed: 1},
		{Group: "b", Collection: "B", Error: os.ErrNotExist.Error()},
	}
	if diff := cmp.Diff(want, outcomeRows(outcomes)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestStepSummary(t *testing.T) {
	steps := []collections.StepResult{
		{Step: collections.StepStore, Outcome: "success"},
		{Step: collections.StepManager, Outcome: "error", Err: os.ErrPermission},
	}
	want := "store=success manager=error(permission denied)"
	if got := stepSummary(steps); got != want {
		t.Errorf("stepSummary() = %q, want %q", got, want)
	}
}

func TestParseCollectionID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "3", want: 3},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCollectionID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCollectionID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseCollectionID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	orig := output
	t.Cleanup(func() { output = orig })
	output = "json"

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })
	if err := versionCmd.RunE(versionCmd, nil); err != nil {
		t.Fatalf("version error: %v", err)
	}

	var got versionInfo
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, buf.String())
	}
	if got.Version != Version || got.GoVersion == "" {
		t.Errorf("version info = %+v", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"collection", "completion", "evaluate", "properties", "prune", "run", "validate", "version"}
	var got []string
	for _, c := range rootCmd.Commands() {
		if c.Name() == "help" {
			continue
		}
		got = append(got, c.Name())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSecrets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plex-token"), []byte("file-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Join(dir, "plex-token"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CURATOR_SECRET_RADARR_KEY", "env-key")

	cfg := config.Default()
	cfg.Secrets.Dir = dir
	cfg.Plex.APIKey = "${secret:plex-token}"
	cfg.Radarr.APIKey = "${secret:radarr-key}"
	cfg.Sonarr.APIKey = "literal"

	if err := resolveSecrets(context.Background(), cfg); err != nil {
		t.Fatalf("resolveSecrets() error: %v", err)
	}
	got := []string{cfg.Plex.APIKey, cfg.Radarr.APIKey, cfg.Sonarr.APIKey}
	if diff := cmp.Diff([]string{"file-token", "env-key", "literal"}, got); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	cfg.Overseerr.APIKey = "${secret:missing}"
	if err := resolveSecrets(context.Background(), cfg); err == nil {
		t.Error("unresolved reference accepted")
	}
}

type fakeRuleRepo struct {
	path    string
	changed bool
	syncs   int
}

func (r *fakeRuleRepo) Sync(context.Context) (*gitsource.SyncResult, error) {
	r.syncs++
	return &gitsource.SyncResult{FileChanged: r.changed}, nil
}

func (r *fakeRuleRepo) RulesPath() string { return r.path }

func TestSeedRules(t *testing.T) {
	tests := []struct {
		name    string
		changed bool
		force   bool
		want    int
	}{
		{name: "unchanged file is skipped", want: 0},
		{name: "changed file is seeded", changed: true, want: 2},
		{name: "forced reseed of unchanged file", force: true, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRuleRepo{path: writeFile(t, "rules.yaml", validRules), changed: tt.changed}
			cfg := config.Default()
			a := &app{
				cfg:     cfg,
				logger:  slog.New(slog.DiscardHandler),
				manager: manager.New(store.NewMemoryStore(), nil),
				repo:    repo,
			}

			if err := a.seedRules(context.Background(), tt.force); err != nil {
				t.Fatalf("seedRules() error: %v", err)
			}
			if repo.syncs != 1 {
				t.Errorf("syncs = %d, want 1", repo.syncs)
			}
			groups, err := a.manager.Groups(context.Background(), false)
			if err != nil {
				t.Fatalf("Groups() error: %v", err)
			}
			if len(groups) != tt.want {
				t.Errorf("seeded %d groups, want %d", len(groups), tt.want)
			}
		})
	}
}
