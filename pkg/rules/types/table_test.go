package types

import "testing"

func TestTable_Lookup(t *testing.T) {
	table := NewTable()

	tests := []struct {
		name   string
		want   PropertyRef
		wantOK bool
	}{
		{"plex.addDate", PropertyRef{App: Plex, Prop: PlexAddDate}, true},
		{"PLEX.SEENBY", PropertyRef{App: Plex, Prop: PlexSeenBy}, true},
		{"radarr.tags", PropertyRef{App: Radarr, Prop: RadarrTags}, true},
		{"sonarr.ended", PropertyRef{App: Sonarr, Prop: SonarrEnded}, true},
		{"overseerr.addUser", PropertyRef{App: Overseerr, Prop: OverseerrRequestedBy}, true},
		{"plex.unknown", PropertyRef{}, false},
		{"addDate", PropertyRef{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Lookup(tt.name)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Lookup(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTable_PropertiesAreUniqueAndTyped(t *testing.T) {
	table := NewTable()

	for _, app := range table.Applications() {
		seen := make(map[int]bool)
		for _, prop := range app.Properties {
			if seen[prop.ID] {
				t.Errorf("%s: duplicate property id %d", app.Name, prop.ID)
			}
			seen[prop.ID] = true

			if !prop.Type.Valid() {
				t.Errorf("%s.%s: invalid type %v", app.Name, prop.Name, prop.Type)
			}
			if len(Possibilities(prop.Type)) == 0 {
				t.Errorf("%s.%s: no possibilities", app.Name, prop.Name)
			}

			ref := PropertyRef{App: app.ID, Prop: prop.ID}
			if got, ok := table.Property(ref); !ok || got.Name != prop.Name {
				t.Errorf("Property(%v) = %v, %v", ref, got, ok)
			}
		}
	}
}

func TestTable_ApplicationsIsCopy(t *testing.T) {
	table := NewTable()

	apps := table.Applications()
	apps[0].Properties[0].Name = "mutated"

	prop, _ := table.Property(PropertyRef{App: Plex, Prop: PlexAddDate})
	if prop.Name != "addDate" {
		t.Errorf("table mutated through Applications(): %q", prop.Name)
	}
	if got := table.Applications()[0].Properties[0].Name; got != "addDate" {
		t.Errorf("Applications() shares backing array: %q", got)
	}
}

func TestTable_Name(t *testing.T) {
	table := NewTable()

	if got := table.Name(PropertyRef{App: Radarr, Prop: RadarrProfile}); got != "radarr.profile" {
		t.Errorf("Name() = %q", got)
	}
	if got := table.Name(PropertyRef{App: Overseerr, Prop: 99}); got != "overseerr.99" {
		t.Errorf("Name() for unknown = %q", got)
	}
}
