package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"curator-hq/curator/pkg/rules/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Definition
	}{
		{
			name: "first rule with date literal",
			doc:  `{"operator":null,"firstVal":["0","0"],"customVal":{"ruleTypeId":1,"value":"1700000000"},"action":4,"section":0}`,
			want: Definition{
				FirstVal:  types.PropertyRef{App: types.Plex, Prop: types.PlexAddDate},
				CustomVal: &CustomValue{RuleTypeID: types.RuleTypeDate, Value: "1700000000"},
				Action:    types.Before,
			},
		},
		{
			name: "and rule with property operand",
			doc:  `{"operator":0,"firstVal":[1,0],"lastVal":[0,0],"action":"BIGGER","section":2}`,
			want: Definition{
				Operator: Op(types.And),
				FirstVal: types.PropertyRef{App: types.Radarr, Prop: types.RadarrAddDate},
				LastVal:  Ref(types.Plex, types.PlexAddDate),
				Action:   types.Bigger,
				Section:  2,
			},
		},
		{
			name: "numeric literal value",
			doc:  `{"operator":"OR","firstVal":[0,5],"customVal":{"ruleTypeId":"NUMBER","value":3},"action":1,"section":1}`,
			want: Definition{
				Operator:  Op(types.Or),
				FirstVal:  types.PropertyRef{App: types.Plex, Prop: types.PlexViewCount},
				CustomVal: &CustomValue{RuleTypeID: types.RuleTypeNumber, Value: "3"},
				Action:    types.Smaller,
				Section:   1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.doc)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	docs := []string{
		`not json`,
		`{"firstVal":[0],"action":0}`,
		`{"firstVal":[0,"x"],"action":0}`,
		`{"firstVal":[0,0],"action":"NOPE"}`,
	}
	for _, doc := range docs {
		_, err := ParseStored(7, doc)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("ParseStored(%s) error = %v, want *ParseError", doc, err)
			continue
		}
		if perr.RuleID != 7 {
			t.Errorf("ParseError.RuleID = %d, want 7", perr.RuleID)
		}
	}
}

func TestMarshal_RoundTripsThroughStoredForm(t *testing.T) {
	d := Definition{
		Operator:  Op(types.And),
		FirstVal:  types.PropertyRef{App: types.Sonarr, Prop: types.SonarrTags},
		CustomVal: Literal(types.RuleTypeText, "keep"),
		Action:    types.Contains,
		Section:   1,
	}

	doc, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"operator":0,"firstVal":[2,2],"customVal":{"ruleTypeId":2,"value":"keep"},"action":3,"section":1}`
	if doc != want {
		t.Errorf("Marshal() = %s\nwant %s", doc, want)
	}

	got, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
