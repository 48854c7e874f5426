package types

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPossibilities(t *testing.T) {
	tests := []struct {
		ruleType RuleType
		want     []Possibility
	}{
		{RuleTypeNumber, []Possibility{Bigger, Smaller, Equals}},
		{RuleTypeDate, []Possibility{Bigger, Smaller, Equals, Before, After, InLast, InNext}},
		{RuleTypeText, []Possibility{Equals, Contains}},
		{RuleTypeUser, []Possibility{Equals}},
		{RuleTypeNumberGroup, []Possibility{Contains}},
		{RuleTypeDateGroup, []Possibility{Contains}},
		{RuleTypeTextGroup, []Possibility{Contains}},
		{RuleTypeUserGroup, []Possibility{Contains}},
	}

	for _, tt := range tests {
		t.Run(tt.ruleType.String(), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Possibilities(tt.ruleType)); diff != "" {
				t.Errorf("Possibilities() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPossibilities_ReturnsCopy(t *testing.T) {
	p := Possibilities(RuleTypeNumber)
	p[0] = InNext

	if got := Possibilities(RuleTypeNumber)[0]; got != Bigger {
		t.Errorf("table mutated through returned slice: got %v", got)
	}
}

func TestAllows(t *testing.T) {
	tests := []struct {
		name     string
		ruleType RuleType
		p        Possibility
		want     bool
	}{
		{"text in_last", RuleTypeText, InLast, false},
		{"text contains", RuleTypeText, Contains, true},
		{"date before", RuleTypeDate, Before, true},
		{"number contains", RuleTypeNumber, Contains, false},
		{"user equals", RuleTypeUser, Equals, true},
		{"user group equals", RuleTypeUserGroup, Equals, false},
		{"unknown type", RuleType(42), Equals, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allows(tt.ruleType, tt.p); got != tt.want {
				t.Errorf("Allows(%v, %v) = %v, want %v", tt.ruleType, tt.p, got, tt.want)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		a, b RuleType
		want bool
	}{
		{RuleTypeNumber, RuleTypeNumber, true},
		{RuleTypeDate, RuleTypeDateGroup, true},
		{RuleTypeTextGroup, RuleTypeText, true},
		{RuleTypeUserGroup, RuleTypeText, true},
		{RuleTypeUser, RuleTypeTextGroup, true},
		{RuleTypeNumber, RuleTypeDate, false},
		{RuleTypeText, RuleTypeNumber, false},
		{RuleTypeDate, RuleType(-1), false},
	}

	for _, tt := range tests {
		if got := Compatible(tt.a, tt.b); got != tt.want {
			t.Errorf("Compatible(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRuleType_Base(t *testing.T) {
	tests := map[RuleType]RuleType{
		RuleTypeNumberGroup: RuleTypeNumber,
		RuleTypeDateGroup:   RuleTypeDate,
		RuleTypeTextGroup:   RuleTypeText,
		RuleTypeUserGroup:   RuleTypeUser,
		RuleTypeDate:        RuleTypeDate,
	}
	for in, want := range tests {
		if got := in.Base(); got != want {
			t.Errorf("%v.Base() = %v, want %v", in, got, want)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if got, err := ParsePossibility("in_last"); err != nil || got != InLast {
		t.Errorf("ParsePossibility(in_last) = %v, %v", got, err)
	}
	if got, err := ParsePossibility("3"); err != nil || got != Contains {
		t.Errorf("ParsePossibility(3) = %v, %v", got, err)
	}
	if _, err := ParsePossibility("8"); err == nil {
		t.Error("ParsePossibility(8) expected error")
	}
	if got, err := ParseRuleType("TEXT_GROUP"); err != nil || got != RuleTypeTextGroup {
		t.Errorf("ParseRuleType(TEXT_GROUP) = %v, %v", got, err)
	}
	if _, err := ParseOperator("XOR"); err == nil {
		t.Error("ParseOperator(XOR) expected error")
	}
}

func TestEnumJSON(t *testing.T) {
	type doc struct {
		Operator *Operator   `json:"operator"`
		Action   Possibility `json:"action"`
		Type     RuleType    `json:"type"`
	}

	inputs := []string{
		`{"operator":0,"action":6,"type":1}`,
		`{"operator":"0","action":"6","type":"1"}`,
		`{"operator":"AND","action":"IN_LAST","type":"date"}`,
	}
	for _, in := range inputs {
		var d doc
		if err := json.Unmarshal([]byte(in), &d); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", in, err)
		}
		if d.Operator == nil || *d.Operator != And || d.Action != InLast || d.Type != RuleTypeDate {
			t.Errorf("Unmarshal(%s) = %+v", in, d)
		}
	}

	out, err := json.Marshal(doc{Action: Contains, Type: RuleTypeTextGroup})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if want := `{"operator":null,"action":3,"type":6}`; string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}
