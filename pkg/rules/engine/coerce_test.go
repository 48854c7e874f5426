package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"curator-hq/curator/pkg/rules"
	"curator-hq/curator/pkg/rules/types"
)

// TestCoerce tests literal conversion for every rule type
func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		value   *rules.CustomValue
		want    any
		wantErr bool
	}{
		{
			name:  "date is epoch seconds",
			value: rules.DateLiteral(1700000000),
			want:  time.UnixMilli(1700000000 * 1000),
		},
		{
			name:  "number",
			value: rules.Literal(types.RuleTypeNumber, " 42.5 "),
			want:  42.5,
		},
		{
			name:  "text passes through",
			value: rules.Literal(types.RuleTypeText, " Drama "),
			want:  " Drama ",
		},
		{
			name:  "user passes through",
			value: rules.Literal(types.RuleTypeUser, "alice"),
			want:  "alice",
		},
		{
			name:  "text group",
			value: rules.Literal(types.RuleTypeTextGroup, "Drama, Comedy"),
			want:  []string{"Drama", "Comedy"},
		},
		{
			name:  "empty text group",
			value: rules.Literal(types.RuleTypeTextGroup, ""),
			want:  []string{},
		},
		{
			name:  "number group",
			value: rules.Literal(types.RuleTypeNumberGroup, "1,2"),
			want:  []float64{1, 2},
		},
		{
			name:  "date group",
			value: rules.Literal(types.RuleTypeDateGroup, "0,86400"),
			want:  []time.Time{time.UnixMilli(0), time.UnixMilli(86400000)},
		},
		{
			name:    "bad number",
			value:   rules.Literal(types.RuleTypeNumber, "many"),
			wantErr: true,
		},
		{
			name:    "bad date",
			value:   rules.Literal(types.RuleTypeDate, "yesterday"),
			wantErr: true,
		},
		{
			name:    "date beyond year 9999",
			value:   rules.Literal(types.RuleTypeDate, "9300000000000000"),
			wantErr: true,
		},
		{
			name:    "date before year 1",
			value:   rules.Literal(types.RuleTypeDate, "-9300000000000000"),
			wantErr: true,
		},
		{
			name:    "date group element out of range",
			value:   rules.Literal(types.RuleTypeDateGroup, "0,9300000000000000"),
			wantErr: true,
		},
		{
			name:    "bad number group element",
			value:   rules.Literal(types.RuleTypeNumberGroup, "1,x"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(*tt.value)
			if tt.wantErr {
				var lerr *LiteralError
				if !errors.As(err, &lerr) {
					t.Fatalf("Coerce() error = %v, want *LiteralError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Coerce() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
