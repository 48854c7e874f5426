// Package validator checks rule definitions before they are persisted.
// Problems are reported as a Result with a readable reason, never as an
// error, so rule editors can show them as they are.
package validator

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"curator-hq/curator/pkg/rules"
	"curator-hq/curator/pkg/rules/engine"
	"curator-hq/curator/pkg/rules/types"
)

// Result is the outcome of a validation.
type Result struct {
	Valid  bool   `json:"valid" yaml:"valid"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func ok() Result {
	return Result{Valid: true}
}

func fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Validator checks rules against the application table.
type Validator struct {
	table *types.Table
}

// New creates a validator. A nil table uses types.NewTable.
func New(table *types.Table) *Validator {
	if table == nil {
		table = types.NewTable()
	}
	return &Validator{table: table}
}

// ValidateDocument parses a stored rule document and validates it.
func (v *Validator) ValidateDocument(doc string) Result {
	d, err := rules.Parse(doc)
	if err != nil {
		return fail("%v", err)
	}
	return v.Validate(d)
}

// Validate checks a single rule.
func (v *Validator) Validate(d rules.Definition) Result {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Operator, validation.By(operatorRule)),
		validation.Field(&d.Action, validation.By(possibilityRule)),
		validation.Field(&d.Section, validation.Min(0)),
	)
	if err != nil {
		return fail("%v", err)
	}

	first, found := v.table.Property(d.FirstVal)
	if !found {
		return fail("firstVal %s is not a known property", d.FirstVal)
	}

	switch {
	case d.LastVal == nil && d.CustomVal == nil:
		return fail("one of lastVal or customVal is required")
	case d.LastVal != nil && d.CustomVal != nil:
		return fail("lastVal and customVal are mutually exclusive")
	}

	var secondType types.RuleType
	if d.LastVal != nil {
		second, found := v.table.Property(*d.LastVal)
		if !found {
			return fail("lastVal %s is not a known property", *d.LastVal)
		}
		secondType = second.Type
	} else {
		secondType = d.CustomVal.RuleTypeID
		if !secondType.Valid() {
			return fail("customVal has unknown rule type %d", int(secondType))
		}
		if _, err := engine.Coerce(*d.CustomVal); err != nil {
			return fail("customVal: %v", err)
		}
	}

	if !types.Compatible(first.Type, secondType) {
		return fail("%s is %s and cannot be compared with a %s value",
			v.table.Name(d.FirstVal), first.Type, secondType)
	}
	if !types.Allows(first.Type, d.Action) {
		return fail("%s is not allowed for %s values; allowed: %v",
			d.Action, first.Type, types.Possibilities(first.Type))
	}
	return ok()
}

// ValidateGroup checks the rules of a group in order, including how they are
// joined. The first rule has no operator; every later rule has one and
// section numbers never decrease.
func (v *Validator) ValidateGroup(defs []rules.Definition) Result {
	if len(defs) == 0 {
		return fail("a rule group needs at least one rule")
	}
	for i, d := range defs {
		if res := v.Validate(d); !res.Valid {
			return fail("rule %d: %s", i+1, res.Reason)
		}
		if i == 0 {
			if d.Operator != nil {
				return fail("rule 1: the first rule cannot have an operator")
			}
			continue
		}
		if d.Operator == nil {
			return fail("rule %d: operator is required after the first rule", i+1)
		}
		if d.Section < defs[i-1].Section {
			return fail("rule %d: section %d comes after section %d", i+1, d.Section, defs[i-1].Section)
		}
	}
	return ok()
}

func operatorRule(value any) error {
	op, isPtr := value.(*types.Operator)
	if !isPtr || op == nil {
		return nil
	}
	if !op.Valid() {
		return errors.New("must be AND or OR")
	}
	return nil
}

func possibilityRule(value any) error {
	p, isPossibility := value.(types.Possibility)
	if !isPossibility || !p.Valid() {
		return errors.New("must be a known possibility")
	}
	return nil
}
