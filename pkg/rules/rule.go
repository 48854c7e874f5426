// Package rules holds the rule document model shared by the evaluator, the
// validator and the rule group manager.
//
// A rule is persisted as an opaque JSON document and parsed at evaluation
// time:
//
//	{"operator":0,"firstVal":[0,0],"customVal":{"ruleTypeId":1,"value":"1700000000"},"action":4,"section":0}
//
// firstVal and lastVal are [application, property] pairs. customVal is a
// literal tagged with its RuleType. operator is absent on the first rule of
// the first section.
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"

	"curator-hq/curator/pkg/rules/types"
)

// Definition is one parsed rule.
type Definition struct {
	Operator  *types.Operator    `json:"operator"`
	FirstVal  types.PropertyRef  `json:"firstVal"`
	LastVal   *types.PropertyRef `json:"lastVal,omitempty"`
	CustomVal *CustomValue       `json:"customVal,omitempty"`
	Action    types.Possibility  `json:"action"`
	Section   int                `json:"section"`
}

// CustomValue is a literal second operand.
type CustomValue struct {
	RuleTypeID types.RuleType `json:"ruleTypeId"`
	Value      string         `json:"value"`
}

// UnmarshalJSON accepts the literal value as either a string or a number.
func (c *CustomValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		RuleTypeID types.RuleType  `json:"ruleTypeId"`
		Value      json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.RuleTypeID = raw.RuleTypeID
	c.Value = ""
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		c.Value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Value, &n); err != nil {
		return fmt.Errorf("customVal.value: expected string or number, got %s", raw.Value)
	}
	c.Value = n.String()
	return nil
}

// IsFirst reports whether the rule opens a section without joining a
// previous one.
func (d Definition) IsFirst() bool {
	return d.Operator == nil
}

// OperatorOr returns the rule's operator, or def if it has none.
func (d Definition) OperatorOr(def types.Operator) types.Operator {
	if d.Operator == nil {
		return def
	}
	return *d.Operator
}

// ParseError reports a rule document that could not be decoded.
type ParseError struct {
	RuleID int64
	Doc    string
	Cause  error
}

// Error returns the error message.
func (e *ParseError) Error() string {
	if e.RuleID != 0 {
		return fmt.Sprintf("rule %d: invalid rule document: %v", e.RuleID, e.Cause)
	}
	return fmt.Sprintf("invalid rule document: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parse decodes a rule document.
func Parse(doc string) (Definition, error) {
	var d Definition
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return Definition{}, &ParseError{Doc: doc, Cause: err}
	}
	return d, nil
}

// ParseStored decodes a persisted rule, tagging any error with its id.
func ParseStored(id int64, doc string) (Definition, error) {
	d, err := Parse(doc)
	if err != nil {
		err.(*ParseError).RuleID = id
	}
	return d, err
}

// Marshal encodes a rule into its persisted document form.
func Marshal(d Definition) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encoding rule: %w", err)
	}
	return string(b), nil
}

// Op returns a pointer to o, for building definitions in code.
func Op(o types.Operator) *types.Operator {
	return &o
}

// Ref returns a pointer to a property reference.
func Ref(app types.ApplicationID, prop int) *types.PropertyRef {
	return &types.PropertyRef{App: app, Prop: prop}
}

// Literal builds a custom value of the given type.
func Literal(t types.RuleType, value string) *CustomValue {
	return &CustomValue{RuleTypeID: t, Value: value}
}

// DateLiteral builds a DATE custom value from epoch seconds.
func DateLiteral(epochSeconds int64) *CustomValue {
	return Literal(types.RuleTypeDate, strconv.FormatInt(epochSeconds, 10))
}
