package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RuleType is the data kind of a property or literal.
type RuleType int

const (
	RuleTypeNumber RuleType = iota
	RuleTypeDate
	RuleTypeText
	RuleTypeUser
	RuleTypeNumberGroup
	RuleTypeDateGroup
	RuleTypeTextGroup
	RuleTypeUserGroup
)

var ruleTypeNames = [...]string{
	RuleTypeNumber:      "NUMBER",
	RuleTypeDate:        "DATE",
	RuleTypeText:        "TEXT",
	RuleTypeUser:        "USER",
	RuleTypeNumberGroup: "NUMBER_GROUP",
	RuleTypeDateGroup:   "DATE_GROUP",
	RuleTypeTextGroup:   "TEXT_GROUP",
	RuleTypeUserGroup:   "USER_GROUP",
}

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	return t >= RuleTypeNumber && t <= RuleTypeUserGroup
}

// String returns the rule type name.
func (t RuleType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("RuleType(%d)", int(t))
	}
	return ruleTypeNames[t]
}

// IsGroup reports whether values of this type are lists.
func (t RuleType) IsGroup() bool {
	return t >= RuleTypeNumberGroup && t <= RuleTypeUserGroup
}

// Base returns the scalar variant of a group type; scalar types return themselves.
func (t RuleType) Base() RuleType {
	if t.IsGroup() {
		return t - RuleTypeNumberGroup
	}
	return t
}

// Compatible reports whether values of type a can be compared against values
// of type b. Scalars and their list variants are compatible with each other,
// and USER values compare as text.
func Compatible(a, b RuleType) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	return textual(a.Base()) == textual(b.Base())
}

func textual(t RuleType) RuleType {
	if t == RuleTypeUser {
		return RuleTypeText
	}
	return t
}

// Possibility is a comparison operator.
type Possibility int

const (
	Bigger Possibility = iota
	Smaller
	Equals
	Contains
	Before
	After
	InLast
	InNext
)

var possibilityNames = [...]string{
	Bigger:   "BIGGER",
	Smaller:  "SMALLER",
	Equals:   "EQUALS",
	Contains: "CONTAINS",
	Before:   "BEFORE",
	After:    "AFTER",
	InLast:   "IN_LAST",
	InNext:   "IN_NEXT",
}

// Valid reports whether p is a known possibility.
func (p Possibility) Valid() bool {
	return p >= Bigger && p <= InNext
}

// String returns the possibility name.
func (p Possibility) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Possibility(%d)", int(p))
	}
	return possibilityNames[p]
}

// Operator joins a rule to the rules before it.
type Operator int

const (
	And Operator = iota
	Or
)

var operatorNames = [...]string{
	And: "AND",
	Or:  "OR",
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	return o == And || o == Or
}

// String returns the operator name.
func (o Operator) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorNames[o]
}

// possibilities is the legality table. Order is significant: editors list
// operators in this order.
var possibilities = map[RuleType][]Possibility{
	RuleTypeNumber:      {Bigger, Smaller, Equals},
	RuleTypeDate:        {Bigger, Smaller, Equals, Before, After, InLast, InNext},
	RuleTypeText:        {Equals, Contains},
	RuleTypeUser:        {Equals},
	RuleTypeNumberGroup: {Contains},
	RuleTypeDateGroup:   {Contains},
	RuleTypeTextGroup:   {Contains},
	RuleTypeUserGroup:   {Contains},
}

// Possibilities returns the ordered operators legal for values of type t.
// The returned slice is a copy.
func Possibilities(t RuleType) []Possibility {
	p := possibilities[t]
	out := make([]Possibility, len(p))
	copy(out, p)
	return out
}

// Allows reports whether p is legal for values of type t.
func Allows(t RuleType, p Possibility) bool {
	for _, candidate := range possibilities[t] {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseRuleType parses a rule type by name (case-insensitive) or numeric id.
func ParseRuleType(s string) (RuleType, error) {
	v, err := parseEnum(s, ruleTypeNames[:])
	if err != nil {
		return 0, fmt.Errorf("invalid rule type %q", s)
	}
	return RuleType(v), nil
}

// ParsePossibility parses a possibility by name (case-insensitive) or numeric id.
func ParsePossibility(s string) (Possibility, error) {
	v, err := parseEnum(s, possibilityNames[:])
	if err != nil {
		return 0, fmt.Errorf("invalid possibility %q", s)
	}
	return Possibility(v), nil
}

// ParseOperator parses an operator by name (case-insensitive) or numeric id.
func ParseOperator(s string) (Operator, error) {
	v, err := parseEnum(s, operatorNames[:])
	if err != nil {
		return 0, fmt.Errorf("invalid operator %q", s)
	}
	return Operator(v), nil
}

func parseEnum(s string, names []string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(names) {
			return 0, fmt.Errorf("out of range")
		}
		return n, nil
	}
	for i, name := range names {
		if strings.EqualFold(name, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown name")
}

// Stored rule documents carry numeric ids. Names are accepted on input so
// hand-written documents stay readable.

// MarshalJSON encodes the rule type as its numeric id.
func (t RuleType) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(t))
}

// UnmarshalJSON accepts a numeric id, a quoted numeric id or a name.
func (t *RuleType) UnmarshalJSON(data []byte) error {
	s, err := enumToken(data)
	if err != nil {
		return err
	}
	v, err := ParseRuleType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalText accepts a name or numeric id.
func (t *RuleType) UnmarshalText(text []byte) error {
	v, err := ParseRuleType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalJSON encodes the possibility as its numeric id.
func (p Possibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}

// UnmarshalJSON accepts a numeric id, a quoted numeric id or a name.
func (p *Possibility) UnmarshalJSON(data []byte) error {
	s, err := enumToken(data)
	if err != nil {
		return err
	}
	v, err := ParsePossibility(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnmarshalText accepts a name or numeric id.
func (p *Possibility) UnmarshalText(text []byte) error {
	v, err := ParsePossibility(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalJSON encodes the operator as its numeric id.
func (o Operator) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(o))
}

// UnmarshalJSON accepts a numeric id, a quoted numeric id or a name.
func (o *Operator) UnmarshalJSON(data []byte) error {
	s, err := enumToken(data)
	if err != nil {
		return err
	}
	v, err := ParseOperator(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// UnmarshalText accepts a name or numeric id.
func (o *Operator) UnmarshalText(text []byte) error {
	v, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func enumToken(data []byte) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("expected number or string, got %s", data)
	}
	return strconv.Itoa(n), nil
}
