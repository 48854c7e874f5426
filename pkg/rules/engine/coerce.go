package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"curator-hq/curator/pkg/rules"
	"curator-hq/curator/pkg/rules/types"
)

// DATE literals are bounded to the years 0001 through 9999.
const (
	minDateSeconds = -62135596800
	maxDateSeconds = 253402300799
)

// Coerce converts a custom value into the representation used by resolvers.
// DATE literals are epoch seconds. Group literals are comma separated.
func Coerce(v rules.CustomValue) (any, error) {
	t := v.RuleTypeID
	if !t.IsGroup() {
		return coerceScalar(t, v.Value)
	}

	var parts []string
	if strings.TrimSpace(v.Value) != "" {
		parts = strings.Split(v.Value, ",")
	}
	switch t.Base() {
	case types.RuleTypeNumber:
		out := make([]float64, 0, len(parts))
		for _, p := range parts {
			n, err := coerceScalar(types.RuleTypeNumber, p)
			if err != nil {
				return nil, err
			}
			out = append(out, n.(float64))
		}
		return out, nil
	case types.RuleTypeDate:
		out := make([]time.Time, 0, len(parts))
		for _, p := range parts {
			d, err := coerceScalar(types.RuleTypeDate, p)
			if err != nil {
				return nil, err
			}
			out = append(out, d.(time.Time))
		}
		return out, nil
	default:
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out, nil
	}
}

func coerceScalar(t types.RuleType, raw string) (any, error) {
	switch t {
	case types.RuleTypeNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, &LiteralError{Value: raw, Type: t.String(), Cause: err}
		}
		return n, nil
	case types.RuleTypeDate:
		sec, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, &LiteralError{Value: raw, Type: t.String(), Cause: err}
		}
		if sec > maxDateSeconds || sec < minDateSeconds {
			return nil, &LiteralError{Value: raw, Type: t.String(), Cause: fmt.Errorf("epoch seconds %d out of range", sec)}
		}
		return time.UnixMilli(sec * 1000), nil
	default:
		return raw, nil
	}
}
