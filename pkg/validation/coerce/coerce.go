// Package coerce normalizes textual request fields before type matching.
//
// Query strings and route parameters always arrive as text, so a rule typed
// exactly [number] or [array] would otherwise never match them. Coercion only
// applies to those two single-type rules; every other rule sees the raw value.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

// ForField returns the coercion hook for field, or nil when field values are
// used as-is (body, headers, cookies).
func ForField(field types.Field) validation.Coercer {
	switch field {
	case types.FieldQuery:
		return Query
	case types.FieldParams:
		return Params
	default:
		return nil
	}
}

// Query parses numerals and wraps single values into a one-element sequence
func Query(rule core.Rule, value any) (any, string) {
	switch soleType(rule) {
	case core.TypeNumber:
		return toNumber(rule.Key, value)
	case core.TypeArray:
		if validation.IsSequence(value) {
			return value, ""
		}
		return []any{value}, ""
	}
	return value, ""
}

// Params parses numerals and splits comma separated text into a sequence
func Params(rule core.Rule, value any) (any, string) {
	switch soleType(rule) {
	case core.TypeNumber:
		return toNumber(rule.Key, value)
	case core.TypeArray:
		s, ok := value.(string)
		if !ok {
			return value, ""
		}
		parts := strings.Split(s, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, ""
	}
	return value, ""
}

func soleType(rule core.Rule) core.TypeTag {
	if len(rule.Type) != 1 {
		return ""
	}
	return rule.Type[0]
}

func toNumber(key string, value any) (any, string) {
	s, ok := value.(string)
	if !ok {
		return value, ""
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) {
		return nil, fmt.Sprintf("%s should be a valid number", key)
	}
	return n, ""
}
