package validation

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/harriteja/reqguard/pkg/validation/core"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsPresent reports whether a resolved value counts as supplied.
// Only absence, nil and the empty string are missing; zero, false and
// empty containers are present.
func IsPresent(value any, found bool) bool {
	if !found || value == nil {
		return false
	}
	if s, ok := value.(string); ok && s == "" {
		return false
	}
	return true
}

// MatchesAnyType reports whether value satisfies at least one of tags
func MatchesAnyType(value any, tags []core.TypeTag) bool {
	for _, tag := range tags {
		if matchesType(value, tag) {
			return true
		}
	}
	return false
}

func matchesType(value any, tag core.TypeTag) bool {
	switch tag {
	case core.TypeString:
		_, ok := value.(string)
		return ok
	case core.TypeNumber:
		_, ok := AsNumber(value)
		return ok
	case core.TypeBoolean:
		_, ok := value.(bool)
		return ok
	case core.TypeArray:
		return IsSequence(value)
	case core.TypeObject:
		return IsMapping(value)
	case core.TypeEmail:
		s, ok := value.(string)
		return ok && emailPattern.MatchString(s)
	case core.TypeURL:
		s, ok := value.(string)
		return ok && isAbsoluteURL(s)
	case core.TypeCustomRegex, core.TypeCustomFunction:
		return true
	default:
		// unknown tags are rejected before matching
		return false
	}
}

// AsNumber returns value as float64 when it is any Go numeric kind
func AsNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case nil, string, bool:
		return 0, false
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// IsSequence reports whether value is a slice or array
func IsSequence(value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.([]any); ok {
		return true
	}
	kind := reflect.TypeOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// IsMapping reports whether value is a keyed, non-sequence container
func IsMapping(value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.(map[string]any); ok {
		return true
	}
	t := reflect.TypeOf(value)
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String
}

func sequenceLen(value any) int {
	if s, ok := value.([]any); ok {
		return len(s)
	}
	return reflect.ValueOf(value).Len()
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

// FormatNumber renders n in its shortest form ("18", "0.5")
func FormatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Text renders value the way regex checks see it
func Text(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			if item == nil {
				continue
			}
			parts[i] = Text(item)
		}
		return strings.Join(parts, ",")
	}
	if n, ok := AsNumber(value); ok {
		return FormatNumber(n)
	}
	return fmt.Sprint(value)
}
