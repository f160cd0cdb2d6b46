package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harriteja/reqguard/pkg/validation/core"
)

func TestIsPresent(t *testing.T) {
	assert.False(t, IsPresent(nil, false))
	assert.False(t, IsPresent(nil, true))
	assert.False(t, IsPresent("", true))
	assert.False(t, IsPresent("x", false))

	assert.True(t, IsPresent(0, true))
	assert.True(t, IsPresent(false, true))
	assert.True(t, IsPresent([]any{}, true))
	assert.True(t, IsPresent(map[string]any{}, true))
	assert.True(t, IsPresent(" ", true))
}

func TestMatchesType(t *testing.T) {
	tests := []struct {
		name  string
		value any
		tag   core.TypeTag
		want  bool
	}{
		{"string", "x", core.TypeString, true},
		{"number not string", 1, core.TypeString, false},
		{"int", 1, core.TypeNumber, true},
		{"float", 1.5, core.TypeNumber, true},
		{"uint8", uint8(3), core.TypeNumber, true},
		{"numeral text", "1", core.TypeNumber, false},
		{"bool", true, core.TypeBoolean, true},
		{"bool text", "true", core.TypeBoolean, false},
		{"generic slice", []any{1}, core.TypeArray, true},
		{"typed slice", []string{"a"}, core.TypeArray, true},
		{"map not array", map[string]any{}, core.TypeArray, false},
		{"map", map[string]any{}, core.TypeObject, true},
		{"typed map", map[string]string{}, core.TypeObject, true},
		{"slice not object", []any{}, core.TypeObject, false},
		{"nil not object", nil, core.TypeObject, false},
		{"email", "john.doe@example.com", core.TypeEmail, true},
		{"email without dot", "john@localhost", core.TypeEmail, false},
		{"email with space", "jo hn@example.com", core.TypeEmail, false},
		{"url", "https://example.com", core.TypeURL, true},
		{"mailto url", "mailto:john@example.com", core.TypeURL, true},
		{"relative url", "/path", core.TypeURL, false},
		{"custom regex matches anything", 42, core.TypeCustomRegex, true},
		{"custom function matches anything", nil, core.TypeCustomFunction, true},
		{"unknown tag", "x", core.TypeTag("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesType(tt.value, tt.tag))
		})
	}
}

func TestMatchesAnyType(t *testing.T) {
	assert.True(t, MatchesAnyType("30", core.Types(core.TypeNumber, core.TypeString)))
	assert.False(t, MatchesAnyType(true, core.Types(core.TypeNumber, core.TypeString)))
	assert.False(t, MatchesAnyType("x", nil))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "18", FormatNumber(18))
	assert.Equal(t, "0.5", FormatNumber(0.5))
	assert.Equal(t, "1000000", FormatNumber(1e6))
	assert.Equal(t, "Infinity", FormatNumber(math.Inf(1)))
}

func TestText(t *testing.T) {
	assert.Equal(t, "abc", Text("abc"))
	assert.Equal(t, "12", Text(12))
	assert.Equal(t, "1.5", Text(1.5))
	assert.Equal(t, "true", Text(true))
	assert.Equal(t, "null", Text(nil))
	assert.Equal(t, "a,,2", Text([]any{"a", nil, 2}))
}
