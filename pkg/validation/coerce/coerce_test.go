package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harriteja/reqguard/pkg/types"
	"github.com/harriteja/reqguard/pkg/validation"
	"github.com/harriteja/reqguard/pkg/validation/core"
)

func TestForField(t *testing.T) {
	assert.NotNil(t, ForField(types.FieldQuery))
	assert.NotNil(t, ForField(types.FieldParams))
	assert.Nil(t, ForField(types.FieldBody))
	assert.Nil(t, ForField(types.FieldHeaders))
	assert.Nil(t, ForField(types.FieldCookies))
}

func TestQuery(t *testing.T) {
	number := core.Rule{Key: "page", Type: core.Types(core.TypeNumber)}
	array := core.Rule{Key: "tags", Type: core.Types(core.TypeArray)}
	mixed := core.Rule{Key: "page", Type: core.Types(core.TypeNumber, core.TypeString)}

	tests := []struct {
		name    string
		rule    core.Rule
		value   any
		want    any
		wantMsg string
	}{
		{"numeral", number, "42", 42.0, ""},
		{"padded numeral", number, " 2.5 ", 2.5, ""},
		{"not numeric", number, "abc", nil, "page should be a valid number"},
		{"nan rejected", number, "NaN", nil, "page should be a valid number"},
		{"already number", number, 3, 3, ""},
		{"scalar wrapped", array, "go", []any{"go"}, ""},
		{"sequence kept", array, []any{"a", "b"}, []any{"a", "b"}, ""},
		{"multi type untouched", mixed, "42", "42", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := Query(tt.rule, tt.value)
			assert.Equal(t, tt.wantMsg, msg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParams(t *testing.T) {
	number := core.Rule{Key: "id", Type: core.Types(core.TypeNumber)}
	array := core.Rule{Key: "ids", Type: core.Types(core.TypeArray)}

	got, msg := Params(number, "7")
	assert.Empty(t, msg)
	assert.Equal(t, 7.0, got)

	_, msg = Params(number, "seven")
	assert.Equal(t, "id should be a valid number", msg)

	got, msg = Params(array, "1,2,3")
	assert.Empty(t, msg)
	assert.Equal(t, []any{"1", "2", "3"}, got)

	got, _ = Params(array, "solo")
	assert.Equal(t, []any{"solo"}, got)
}

func TestCoercionThroughEngine(t *testing.T) {
	rules := core.RuleSet{
		{Key: "page", Type: core.Types(core.TypeNumber), Required: true, Min: core.Fixed(1)},
		{Key: "tags", Type: core.Types(core.TypeArray), Max: core.Fixed(2)},
	}

	outcome := validation.Validate(rules, map[string]any{"page": "3", "tags": "go"},
		validation.WithCoercer(ForField(types.FieldQuery)))
	require.True(t, outcome.Accepted(), "unexpected errors: %v", outcome.Errors)
	assert.Equal(t, map[string]any{"page": 3.0, "tags": []any{"go"}}, outcome.Data)

	outcome = validation.Validate(rules, map[string]any{"page": "0"},
		validation.WithCoercer(ForField(types.FieldQuery)))
	assert.Equal(t, []string{"page type is number, it should be at least 1"}, outcome.Errors)

	outcome = validation.Validate(rules, map[string]any{"page": "x"},
		validation.WithCoercer(ForField(types.FieldQuery)))
	assert.Equal(t, []string{"page should be a valid number"}, outcome.Errors)
}
