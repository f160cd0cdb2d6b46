package validation

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harriteja/reqguard/pkg/validation/core"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	signup := core.RuleSet{
		{Key: "name", Type: core.Types(core.TypeString), Required: true, Min: core.PerType{core.TypeString: 3}},
	}
	require.NoError(t, r.Register("signup", signup))

	t.Run("duplicate", func(t *testing.T) {
		err := r.Register("signup", signup)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
		assertStackTrace(t, err)
	})

	t.Run("blank name", func(t *testing.T) {
		assert.Error(t, r.Register("  ", signup))
	})

	t.Run("stored copy is isolated", func(t *testing.T) {
		signup[0].Min.(core.PerType)[core.TypeString] = 100
		signup[0].Type[0] = core.TypeNumber

		got, ok := r.Get("signup")
		require.True(t, ok)
		assert.Equal(t, core.PerType{core.TypeString: 3}, got[0].Min)
		assert.Equal(t, core.TypeString, got[0].Type[0])
	})

	t.Run("validate by name", func(t *testing.T) {
		outcome, err := r.Validate("signup", map[string]any{"name": "John"})
		require.NoError(t, err)
		assert.True(t, outcome.Accepted())

		outcome, err = r.Validate("signup", map[string]any{"name": "Jo"})
		require.NoError(t, err)
		assert.Equal(t, []string{"name type is string, it should be at least 3 characters"}, outcome.Errors)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := r.Validate("missing", map[string]any{})
		assert.Error(t, err)
	})

	t.Run("names and remove", func(t *testing.T) {
		require.NoError(t, r.Register("login", core.RuleSet{}))
		assert.Equal(t, []string{"login", "signup"}, r.Names())

		require.NoError(t, r.Remove("login"))
		err := r.Remove("login")
		assert.EqualError(t, err, "rule set login not found")
		assertStackTrace(t, err)
		assert.Equal(t, []string{"signup"}, r.Names())
	})
}

func assertStackTrace(t *testing.T, err error) {
	t.Helper()
	_, ok := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, ok, "error should carry a stack trace")
}
