package types

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseField(t *testing.T) {
	for _, f := range Fields {
		got, err := ParseField(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseField(" Headers ")
	require.NoError(t, err)
	assert.Equal(t, FieldHeaders, got)

	_, err = ParseField("form")
	assert.EqualError(t, err, "unknown request field: form")
	_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack)
}

func TestError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := WrapError(400, "Request body could not be parsed", cause)

	assert.Equal(t, "Request body could not be parsed: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, &Rejection{Status: 400, Message: []string{"Request body could not be parsed"}}, err.Rejection())
}

func TestNewRejection(t *testing.T) {
	assert.Equal(t, []string{}, NewRejection(400).Message)
	assert.Equal(t, []string{"a", "b"}, NewRejection(400, "a", "b").Message)
}
