package deviceaccess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	e, err := Parse("c 1:3 rw")
	require.NoError(t, err)
	assert.Equal(t, Character, e.Selector.Type)
	assert.EqualValues(t, 1, *e.Selector.Major)
	assert.EqualValues(t, 3, *e.Selector.Minor)
	assert.True(t, e.Access.Read)
	assert.True(t, e.Access.Write)
	assert.False(t, e.Access.Mknod)
}

func TestParseWildcards(t *testing.T) {
	e, err := Parse("a *:* m")
	require.NoError(t, err)
	assert.Equal(t, All, e.Selector.Type)
	assert.Nil(t, e.Selector.Major)
	assert.Nil(t, e.Selector.Minor)
	assert.True(t, e.Access.Mknod)
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"x 1:3 r",
		"c 1 r",
		"c 1:3 q",
		"c 1:3",
		"c 1:3 ",
	}
	for _, s := range cases {
		_, err := Parse(s)
		assert.Errorf(t, err, "expected error for %q", s)
	}
}

func TestStringifyRoundTrip(t *testing.T) {
	cases := []string{"c 1:3 rwm", "b 4:0 r", "a *:* m", "c 3:* w"}
	for _, s := range cases {
		e, err := Parse(s)
		require.NoError(t, err)
		got, err := Parse(Stringify(e))
		require.NoError(t, err)
		assert.Equal(t, e, got, "round trip of %q", s)
	}
}
