package deviceaccess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Entry {
	t.Helper()
	e, err := Parse(s)
	require.NoError(t, err)
	return e
}

func TestEncompasses(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "c 1:3 r", "c 1:3 r", true},
		{"stronger access covers weaker", "c 1:3 rw", "c 1:3 r", true},
		{"weaker access does not cover stronger", "c 1:3 r", "c 1:3 rw", false},
		{"wildcard type covers concrete type", "a *:* m", "c 3:1 m", true},
		{"wildcard major covers concrete major", "c *:1 w", "c 3:1 w", true},
		{"different minor does not match", "c 3:1 w", "c 3:2 w", false},
		{"different type does not match", "b 3:1 w", "c 3:1 w", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := mustParse(t, tc.a)
			b := mustParse(t, tc.b)
			assert.Equal(t, tc.want, a.Encompasses(b))
		})
	}
}

func TestEncompassesReflexiveTransitive(t *testing.T) {
	a := mustParse(t, "a *:* rwm")
	b := mustParse(t, "c 3:*  rw")
	c := mustParse(t, "c 3:1 r")

	assert.True(t, a.Encompasses(a), "reflexive")
	assert.True(t, a.Encompasses(b))
	assert.True(t, b.Encompasses(c))
	assert.True(t, a.Encompasses(c), "transitive")
}

func TestToNonWildcardsRejectsWildcard(t *testing.T) {
	_, err := ToNonWildcards([]Entry{mustParse(t, "c *:1 w")})
	require.Error(t, err)
	var wErr *WildcardError
	assert.ErrorAs(t, err, &wErr)
}

func TestToNonWildcardsAcceptsConcrete(t *testing.T) {
	nws, err := ToNonWildcards([]Entry{mustParse(t, "c 1:3 rw")})
	require.NoError(t, err)
	require.Len(t, nws, 1)
	assert.Equal(t, Character, nws[0].Selector.Type)
	assert.EqualValues(t, 1, nws[0].Selector.Major)
	assert.EqualValues(t, 3, nws[0].Selector.Minor)
}

func TestToNonWildcardsFailsOnFirstWildcard(t *testing.T) {
	_, err := ToNonWildcards([]Entry{
		mustParse(t, "c 1:3 rw"),
		mustParse(t, "a *:* m"),
	})
	require.Error(t, err)
}

func TestNoneAccess(t *testing.T) {
	assert.True(t, Access{}.None())
	assert.False(t, Access{Read: true}.None())
}

func TestWidenPreservesSelector(t *testing.T) {
	nw, err := NewNonWildcardEntry(Character, 1, 3, Access{Read: true})
	require.NoError(t, err)
	e := nw.ToEntry()
	assert.Equal(t, Character, e.Selector.Type)
	assert.EqualValues(t, 1, *e.Selector.Major)
	assert.EqualValues(t, 3, *e.Selector.Minor)
}

func TestNewNonWildcardSelectorRejectsAll(t *testing.T) {
	_, err := NewNonWildcardSelector(All, 1, 2)
	assert.Error(t, err)
}
