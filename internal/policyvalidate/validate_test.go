package policyvalidate

import (
	"testing"

	"github.com/mec-project/devicemanager/internal/deviceaccess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, s string) deviceaccess.Entry {
	t.Helper()
	e, err := deviceaccess.Parse(s)
	require.NoError(t, err)
	return e
}

func nonWildcard(t *testing.T, s string) deviceaccess.NonWildcardEntry {
	t.Helper()
	nws, err := deviceaccess.ToNonWildcards([]deviceaccess.Entry{entry(t, s)})
	require.NoError(t, err)
	return nws[0]
}

func TestConfigureAcceptsDisjointPolicy(t *testing.T) {
	err := Configure(
		[]deviceaccess.Entry{entry(t, "c 1:3 r")},
		[]deviceaccess.NonWildcardEntry{nonWildcard(t, "c 3:1 w")},
	)
	assert.NoError(t, err)
}

func TestConfigureAcceptsWildcardAllowWithConcreteDeny(t *testing.T) {
	err := Configure(
		[]deviceaccess.Entry{entry(t, "a *:* m")},
		[]deviceaccess.NonWildcardEntry{nonWildcard(t, "c 3:1 m")},
	)
	assert.NoError(t, err)
}

func TestConfigureRejectsAllowEncompassedByDeny(t *testing.T) {
	err := Configure(
		[]deviceaccess.Entry{entry(t, "c 1:3 w")},
		[]deviceaccess.NonWildcardEntry{
			nonWildcard(t, "c 1:3 w"),
			nonWildcard(t, "c 21:1 w"),
		},
	)
	require.Error(t, err)
	var conflict *PolicyConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestReconfigureRejectsAdditionEncompassedByRemoval(t *testing.T) {
	err := Reconfigure(
		[]deviceaccess.NonWildcardEntry{nonWildcard(t, "c 1:3 w")},
		[]deviceaccess.NonWildcardEntry{
			nonWildcard(t, "c 1:3 w"),
			nonWildcard(t, "c 21:1 w"),
		},
	)
	require.Error(t, err)
}

func TestReconfigureAcceptsDisjointDiff(t *testing.T) {
	err := Reconfigure(
		[]deviceaccess.NonWildcardEntry{nonWildcard(t, "c 1:3 w")},
		[]deviceaccess.NonWildcardEntry{nonWildcard(t, "c 9:9 w")},
	)
	assert.NoError(t, err)
}
