package deviceaccess

import (
	"testing"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLinuxDeviceCgroupConcrete(t *testing.T) {
	major := int64(1)
	minor := int64(3)
	e, err := FromLinuxDeviceCgroup(specs.LinuxDeviceCgroup{
		Allow:  true,
		Type:   "c",
		Major:  &major,
		Minor:  &minor,
		Access: "rw",
	})
	require.NoError(t, err)
	assert.Equal(t, Character, e.Selector.Type)
	assert.EqualValues(t, 1, *e.Selector.Major)
	assert.EqualValues(t, 3, *e.Selector.Minor)
	assert.True(t, e.Access.Read)
	assert.True(t, e.Access.Write)
}

func TestFromLinuxDeviceCgroupWildcard(t *testing.T) {
	e, err := FromLinuxDeviceCgroup(specs.LinuxDeviceCgroup{
		Allow:  true,
		Type:   "a",
		Access: "m",
	})
	require.NoError(t, err)
	assert.Equal(t, All, e.Selector.Type)
	assert.Nil(t, e.Selector.Major)
	assert.Nil(t, e.Selector.Minor)
}

func TestToLinuxDeviceCgroupRoundTrip(t *testing.T) {
	e := mustParse(t, "c 1:3 rw")
	rule := ToLinuxDeviceCgroup(e, true)
	assert.True(t, rule.Allow)
	assert.Equal(t, "c", rule.Type)
	require.NotNil(t, rule.Major)
	require.NotNil(t, rule.Minor)
	assert.EqualValues(t, 1, *rule.Major)
	assert.EqualValues(t, 3, *rule.Minor)
	assert.Equal(t, "rw", rule.Access)

	back, err := FromLinuxDeviceCgroup(rule)
	require.NoError(t, err)
	assert.Equal(t, e, back)
}
