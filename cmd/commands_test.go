package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChild(t *testing.T) {
	d, qty, unit, err := parseChild("AAAA.111111.002=2.5:kg")
	require.NoError(t, err)
	assert.Equal(t, "AAAA.111111.002", d)
	assert.Equal(t, 2.5, qty)
	assert.Equal(t, "kg", unit)

	d, qty, unit, err = parseChild(" Bolt M6 = 4 ")
	require.NoError(t, err)
	assert.Equal(t, "Bolt M6", d)
	assert.Equal(t, 4.0, qty)
	assert.Empty(t, unit)

	for _, bad := range []string{"AAAA", "=2", "X=abc", "X=-1"} {
		_, _, _, err := parseChild(bad)
		assert.Error(t, err, bad)
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"migrate", "import", "tree", "where-used", "reconcile", "route-card", "cache-stats"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}
