package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoWorld_EntryModuleResolves(t *testing.T) {
	world := demoWorld()
	entry := world.EntryModule()
	require.NotNil(t, entry)
	assert.Equal(t, "__main__", entry.QualName())

	scope, ok := world.ModuleGraph().Resolve("__main__", "__main__", 0)
	require.True(t, ok)
	assert.Same(t, entry, scope)
}

func TestDemoWorld_StatementsNonEmpty(t *testing.T) {
	world := demoWorld()
	stmts := world.EntryModule().Statements()
	assert.NotEmpty(t, stmts)
}
