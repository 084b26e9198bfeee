package root

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRegistersPersistentFlags(t *testing.T) {
	Init()

	dataDir := Cmd.PersistentFlags().Lookup("data-dir")
	require.NotNil(t, dataDir)
	assert.Equal(t, "data", dataDir.DefValue)

	year := Cmd.PersistentFlags().Lookup("year")
	require.NotNil(t, year)
	assert.Equal(t, "0", year.DefValue)
}

func TestNewStoreUsesSharedDataDir(t *testing.T) {
	original := SharedFlags.DataDir
	defer func() {
		SharedFlags.DataDir = original
	}()

	SharedFlags.DataDir = "/tmp/boekhouden-test"
	s := NewStore()
	assert.Equal(t, "/tmp/boekhouden-test", s.DataDir)
}
