package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := mustDefault()

	assert.True(t, s.IsBureauState("GA"))
	assert.True(t, s.IsBureauState("WV"))
	assert.False(t, s.IsBureauState("NY"))
	assert.True(t, s.LoadsRegionsFrom("US"))
	assert.False(t, s.LoadsRegionsFrom("DE"))
	assert.True(t, s.LoadsCitiesFrom("CA"))
	assert.True(t, s.IsCityFeatureCode("PPLA2"))
	assert.False(t, s.IsCityFeatureCode("ADM2"))
	assert.Equal(t, "-", s.EmptyFieldString)
}

func TestGroupNames(t *testing.T) {
	s := mustDefault()

	assert.Equal(t, "Germany", s.GroupCountryName("Prussia"))
	assert.Equal(t, "France", s.GroupCountryName("France"))
	assert.Equal(t, "Virginia", s.GroupRegionName("West Virginia"))
	assert.Equal(t, "Georgia", s.GroupRegionName("Georgia"))
}

func TestParseKeepsDefaults(t *testing.T) {
	s, err := Parse([]byte("bureau_states: [GA]\nempty_field_string: n/a\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"GA"}, s.BureauStates)
	assert.Equal(t, "n/a", s.EmptyFieldString)
	assert.Equal(t, "Germany", s.GermanyCountryName)

	_, err = Parse([]byte("bureau_states: {"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	previous := Get()
	t.Cleanup(func() { Set(previous) })

	same, err := Load("")
	require.NoError(t, err)
	assert.Same(t, previous, same)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("load_cities_from_countries: [DE]\n"), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Same(t, loaded, Get())
	assert.True(t, Get().LoadsCitiesFrom("DE"))
	assert.False(t, Get().LoadsCitiesFrom("US"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
