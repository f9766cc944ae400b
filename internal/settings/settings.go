package settings

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed settings.yaml
var defaultSettings []byte

// Settings holds the place and reporting rules that are data, not code.
type Settings struct {
	BureauStates             []string `yaml:"bureau_states"`
	LoadRegionsFromCountries []string `yaml:"load_regions_from_countries"`
	LoadCitiesFromCountries  []string `yaml:"load_cities_from_countries"`
	CityFeatureCodes         []string `yaml:"city_feature_codes"`
	GermanyCountryName       string   `yaml:"germany_country_name"`
	GermanyCountryNames      []string `yaml:"germany_country_names"`
	VirginiaRegionName       string   `yaml:"virginia_region_name"`
	VirginiaRegionNames      []string `yaml:"virginia_region_names"`
	DistrictOfColumbiaName   string   `yaml:"district_of_columbia_name"`
	EmptyFieldString         string   `yaml:"empty_field_string"`
}

var current = mustDefault()

func mustDefault() *Settings {
	s := &Settings{}
	if err := yaml.Unmarshal(defaultSettings, s); err != nil {
		panic(fmt.Sprintf("embedded settings: %v", err))
	}
	return s
}

// Parse decodes a settings document. Keys missing from data keep their default values.
func Parse(data []byte) (*Settings, error) {
	s := mustDefault()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	return s, nil
}

// Load replaces the active settings with the file at path. An empty path keeps the embedded defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		return current, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, err
	}

	current = s
	return s, nil
}

// Get returns the active settings.
func Get() *Settings {
	return current
}

// Set replaces the active settings. Used by tests and the Load path.
func Set(s *Settings) {
	current = s
}

func (s *Settings) IsBureauState(code string) bool {
	return slices.Contains(s.BureauStates, code)
}

func (s *Settings) LoadsRegionsFrom(countryCode string) bool {
	return slices.Contains(s.LoadRegionsFromCountries, countryCode)
}

func (s *Settings) LoadsCitiesFrom(countryCode string) bool {
	return slices.Contains(s.LoadCitiesFromCountries, countryCode)
}

func (s *Settings) IsCityFeatureCode(code string) bool {
	return slices.Contains(s.CityFeatureCodes, code)
}

// GroupCountryName folds the German states into one country name.
func (s *Settings) GroupCountryName(name string) string {
	if slices.Contains(s.GermanyCountryNames, name) {
		return s.GermanyCountryName
	}
	return name
}

// GroupRegionName folds Virginia and West Virginia together: it was all Virginia when employees were born.
func (s *Settings) GroupRegionName(name string) string {
	if slices.Contains(s.VirginiaRegionNames, name) {
		return s.VirginiaRegionName
	}
	return name
}
