package importer_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/importer"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/settings"
	"github.com/freedmens-bureau/bureau/internal/testutil"
)

const countryInfo = `# ISO	ISO3	ISO-Numeric	fips	Country	Capital	Area(in sq km)	Population	Continent	tld	CurrencyCode	CurrencyName	Phone	Postal Code Format	Postal Code Regex	Languages	geonameid	neighbours	EquivalentFipsCode
DE	DEU	276	GM	Germany	Berlin	357021	82927922	EU	.de	EUR	Euro	49	#####	^(\d{5})$	de	2921044	CH,PL,NL,DK,BE,CZ,LU,FR,AT	
US	USA	840	US	United States	Washington	9629091	327167434	NA	.us	USD	Dollar	1	#####-####	^\d{5}(-\d{4})?$	en-US,es-US,haw,fr	6252001	CA,MX,CU	
`

const admin1Codes = `US.GA	Georgia	Georgia	4197000
US.VT	Vermont	Vermont	5242283
US.VA	Virginia	Virginia	6254928
DE.16	Berlin	Berlin	2950157
`

func cityRow(id, name, ascii, alternates, featureCode, country, admin1, population string) string {
	fields := []string{id, name, ascii, alternates, "33.52150", "-84.35381", "P", featureCode, country, "", admin1, "063", "", "", population, "", "246", "America/New_York", "2017-03-09"}
	return strings.Join(fields, "\t")
}

func newImporter(t *testing.T) (*importer.Importer, *gorm.DB) {
	t.Helper()
	conn := testutil.NewDB(t)
	s, err := settings.Parse([]byte(`
bureau_states: [GA, VA]
load_regions_from_countries: [US]
load_cities_from_countries: [US]
city_feature_codes: [PPL, PPLA2]
`))
	require.NoError(t, err)
	return importer.New(conn, s, nil), conn
}

func TestImportCountries(t *testing.T) {
	imp, conn := newImporter(t)
	ctx := context.Background()

	result, err := imp.ImportCountries(ctx, strings.NewReader(countryInfo))
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Created: 2}, result)

	result, err = imp.ImportCountries(ctx, strings.NewReader(countryInfo))
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Updated: 2}, result)

	var us models.Country
	require.NoError(t, conn.Where("code2 = ?", "US").First(&us).Error)
	assert.Equal(t, "United States", us.Name)
	require.NotNil(t, us.GeonameID)
	assert.Equal(t, int64(6252001), *us.GeonameID)
}

func TestImportRegionsFiltersCountriesAndMarksBureauStates(t *testing.T) {
	imp, conn := newImporter(t)
	ctx := context.Background()
	_, err := imp.ImportCountries(ctx, strings.NewReader(countryInfo))
	require.NoError(t, err)

	result, err := imp.ImportRegions(ctx, strings.NewReader(admin1Codes))
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Created: 3, Skipped: 1}, result)

	var regions []models.Region
	require.NoError(t, conn.Order("name").Find(&regions).Error)
	require.Len(t, regions, 3)

	byName := map[string]models.Region{}
	for _, r := range regions {
		byName[r.Name] = r
	}
	assert.True(t, byName["Georgia"].BureauOperations)
	assert.True(t, byName["Virginia"].BureauOperations)
	assert.False(t, byName["Vermont"].BureauOperations)
	assert.Equal(t, "GA", byName["Georgia"].GeonameCode)
	assert.Equal(t, "Georgia, United States", byName["Georgia"].DisplayName)

	result, err = imp.ImportRegions(ctx, strings.NewReader(admin1Codes))
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Updated: 3, Skipped: 1}, result)
}

func TestImportCitiesFiltersCountriesAndFeatureCodes(t *testing.T) {
	imp, conn := newImporter(t)
	ctx := context.Background()
	_, err := imp.ImportCountries(ctx, strings.NewReader(countryInfo))
	require.NoError(t, err)
	_, err = imp.ImportRegions(ctx, strings.NewReader(admin1Codes))
	require.NoError(t, err)

	dump := strings.Join([]string{
		cityRow("4203696", "Jonesboro", "Jonesboro", "Jonesborough,Леонсборо", "PPLA2", "US", "GA", "4724"),
		cityRow("4180439", "Atlanta", "Atlanta", "", "PPLA", "US", "GA", "463878"),
		cityRow("2950159", "Berlin", "Berlin", "", "PPL", "DE", "16", "3426354"),
		cityRow("9999999", "Nowhere", "Nowhere", "", "PPL", "US", "ZZ", ""),
	}, "\n")

	result, err := imp.ImportCities(ctx, strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Created: 2, Skipped: 2}, result)

	var jonesboro models.City
	require.NoError(t, conn.Preload("Region").Where("name = ?", "Jonesboro").First(&jonesboro).Error)
	require.NotNil(t, jonesboro.Region)
	assert.Equal(t, "Georgia", jonesboro.Region.Name)
	assert.Equal(t, int64(4724), jonesboro.Population)
	assert.Equal(t, "PPLA2", jonesboro.FeatureCode)

	var alternates []string
	require.NoError(t, json.Unmarshal(jonesboro.AlternateNames, &alternates))
	assert.Equal(t, []string{"Jonesborough", "Леонсборо"}, alternates)

	var nowhere models.City
	require.NoError(t, conn.Where("name = ?", "Nowhere").First(&nowhere).Error)
	assert.Nil(t, nowhere.RegionID, "unknown admin1 code leaves the region empty")
}

func TestImportRejectsMalformedRows(t *testing.T) {
	imp, _ := newImporter(t)

	_, err := imp.ImportRegions(context.Background(), strings.NewReader("US.GA\tGeorgia\n"))
	assert.ErrorContains(t, err, "line 1")
}
