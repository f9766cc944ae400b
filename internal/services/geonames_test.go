package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedmens-bureau/bureau/internal/services"
	"github.com/freedmens-bureau/bureau/internal/testutil"
)

func TestCityLookupResolvesLocalRecords(t *testing.T) {
	conn := testutil.NewDB(t)
	seed := testutil.SeedPlaces(t, conn)

	var query map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/searchJSON", r.URL.Path)
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalResultsCount":1,"geonames":[{"geonameId":4203696,"toponymName":"Jonesboro",
			"adminName1":"Georgia","countryName":"United States","lat":"33.52150","lng":"-84.35381",
			"population":4724,"fcode":"PPLA2"}]}`))
	}))
	defer server.Close()

	client := services.NewGeoNamesClient(services.GeoNamesConfig{BaseURL: server.URL, Username: "bureau", RatePerSecond: 100}, nil)
	result, err := client.CityLookup(context.Background(), conn, "Jonesboro, Georgia")
	require.NoError(t, err)

	assert.Equal(t, []string{"Jonesboro, Georgia"}, query["q"])
	assert.Equal(t, []string{"Jonesboro"}, query["name_equals"])
	assert.Equal(t, []string{"1"}, query["maxRows"])
	assert.Equal(t, []string{"bureau"}, query["username"])
	assert.Contains(t, query["featureCode"], "PPLA2")
	assert.Contains(t, query["featureCode"], "STLMT")

	require.True(t, result.Found())
	assert.Equal(t, "Jonesboro, Georgia, United States", result.DisplayName)
	assert.Equal(t, int64(4203696), result.GeonameID)
	assert.Equal(t, int64(4724), result.Population)
	assert.Equal(t, "33.52150", result.Latitude)
	assert.Equal(t, "PPLA2", result.FeatureCode)
	require.NotNil(t, result.Region)
	assert.Equal(t, seed.Georgia.ID, result.Region.ID)
	require.NotNil(t, result.Country)
	assert.Equal(t, seed.US.ID, result.Country.ID)
	assert.Empty(t, result.AlternateNames)
}

func TestCountyLookupWithoutMatchReturnsRawResponse(t *testing.T) {
	conn := testutil.NewDB(t)

	var featureCodes []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		featureCodes = r.URL.Query()["featureCode"]
		_, _ = w.Write([]byte(`{"totalResultsCount":0,"geonames":[]}`))
	}))
	defer server.Close()

	client := services.NewGeoNamesClient(services.GeoNamesConfig{BaseURL: server.URL, RatePerSecond: 100}, nil)
	result, err := client.CountyLookup(context.Background(), conn, "Nowhere County")
	require.NoError(t, err)

	assert.Equal(t, []string{"ADM2"}, featureCodes)
	assert.False(t, result.Found())
	assert.JSONEq(t, `{"totalResultsCount":0,"geonames":[]}`, string(result.AlternateNames))
}

func TestLookupUnknownRegionKeepsRemoteNames(t *testing.T) {
	conn := testutil.NewDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"geonames":[{"geonameId":2950159,"toponymName":"Berlin","adminName1":"Land Berlin",
			"countryName":"Germany","lat":"52.52437","lng":"13.41053","population":3426354,"fcode":"PPLC"}]}`))
	}))
	defer server.Close()

	client := services.NewGeoNamesClient(services.GeoNamesConfig{BaseURL: server.URL, RatePerSecond: 100}, nil)
	result, err := client.CityLookup(context.Background(), conn, "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Berlin, Land Berlin, Germany", result.DisplayName)
	assert.Nil(t, result.Region)
	assert.Nil(t, result.Country)
}

func TestLookupReportsUpstreamErrors(t *testing.T) {
	conn := testutil.NewDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := services.NewGeoNamesClient(services.GeoNamesConfig{BaseURL: server.URL, RatePerSecond: 100}, nil)
	_, err := client.CityLookup(context.Background(), conn, "Atlanta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestLookupOpensCircuitAfterRepeatedFailures(t *testing.T) {
	conn := testutil.NewDB(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := services.NewGeoNamesClient(services.GeoNamesConfig{BaseURL: server.URL, RatePerSecond: 1000}, nil)
	for i := 0; i < 5; i++ {
		_, err := client.CityLookup(context.Background(), conn, "Atlanta")
		require.Error(t, err)
	}

	_, err := client.CityLookup(context.Background(), conn, "Atlanta")
	assert.ErrorIs(t, err, services.ErrGeoNamesUnavailable)
	assert.Equal(t, 5, calls)
}
