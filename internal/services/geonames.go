package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/metrics"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/settings"
)

const (
	geoNamesTimeout   = 5 * time.Second
	countyFeatureCode = "ADM2"
	MaxSearchLength   = 150
)

var ErrGeoNamesUnavailable = errors.New("geonames service unavailable")

type GeoNamesConfig struct {
	BaseURL       string
	Username      string
	RatePerSecond float64
}

// GeoNamesClient searches the GeoNames web service to prefill new cities and counties.
type GeoNamesClient struct {
	http     *resty.Client
	username string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

func NewGeoNamesClient(cfg GeoNamesConfig, logger *zap.Logger) *GeoNamesClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(geoNamesTimeout).
		SetHeader("Accept", "application/json")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geonames",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("component", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &GeoNamesClient{
		http:     client,
		username: cfg.Username,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		breaker:  breaker,
		logger:   logger,
	}
}

// LookupResult prefills a City or County form. When GeoNames finds nothing only AlternateNames is set,
// holding the raw response.
type LookupResult struct {
	DisplayName    string          `json:"display_name,omitempty"`
	Name           string          `json:"name,omitempty"`
	NameASCII      string          `json:"name_ascii,omitempty"`
	Region         *models.Region  `json:"region,omitempty"`
	State          *models.Region  `json:"state,omitempty"`
	Country        *models.Country `json:"country,omitempty"`
	GeonameID      int64           `json:"geoname_id,omitempty"`
	Latitude       string          `json:"latitude,omitempty"`
	Longitude      string          `json:"longitude,omitempty"`
	Population     int64           `json:"population,omitempty"`
	FeatureCode    string          `json:"feature_code,omitempty"`
	AlternateNames json.RawMessage `json:"alternate_names,omitempty"`
}

func (r *LookupResult) Found() bool {
	return r.Name != ""
}

type geoName struct {
	GeonameID   int64  `json:"geonameId"`
	ToponymName string `json:"toponymName"`
	AdminName1  string `json:"adminName1"`
	CountryName string `json:"countryName"`
	Lat         string `json:"lat"`
	Lng         string `json:"lng"`
	Population  int64  `json:"population"`
	FCode       string `json:"fcode"`
}

type searchResponse struct {
	GeoNames []geoName `json:"geonames"`
}

// CityLookup searches populated places with the configured city feature codes.
func (c *GeoNamesClient) CityLookup(ctx context.Context, db *gorm.DB, search string) (*LookupResult, error) {
	return c.Lookup(ctx, db, search, settings.Get().CityFeatureCodes, "city")
}

// CountyLookup searches second-level administrative divisions.
func (c *GeoNamesClient) CountyLookup(ctx context.Context, db *gorm.DB, search string) (*LookupResult, error) {
	return c.Lookup(ctx, db, search, []string{countyFeatureCode}, "county")
}

// Lookup returns the best GeoNames match for search, with region and country resolved to local records.
func (c *GeoNamesClient) Lookup(ctx context.Context, db *gorm.DB, search string, featureCodes []string, kind string) (*LookupResult, error) {
	params := url.Values{}
	params.Set("q", search)
	params.Set("name_equals", strings.TrimSpace(strings.Split(search, ",")[0]))
	params.Set("maxRows", "1")
	params.Set("username", c.username)
	for _, code := range featureCodes {
		params.Add("featureCode", code)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParamsFromValues(params).
			Get("/searchJSON")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("geonames returned status %d", resp.StatusCode())
		}
		return resp.Body(), nil
	})
	if err != nil {
		metrics.GeoNamesRequestsTotal.WithLabelValues(kind, "error").Inc()
		c.logger.Error("GeoNames lookup failed", zap.String("search", search), zap.Error(err))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrGeoNamesUnavailable
		}
		return nil, fmt.Errorf("geonames lookup: %w", err)
	}

	raw := body.([]byte)
	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.GeoNamesRequestsTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("decode geonames response: %w", err)
	}

	if len(parsed.GeoNames) == 0 {
		metrics.GeoNamesRequestsTotal.WithLabelValues(kind, "not_found").Inc()
		return &LookupResult{AlternateNames: json.RawMessage(raw)}, nil
	}
	metrics.GeoNamesRequestsTotal.WithLabelValues(kind, "found").Inc()

	return resolve(ctx, db, parsed.GeoNames[0])
}

func resolve(ctx context.Context, db *gorm.DB, g geoName) (*LookupResult, error) {
	db = db.WithContext(ctx)

	var region *models.Region
	var found models.Region
	err := db.Where("name = ?", g.AdminName1).First(&found).Error
	switch {
	case err == nil:
		region = &found
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var country *models.Country
	var foundCountry models.Country
	err = db.Where("name = ?", g.CountryName).First(&foundCountry).Error
	switch {
	case err == nil:
		country = &foundCountry
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	regionName, countryName := g.AdminName1, g.CountryName
	if region != nil {
		regionName = region.Name
	}
	if country != nil {
		countryName = country.Name
	}

	return &LookupResult{
		DisplayName: fmt.Sprintf("%s, %s, %s", g.ToponymName, regionName, countryName),
		Name:        g.ToponymName,
		NameASCII:   g.ToponymName,
		Region:      region,
		State:       region,
		Country:     country,
		GeonameID:   g.GeonameID,
		Latitude:    g.Lat,
		Longitude:   g.Lng,
		Population:  g.Population,
		FeatureCode: g.FCode,
	}, nil
}
