// Package importer loads countries, regions and cities from GeoNames dump files.
package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/settings"
)

const maxLineSize = 1024 * 1024

// Result counts what one import did.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

func (r Result) String() string {
	return fmt.Sprintf("%d created, %d updated, %d skipped", r.Created, r.Updated, r.Skipped)
}

type Importer struct {
	db       *gorm.DB
	settings *settings.Settings
	logger   *zap.Logger
}

func New(db *gorm.DB, s *settings.Settings, logger *zap.Logger) *Importer {
	if s == nil {
		s = settings.Get()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{db: db, settings: s, logger: logger.Named("importer")}
}

// eachRow calls fn with the tab-separated fields of every non-comment line.
func eachRow(r io.Reader, fn func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := fn(line, strings.Split(text, "\t")); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseGeonameID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid geoname id %q", raw)
	}
	return &id, nil
}

// ImportCountries reads countryInfo.txt. Every country is loaded.
func (i *Importer) ImportCountries(ctx context.Context, r io.Reader) (Result, error) {
	var result Result

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return eachRow(r, func(line int, fields []string) error {
			if len(fields) < 17 {
				return fmt.Errorf("line %d: expected at least 17 fields, got %d", line, len(fields))
			}
			geonameID, err := parseGeonameID(fields[16])
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			country := models.Country{Name: fields[4], Code2: fields[0], GeonameID: geonameID}

			var existing models.Country
			err = tx.Where("code2 = ?", country.Code2).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				result.Created++
				return tx.Create(&country).Error
			case err != nil:
				return err
			}

			result.Updated++
			return tx.Model(&existing).Updates(map[string]interface{}{
				"name":       country.Name,
				"geoname_id": country.GeonameID,
			}).Error
		})
	})
	if err != nil {
		return result, err
	}

	i.logger.Info("Imported countries", zap.Int("created", result.Created), zap.Int("updated", result.Updated))
	return result, nil
}

type countryIndex struct {
	tx     *gorm.DB
	byCode map[string]*models.Country
}

func newCountryIndex(tx *gorm.DB) *countryIndex {
	return &countryIndex{tx: tx, byCode: make(map[string]*models.Country)}
}

// get returns the country with code2, or nil when it has not been imported.
func (c *countryIndex) get(code string) (*models.Country, error) {
	if country, ok := c.byCode[code]; ok {
		return country, nil
	}

	var country models.Country
	err := c.tx.Where("code2 = ?", code).First(&country).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.byCode[code] = nil
		return nil, nil
	case err != nil:
		return nil, err
	}

	c.byCode[code] = &country
	return &country, nil
}

// ImportRegions reads admin1CodesASCII.txt rows ("CC.ADM1", name, ascii name, geoname id). Only
// regions of the configured countries are loaded, and US regions listed as bureau states are
// marked as such.
func (i *Importer) ImportRegions(ctx context.Context, r io.Reader) (Result, error) {
	var result Result

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		countries := newCountryIndex(tx)

		return eachRow(r, func(line int, fields []string) error {
			if len(fields) < 4 {
				return fmt.Errorf("line %d: expected 4 fields, got %d", line, len(fields))
			}

			countryCode, code, ok := strings.Cut(fields[0], ".")
			if !ok || !i.settings.LoadsRegionsFrom(countryCode) {
				result.Skipped++
				return nil
			}

			country, err := countries.get(countryCode)
			if err != nil {
				return err
			}
			if country == nil {
				i.logger.Warn("Skipping region of unknown country", zap.Int("line", line), zap.String("country", countryCode))
				result.Skipped++
				return nil
			}

			geonameID, err := parseGeonameID(fields[3])
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			region := models.Region{
				Name:        fields[1],
				NameASCII:   fields[2],
				DisplayName: fmt.Sprintf("%s, %s", fields[1], country.Name),
				GeonameCode: code,
				GeonameID:   geonameID,
				CountryID:   country.ID,
			}
			bureauState := country.Code2 == "US" && i.settings.IsBureauState(code)

			existing, err := findRegion(tx, region)
			if err != nil {
				return err
			}
			if existing == nil {
				region.BureauOperations = bureauState
				result.Created++
				return tx.Create(&region).Error
			}

			updates := map[string]interface{}{
				"name":         region.Name,
				"name_ascii":   region.NameASCII,
				"display_name": region.DisplayName,
				"geoname_code": region.GeonameCode,
				"geoname_id":   region.GeonameID,
			}
			if bureauState {
				updates["bureau_operations"] = true
			}
			result.Updated++
			return tx.Model(existing).Updates(updates).Error
		})
	})
	if err != nil {
		return result, err
	}

	i.logger.Info("Imported regions",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func findRegion(tx *gorm.DB, region models.Region) (*models.Region, error) {
	query := tx.Where("country_id = ? AND geoname_code = ?", region.CountryID, region.GeonameCode)
	if region.GeonameID != nil {
		query = tx.Where("geoname_id = ?", *region.GeonameID).
			Or("country_id = ? AND geoname_code = ?", region.CountryID, region.GeonameCode)
	}

	var existing models.Region
	err := query.First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &existing, nil
}

// City dump columns, see http://download.geonames.org/export/dump/readme.txt.
const (
	cityGeonameID = iota
	cityName
	cityASCIIName
	cityAlternateNames
	cityLatitude
	cityLongitude
	cityFeatureClass
	cityFeatureCode
	cityCountryCode
	cityCC2
	cityAdmin1
	cityAdmin2
	cityAdmin3
	cityAdmin4
	cityPopulation
	cityColumns = 15
)

// ImportCities reads a GeoNames cities dump (cities500.txt and friends). Only cities of the
// configured countries with a configured feature code are loaded.
func (i *Importer) ImportCities(ctx context.Context, r io.Reader) (Result, error) {
	var result Result

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		countries := newCountryIndex(tx)
		regions := make(map[string]*uuid.UUID)

		return eachRow(r, func(line int, fields []string) error {
			if len(fields) < cityColumns {
				return fmt.Errorf("line %d: expected at least %d fields, got %d", line, cityColumns, len(fields))
			}

			countryCode := fields[cityCountryCode]
			if !i.settings.LoadsCitiesFrom(countryCode) || !i.settings.IsCityFeatureCode(fields[cityFeatureCode]) {
				result.Skipped++
				return nil
			}

			country, err := countries.get(countryCode)
			if err != nil {
				return err
			}
			if country == nil {
				result.Skipped++
				return nil
			}

			regionKey := countryCode + "." + fields[cityAdmin1]
			regionID, cached := regions[regionKey]
			if !cached {
				var ids []uuid.UUID
				if err := tx.Model(&models.Region{}).
					Where("country_id = ? AND geoname_code = ?", country.ID, fields[cityAdmin1]).
					Limit(1).Pluck("id", &ids).Error; err != nil {
					return err
				}
				if len(ids) > 0 {
					regionID = &ids[0]
				}
				regions[regionKey] = regionID
			}

			city, err := cityFromRow(fields, country, regionID)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			var existing models.City
			err = tx.Where("geoname_id = ?", *city.GeonameID).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				result.Created++
				return tx.Create(city).Error
			case err != nil:
				return err
			}

			result.Updated++
			return tx.Model(&existing).Updates(map[string]interface{}{
				"name":            city.Name,
				"name_ascii":      city.NameASCII,
				"display_name":    city.DisplayName,
				"alternate_names": city.AlternateNames,
				"region_id":       city.RegionID,
				"country_id":      city.CountryID,
				"latitude":        city.Latitude,
				"longitude":       city.Longitude,
				"population":      city.Population,
				"feature_code":    city.FeatureCode,
			}).Error
		})
	})
	if err != nil {
		return result, err
	}

	i.logger.Info("Imported cities",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func cityFromRow(fields []string, country *models.Country, regionID *uuid.UUID) (*models.City, error) {
	geonameID, err := parseGeonameID(fields[cityGeonameID])
	if err != nil {
		return nil, err
	}
	if geonameID == nil {
		return nil, errors.New("missing geoname id")
	}

	var population int64
	if raw := strings.TrimSpace(fields[cityPopulation]); raw != "" {
		population, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid population %q", raw)
		}
	}

	alternate := []string{}
	for _, name := range strings.Split(fields[cityAlternateNames], ",") {
		if name = strings.TrimSpace(name); name != "" {
			alternate = append(alternate, name)
		}
	}
	alternateJSON, err := json.Marshal(alternate)
	if err != nil {
		return nil, err
	}

	return &models.City{
		Name:           fields[cityName],
		NameASCII:      fields[cityASCIIName],
		DisplayName:    fmt.Sprintf("%s, %s", fields[cityName], country.Name),
		AlternateNames: datatypes.JSON(alternateJSON),
		RegionID:       regionID,
		CountryID:      country.ID,
		GeonameID:      geonameID,
		Latitude:       fields[cityLatitude],
		Longitude:      fields[cityLongitude],
		Population:     population,
		FeatureCode:    fields[cityFeatureCode],
	}, nil
}
