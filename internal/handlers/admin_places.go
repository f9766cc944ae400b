package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/utils"
)

// placeReferences are the columns that keep a place from being deleted.
var placeReferences = []reference{
	{"employees", "place_of_birth_id"},
	{"employees", "place_of_death_id"},
	{"employees", "place_of_residence_id"},
	{"assignment_places", "place_id"},
}

type PlaceRequest struct {
	CityID    *uuid.UUID `json:"city_id"`
	CountyID  *uuid.UUID `json:"county_id"`
	RegionID  *uuid.UUID `json:"region_id"`
	CountryID *uuid.UUID `json:"country_id"`
}

func placeFilters(ctx *gin.Context) ([]models.Scope, error) {
	var scopes []models.Scope
	for _, filter := range []struct{ param, column string }{
		{"country", "places.country_id"},
		{"region", "places.region_id"},
		{"county", "places.county_id"},
		{"city", "places.city_id"},
	} {
		id, ok, err := utils.GetUUIDQuery(ctx, filter.param)
		if err != nil {
			return nil, err
		}
		if ok {
			column := filter.column
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(column+" = ?", id) })
		}
	}
	return scopes, nil
}

var placeResource = resource[models.Place, PlaceRequest]{
	entity:  "Place",
	preload: models.PreloadPlace(""),
	filters: placeFilters,
	apply: func(tx *gorm.DB, p *models.Place, req *PlaceRequest) error {
		// Region and country are derived from the city or county on save.
		p.CityID = req.CityID
		p.CountyID = req.CountyID
		p.RegionID = req.RegionID
		p.CountryID = req.CountryID
		if err := p.Validate(); err != nil {
			return err
		}
		return ensureExists[models.Country](tx, "country_id", req.CountryID)
	},
	beforeDelete: func(tx *gorm.DB, p *models.Place) error {
		return ensureUnreferenced(tx, p.ID, placeReferences...)
	},
}

type CountyRequest struct {
	Name      string     `json:"name" binding:"required"`
	NameASCII string     `json:"name_ascii"`
	StateID   *uuid.UUID `json:"state_id"`
	CountryID uuid.UUID  `json:"country_id" binding:"required"`
}

var countyResource = resource[models.County, CountyRequest]{
	entity:  "County",
	order:   orderBy("counties.name"),
	preload: func(db *gorm.DB) *gorm.DB { return db.Preload("State").Preload("Country") },
	filters: nameFilter("counties.name"),
	apply: func(tx *gorm.DB, c *models.County, req *CountyRequest) error {
		if err := ensureExists[models.Region](tx, "state_id", req.StateID); err != nil {
			return err
		}
		if err := ensureExists[models.Country](tx, "country_id", &req.CountryID); err != nil {
			return err
		}
		c.Name = strings.TrimSpace(req.Name)
		c.NameASCII = asciiOr(req.NameASCII, c.Name)
		c.StateID = req.StateID
		c.CountryID = req.CountryID
		return nil
	},
	beforeDelete: func(tx *gorm.DB, c *models.County) error {
		return ensureUnreferenced(tx, c.ID, reference{"places", "county_id"})
	},
}

type CityRequest struct {
	Name           string          `json:"name" binding:"required"`
	NameASCII      string          `json:"name_ascii"`
	DisplayName    string          `json:"display_name"`
	AlternateNames json.RawMessage `json:"alternate_names"`
	RegionID       *uuid.UUID      `json:"region_id"`
	CountryID      uuid.UUID       `json:"country_id" binding:"required"`
	GeonameID      *int64          `json:"geoname_id"`
	Latitude       string          `json:"latitude" binding:"max=20"`
	Longitude      string          `json:"longitude" binding:"max=20"`
	Population     int64           `json:"population" binding:"min=0"`
	FeatureCode    string          `json:"feature_code" binding:"max=10"`
}

// cityFilters adds in_use (referenced by a place) and population_lt to the name filter.
func cityFilters(ctx *gin.Context) ([]models.Scope, error) {
	scopes, err := nameFilter("cities.name")(ctx)
	if err != nil {
		return nil, err
	}

	if inUse, ok, err := utils.GetBoolQuery(ctx, "in_use"); err != nil {
		return nil, err
	} else if ok {
		operator := "NOT IN"
		if inUse {
			operator = "IN"
		}
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			used := db.Session(&gorm.Session{NewDB: true}).Model(&models.Place{}).Where("places.city_id IS NOT NULL").Select("places.city_id")
			return db.Where("cities.id "+operator+" (?)", used)
		})
	}

	if raw := ctx.Query("population_lt"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			return nil, errInvalidParam("population_lt")
		}
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("cities.population < ?", limit) })
	}

	return scopes, nil
}

var cityResource = resource[models.City, CityRequest]{
	entity:  "City",
	order:   orderBy("cities.name"),
	preload: func(db *gorm.DB) *gorm.DB { return db.Preload("Region").Preload("Country") },
	filters: cityFilters,
	apply: func(tx *gorm.DB, c *models.City, req *CityRequest) error {
		if err := ensureExists[models.Region](tx, "region_id", req.RegionID); err != nil {
			return err
		}
		if err := ensureExists[models.Country](tx, "country_id", &req.CountryID); err != nil {
			return err
		}
		c.Name = strings.TrimSpace(req.Name)
		c.NameASCII = asciiOr(req.NameASCII, c.Name)
		c.DisplayName = req.DisplayName
		if c.DisplayName == "" {
			c.DisplayName = c.Name
		}
		c.AlternateNames = datatypes.JSON(req.AlternateNames)
		c.RegionID = req.RegionID
		c.CountryID = req.CountryID
		c.GeonameID = req.GeonameID
		c.Latitude = req.Latitude
		c.Longitude = req.Longitude
		c.Population = req.Population
		c.FeatureCode = req.FeatureCode
		return nil
	},
	beforeDelete: func(tx *gorm.DB, c *models.City) error {
		return ensureUnreferenced(tx, c.ID, reference{"places", "city_id"})
	},
}

type RegionRequest struct {
	Name               string          `json:"name" binding:"required"`
	NameASCII          string          `json:"name_ascii"`
	DisplayName        string          `json:"display_name"`
	GeonameCode        string          `json:"geoname_code"`
	GeonameID          *int64          `json:"geoname_id"`
	AlternateNames     json.RawMessage `json:"alternate_names"`
	CountryID          uuid.UUID       `json:"country_id" binding:"required"`
	BureauOperations   bool            `json:"bureau_operations"`
	BureauHeadquarters bool            `json:"bureau_headquarters"`
}

func regionFilters(ctx *gin.Context) ([]models.Scope, error) {
	scopes, err := nameFilter("regions.name")(ctx)
	if err != nil {
		return nil, err
	}
	if ops, ok, err := utils.GetBoolQuery(ctx, "bureau_operations"); err != nil {
		return nil, err
	} else if ok {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("regions.bureau_operations = ?", ops) })
	}
	return scopes, nil
}

var regionResource = resource[models.Region, RegionRequest]{
	entity:  "Region",
	order:   orderBy("regions.name"),
	preload: func(db *gorm.DB) *gorm.DB { return db.Preload("Country") },
	filters: regionFilters,
	apply: func(tx *gorm.DB, r *models.Region, req *RegionRequest) error {
		var country models.Country
		if err := tx.First(&country, "id = ?", req.CountryID).Error; err != nil {
			return lookupFailed("country_id", err)
		}
		r.Name = strings.TrimSpace(req.Name)
		r.NameASCII = asciiOr(req.NameASCII, r.Name)
		r.DisplayName = req.DisplayName
		if r.DisplayName == "" {
			r.DisplayName = r.Name + ", " + country.Name
		}
		r.GeonameCode = req.GeonameCode
		r.GeonameID = req.GeonameID
		r.AlternateNames = datatypes.JSON(req.AlternateNames)
		r.CountryID = req.CountryID
		r.BureauOperations = req.BureauOperations
		r.BureauHeadquarters = req.BureauHeadquarters
		return nil
	},
	beforeDelete: func(tx *gorm.DB, r *models.Region) error {
		if err := ensureUnreferenced(tx, r.ID, reference{"places", "region_id"}); err != nil {
			return err
		}
		return clearJoinRows(tx, r.ID,
			reference{"employee_bureau_states", "region_id"},
			reference{"assignment_bureau_states", "region_id"},
		)
	},
}

type CountryRequest struct {
	Name      string `json:"name" binding:"required"`
	Code2     string `json:"code2" binding:"omitempty,len=2"`
	GeonameID *int64 `json:"geoname_id"`
}

var countryResource = resource[models.Country, CountryRequest]{
	entity:  "Country",
	order:   orderBy("countries.name"),
	filters: nameFilter("countries.name"),
	apply: func(tx *gorm.DB, c *models.Country, req *CountryRequest) error {
		c.Name = strings.TrimSpace(req.Name)
		c.Code2 = strings.ToUpper(req.Code2)
		c.GeonameID = req.GeonameID
		return nil
	},
	beforeDelete: func(tx *gorm.DB, c *models.Country) error {
		return ensureUnreferenced(tx, c.ID,
			reference{"places", "country_id"},
			reference{"regions", "country_id"},
			reference{"counties", "country_id"},
			reference{"cities", "country_id"},
		)
	},
}

func asciiOr(ascii, name string) string {
	if ascii = strings.TrimSpace(ascii); ascii != "" {
		return ascii
	}
	return name
}

func lookupFailed(field string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ValidationError{Field: field, Message: "does not exist"}
	}
	return err
}

// RegisterAdmin mounts the CRUD endpoints for every record type on an authenticated group.
func RegisterAdmin(group *gin.RouterGroup) {
	employeeResource.register(group, "/employees")
	assignmentResource.register(group, "/assignments")
	positionResource.register(group, "/positions")
	regimentResource.register(group, "/regiments")
	ailmentTypeResource.register(group, "/ailment-types")
	ailmentResource.register(group, "/ailments")
	placeResource.register(group, "/places")
	countyResource.register(group, "/counties")
	cityResource.register(group, "/cities")
	regionResource.register(group, "/regions")
	countryResource.register(group, "/countries")

	group.POST("/geonames/city-lookup", GeoNamesCityLookup)
	group.POST("/geonames/county-lookup", GeoNamesCountyLookup)
}
