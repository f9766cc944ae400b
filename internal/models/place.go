package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Country struct {
	BaseModel

	Name      string `gorm:"not null;index" json:"name"`
	Code2     string `gorm:"size:2;index" json:"code2"`
	GeonameID *int64 `gorm:"uniqueIndex" json:"geoname_id,omitempty"`
}

func (c Country) String() string {
	return c.Name
}

// Region is a state or province. BureauOperations marks the states the Bureau worked in.
type Region struct {
	BaseModel

	Name               string         `gorm:"not null;index" json:"name"`
	NameASCII          string         `json:"name_ascii"`
	DisplayName        string         `json:"display_name"`
	GeonameCode        string         `gorm:"index" json:"geoname_code"`
	GeonameID          *int64         `gorm:"uniqueIndex" json:"geoname_id,omitempty"`
	AlternateNames     datatypes.JSON `json:"alternate_names,omitempty"`
	CountryID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"country_id"`
	BureauOperations   bool           `gorm:"not null;default:false" json:"bureau_operations"`
	BureauHeadquarters bool           `gorm:"not null;default:false" json:"bureau_headquarters"`

	// Relationships
	Country *Country `gorm:"foreignKey:CountryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"country,omitempty"`
}

func (r Region) String() string {
	return r.Name
}

type County struct {
	BaseModel

	Name      string     `gorm:"not null;index" json:"name"`
	NameASCII string     `json:"name_ascii"`
	StateID   *uuid.UUID `gorm:"type:uuid;index" json:"state_id"`
	CountryID uuid.UUID  `gorm:"type:uuid;not null;index" json:"country_id"`

	// Relationships
	State   *Region  `gorm:"foreignKey:StateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"state,omitempty"`
	Country *Country `gorm:"foreignKey:CountryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"country,omitempty"`
}

func (c County) String() string {
	if c.State != nil {
		return fmt.Sprintf("%s, %s", c.Name, c.State.Name)
	}
	if c.Country != nil {
		return fmt.Sprintf("%s, %s", c.Name, c.Country.Name)
	}
	return c.Name
}

type City struct {
	BaseModel

	Name           string         `gorm:"not null;index" json:"name"`
	NameASCII      string         `json:"name_ascii"`
	DisplayName    string         `json:"display_name"`
	AlternateNames datatypes.JSON `json:"alternate_names,omitempty"`
	RegionID       *uuid.UUID     `gorm:"type:uuid;index" json:"region_id"`
	CountryID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"country_id"`
	GeonameID      *int64         `gorm:"uniqueIndex" json:"geoname_id,omitempty"`
	Latitude       string         `gorm:"size:20" json:"latitude"`
	Longitude      string         `gorm:"size:20" json:"longitude"`
	Population     int64          `gorm:"not null;default:0;index" json:"population"`
	FeatureCode    string         `gorm:"size:10;index" json:"feature_code"`

	// Relationships
	Region  *Region  `gorm:"foreignKey:RegionID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"region,omitempty"`
	Country *Country `gorm:"foreignKey:CountryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"country,omitempty"`
}

func (c City) String() string {
	if c.Region != nil {
		return fmt.Sprintf("%s, %s", c.Name, c.Region.Name)
	}
	if c.Country != nil {
		return fmt.Sprintf("%s, %s", c.Name, c.Country.Name)
	}
	return c.Name
}

// Place ties an employee or assignment to the most specific known location. Region and country
// always follow the city or county when one is set.
type Place struct {
	BaseModel

	CityID    *uuid.UUID `gorm:"type:uuid;index" json:"city_id"`
	CountyID  *uuid.UUID `gorm:"type:uuid;index" json:"county_id"`
	RegionID  *uuid.UUID `gorm:"type:uuid;index" json:"region_id"`
	CountryID *uuid.UUID `gorm:"type:uuid;index" json:"country_id"`

	// Relationships
	City    *City    `gorm:"foreignKey:CityID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"city,omitempty"`
	County  *County  `gorm:"foreignKey:CountyID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"county,omitempty"`
	Region  *Region  `gorm:"foreignKey:RegionID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"region,omitempty"`
	Country *Country `gorm:"foreignKey:CountryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"country,omitempty"`
}

var ErrEmptyPlace = &ValidationError{Message: "a place needs a city, county, region, or country"}

// Validate requires at least one level of the hierarchy.
func (p *Place) Validate() error {
	if p.CityID == nil && p.CountyID == nil && p.RegionID == nil && p.CountryID == nil {
		return ErrEmptyPlace
	}
	return nil
}

func (p *Place) BeforeSave(tx *gorm.DB) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return p.resolveHierarchy(tx.Session(&gorm.Session{NewDB: true}))
}

// resolveHierarchy makes region and country agree with the selected city or county.
func (p *Place) resolveHierarchy(tx *gorm.DB) error {
	switch {
	case p.CityID != nil:
		var city City
		if err := tx.First(&city, "id = ?", *p.CityID).Error; err != nil {
			return lookupError("city", err)
		}
		p.RegionID = city.RegionID
		p.CountryID = &city.CountryID
	case p.CountyID != nil:
		var county County
		if err := tx.First(&county, "id = ?", *p.CountyID).Error; err != nil {
			return lookupError("county", err)
		}
		p.RegionID = county.StateID
		p.CountryID = &county.CountryID
	case p.RegionID != nil:
		var region Region
		if err := tx.First(&region, "id = ?", *p.RegionID).Error; err != nil {
			return lookupError("region", err)
		}
		p.CountryID = &region.CountryID
	}
	return nil
}

func lookupError(field string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ValidationError{Field: field, Message: "does not exist"}
	}
	return err
}

// String expects City, County, Region and Country (with their own region/state/country) preloaded.
func (p Place) String() string {
	switch {
	case p.City != nil:
		return p.City.String()
	case p.County != nil:
		return p.County.String()
	case p.Region != nil:
		return p.Region.Name
	case p.Country != nil:
		return p.Country.Name
	}
	return ""
}

// NameWithoutCountry drops the country when the place is inside a known region.
func (p Place) NameWithoutCountry() string {
	if p.Region == nil {
		return p.String()
	}

	switch {
	case p.City != nil:
		return fmt.Sprintf("%s, %s", p.City.Name, p.Region.Name)
	case p.County != nil:
		return fmt.Sprintf("%s, %s", p.County.Name, p.Region.Name)
	}
	return p.Region.Name
}

// LocalName is the most specific component name, empty for a state- or country-only place.
func (p Place) LocalName() string {
	switch {
	case p.County != nil:
		return p.County.Name
	case p.City != nil:
		return p.City.Name
	}
	return ""
}

// PreloadPlace loads everything Place.String needs, under an optional association prefix.
func PreloadPlace(prefix string) func(*gorm.DB) *gorm.DB {
	if prefix != "" {
		prefix += "."
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Preload(prefix + "City.Region").
			Preload(prefix + "City.Country").
			Preload(prefix + "County.State").
			Preload(prefix + "County.Country").
			Preload(prefix + "Region").
			Preload(prefix + "Country")
	}
}
