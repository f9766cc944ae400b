package stats

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/settings"
)

// AgeReferenceYear is the year ages are reported for.
const AgeReferenceYear = 1865

const topPlaces = 25

type General struct {
	EmployeeCount    int64 `json:"employee_count"`
	ColoredCount     int64 `json:"colored_count"`
	ConfederateCount int64 `json:"confederate_count"`
	FemaleCount      int64 `json:"female_count"`
	VRCCount         int64 `json:"vrc_count"`
}

// GroupValues holds one measure for the VRC, non-VRC, USCT and all-employee groups.
type GroupValues struct {
	VRC      float64 `json:"vrc"`
	NonVRC   float64 `json:"non_vrc"`
	USCT     float64 `json:"usct"`
	Everyone float64 `json:"everyone"`
}

type PlaceCount struct {
	Name    string     `json:"name"`
	PlaceID *uuid.UUID `json:"place_id"`
	Count   int        `json:"count"`
}

type AilmentRow struct {
	Name              string  `json:"name"`
	VRC               float64 `json:"vrc"`
	NonVRC            float64 `json:"non_vrc"`
	USCT              float64 `json:"usct"`
	Everyone          float64 `json:"everyone"`
	AverageAgeAtDeath float64 `json:"average_age_at_death"`
	MedianAgeAtDeath  float64 `json:"median_age_at_death"`
}

type Detailed struct {
	AverageAgeIn1865  GroupValues  `json:"average_age_in_1865"`
	MedianAgeIn1865   GroupValues  `json:"median_age_in_1865"`
	AverageAgeAtDeath GroupValues  `json:"average_age_at_death"`
	MedianAgeAtDeath  GroupValues  `json:"median_age_at_death"`
	ForeignBorn       GroupValues  `json:"foreign_born"`
	TopBirthplaces    []PlaceCount `json:"top_birthplaces"`
	TopDeathplaces    []PlaceCount `json:"top_deathplaces"`
	Ailments          []AilmentRow `json:"ailments"`
}

func count(db *gorm.DB, scopes ...models.Scope) (int64, error) {
	var n int64
	err := db.Model(&models.Employee{}).Scopes(scopes...).Count(&n).Error
	return n, err
}

func withBirthDate(db *gorm.DB) *gorm.DB {
	return db.Where("employees.date_of_birth IS NOT NULL")
}

func withLifespan(db *gorm.DB) *gorm.DB {
	return db.Where("employees.date_of_birth IS NOT NULL AND employees.date_of_death IS NOT NULL")
}

func find(db *gorm.DB, scopes ...models.Scope) ([]models.Employee, error) {
	var employees []models.Employee
	err := db.Model(&models.Employee{}).Scopes(scopes...).Find(&employees).Error
	return employees, err
}

func ComputeGeneral(ctx context.Context, db *gorm.DB) (*General, error) {
	db = db.WithContext(ctx)

	var g General
	var err error
	if g.EmployeeCount, err = count(db); err != nil {
		return nil, err
	}
	if g.ColoredCount, err = count(db, func(db *gorm.DB) *gorm.DB { return db.Where("employees.colored = ?", true) }); err != nil {
		return nil, err
	}
	if g.ConfederateCount, err = count(db, func(db *gorm.DB) *gorm.DB { return db.Where("employees.confederate_veteran = ?", true) }); err != nil {
		return nil, err
	}
	if g.FemaleCount, err = count(db, models.EmployeesFemale); err != nil {
		return nil, err
	}
	if g.VRCCount, err = count(db, models.EmployeesVRC); err != nil {
		return nil, err
	}
	return &g, nil
}

// groupAges loads the ages of each group for the employees matching base.
func groupAges(db *gorm.DB, base models.Scope, ages func([]models.Employee) []int) (vrc, nonVRC, usct []int, err error) {
	employees, err := find(db, base, models.EmployeesVRC)
	if err != nil {
		return nil, nil, nil, err
	}
	vrc = ages(employees)

	if employees, err = find(db, base, models.EmployeesNonVRC); err != nil {
		return nil, nil, nil, err
	}
	nonVRC = ages(employees)

	if employees, err = find(db, base, models.EmployeesUSCT); err != nil {
		return nil, nil, nil, err
	}
	usct = ages(employees)

	return vrc, nonVRC, usct, nil
}

func ComputeDetailed(ctx context.Context, db *gorm.DB) (*Detailed, error) {
	db = db.WithContext(ctx)
	d := &Detailed{}

	in1865 := func(employees []models.Employee) []int { return AgesInYear(employees, AgeReferenceYear) }
	vrc, nonVRC, usct, err := groupAges(db, withBirthDate, in1865)
	if err != nil {
		return nil, err
	}
	everyone := append(slices.Clone(vrc), nonVRC...)
	d.AverageAgeIn1865 = GroupValues{Mean(vrc), Mean(nonVRC), Mean(usct), Mean(everyone)}
	d.MedianAgeIn1865 = GroupValues{Median(vrc), Median(nonVRC), Median(usct), Median(everyone)}

	if vrc, nonVRC, usct, err = groupAges(db, withLifespan, AgesAtDeath); err != nil {
		return nil, err
	}
	everyone = append(slices.Clone(vrc), nonVRC...)
	d.AverageAgeAtDeath = GroupValues{Mean(vrc), Mean(nonVRC), Mean(usct), Mean(everyone)}
	d.MedianAgeAtDeath = GroupValues{Median(vrc), Median(nonVRC), Median(usct), Median(everyone)}

	if d.ForeignBorn, err = foreignBorn(db); err != nil {
		return nil, err
	}
	if d.TopBirthplaces, err = TopBirthplaces(db, topPlaces); err != nil {
		return nil, err
	}
	if d.TopDeathplaces, err = TopDeathplaces(db, topPlaces); err != nil {
		return nil, err
	}
	if d.Ailments, err = ailmentRows(db); err != nil {
		return nil, err
	}
	return d, nil
}

func foreignBorn(db *gorm.DB) (GroupValues, error) {
	var counts [7]int64
	queries := [][]models.Scope{
		{models.EmployeesForeignBorn, models.EmployeesVRC},
		{models.EmployeesForeignBorn, models.EmployeesNonVRC},
		{models.EmployeesForeignBorn, models.EmployeesUSCT},
		{models.EmployeesBirthplaceKnown, models.EmployeesVRC},
		{models.EmployeesBirthplaceKnown, models.EmployeesNonVRC},
		{models.EmployeesBirthplaceKnown, models.EmployeesUSCT},
		{models.EmployeesBirthplaceKnown},
	}
	for i, scopes := range queries {
		n, err := count(db, scopes...)
		if err != nil {
			return GroupValues{}, err
		}
		counts[i] = n
	}

	return GroupValues{
		VRC:      Percent(counts[0], counts[3]),
		NonVRC:   Percent(counts[1], counts[4]),
		USCT:     Percent(counts[2], counts[5]),
		Everyone: Percent(counts[0]+counts[1], counts[6]),
	}, nil
}

func ailmentRows(db *gorm.DB) ([]AilmentRow, error) {
	var ailments []models.Ailment
	if err := db.Order("ailments.name").Find(&ailments).Error; err != nil {
		return nil, err
	}

	totals := make([]int64, 4)
	for i, scope := range []models.Scope{models.EmployeesVRC, models.EmployeesNonVRC, models.EmployeesUSCT, nil} {
		var err error
		if scope == nil {
			totals[i], err = count(db)
		} else {
			totals[i], err = count(db, scope)
		}
		if err != nil {
			return nil, err
		}
	}

	rows := make([]AilmentRow, 0, len(ailments)+1)
	for _, ailment := range ailments {
		row, err := ailmentRow(db, ailment.Name, models.EmployeesWithAilment(ailment.ID), totals)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	row, err := ailmentRow(db, "None", models.EmployeesWithoutAilments, totals)
	if err != nil {
		return nil, err
	}
	return append(rows, row), nil
}

func ailmentRow(db *gorm.DB, name string, filter models.Scope, totals []int64) (AilmentRow, error) {
	groups := []models.Scope{models.EmployeesVRC, models.EmployeesNonVRC, models.EmployeesUSCT}
	parts := make([]int64, 4)
	for i, group := range groups {
		n, err := count(db, filter, group)
		if err != nil {
			return AilmentRow{}, err
		}
		parts[i] = n
	}
	n, err := count(db, filter)
	if err != nil {
		return AilmentRow{}, err
	}
	parts[3] = n

	dead, err := find(db, filter, withLifespan)
	if err != nil {
		return AilmentRow{}, err
	}
	ages := AgesAtDeath(dead)

	return AilmentRow{
		Name:              name,
		VRC:               Percent(parts[0], totals[0]),
		NonVRC:            Percent(parts[1], totals[1]),
		USCT:              Percent(parts[2], totals[2]),
		Everyone:          Percent(parts[3], totals[3]),
		AverageAgeAtDeath: Mean(ages),
		MedianAgeAtDeath:  Median(ages),
	}, nil
}

type placeKey struct {
	region, country string
}

// TopBirthplaces counts employees by region of birth, or by country when born outside a known
// region. German states count as Germany and West Virginia counts as Virginia.
func TopBirthplaces(db *gorm.DB, number int) ([]PlaceCount, error) {
	s := settings.Get()
	return topPlacesBy(db, "PlaceOfBirth", "place_of_birth_id", bornIn, number, func(place models.Place) placeKey {
		key := placeKey{}
		if place.Region != nil {
			key.region = s.GroupRegionName(place.Region.Name)
		}
		if place.Country != nil {
			key.country = s.GroupCountryName(place.Country.Name)
		}
		return key
	})
}

// TopDeathplaces groups German states only.
func TopDeathplaces(db *gorm.DB, number int) ([]PlaceCount, error) {
	s := settings.Get()
	return topPlacesBy(db, "PlaceOfDeath", "place_of_death_id", diedIn, number, func(place models.Place) placeKey {
		key := placeKey{}
		if place.Region != nil {
			key.region = place.Region.Name
		}
		if place.Country != nil {
			key.country = s.GroupCountryName(place.Country.Name)
		}
		return key
	})
}

func bornIn(e models.Employee) *models.Place { return e.PlaceOfBirth }

func diedIn(e models.Employee) *models.Place { return e.PlaceOfDeath }

func topPlacesBy(
	db *gorm.DB,
	association, column string,
	placeOf func(models.Employee) *models.Place,
	number int,
	keyOf func(models.Place) placeKey,
) ([]PlaceCount, error) {
	var employees []models.Employee
	err := db.Model(&models.Employee{}).
		Where("employees." + column + " IS NOT NULL").
		Preload(association + ".Region").
		Preload(association + ".Country").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[placeKey]int)
	for _, e := range employees {
		place := placeOf(e)
		if place == nil {
			continue
		}
		counts[keyOf(*place)]++
	}

	keys := make([]placeKey, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i].label() < keys[j].label()
	})
	if len(keys) > number {
		keys = keys[:number]
	}

	result := make([]PlaceCount, 0, len(keys))
	for _, key := range keys {
		id, err := representativePlace(db, key)
		if err != nil {
			return nil, err
		}
		result = append(result, PlaceCount{Name: key.label(), PlaceID: id, Count: counts[key]})
	}
	return result, nil
}

func (k placeKey) label() string {
	if k.region != "" {
		return k.region
	}
	return k.country
}

// representativePlace finds the region-only or country-only place standing for key, nil if none.
func representativePlace(db *gorm.DB, key placeKey) (*uuid.UUID, error) {
	q := db.Model(&models.Place{}).
		Select("places.id").
		Where("places.city_id IS NULL AND places.county_id IS NULL")
	if key.region != "" {
		q = q.Joins("JOIN regions ON regions.id = places.region_id").Where("regions.name = ?", key.region)
	} else {
		q = q.Joins("JOIN countries ON countries.id = places.country_id").
			Where("places.region_id IS NULL AND countries.name = ?", key.country)
	}

	var ids []uuid.UUID
	if err := q.Limit(1).Pluck("places.id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}
