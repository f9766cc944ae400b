package models

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope is a reusable query filter, applied with db.Scopes.
type Scope = func(*gorm.DB) *gorm.DB

func subquery(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true})
}

// AssignmentsDuringYear matches assignments running at some point in year: started on or before it
// and ended in or after it, or started within it. Dates compare as ISO prefixes.
func AssignmentsDuringYear(year int) Scope {
	start, next := strconv.Itoa(year), strconv.Itoa(year+1)
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("((assignments.start_date <= ? AND assignments.end_date >= ?) OR assignments.start_date >= ?)", start, start, start).
			Where("assignments.start_date < ?", next)
	}
}

// placesWithin selects the ids of every place inside place: same country, then same region when it
// has one, then same county when it has one, otherwise same city when it has one.
func placesWithin(db *gorm.DB, place Place) *gorm.DB {
	q := subquery(db).Model(&Place{}).Select("places.id")
	if place.CountryID != nil {
		q = q.Where("places.country_id = ?", *place.CountryID)
	} else {
		q = q.Where("places.country_id IS NULL")
	}
	if place.RegionID != nil {
		q = q.Where("places.region_id = ?", *place.RegionID)
	}
	if place.CountyID != nil {
		q = q.Where("places.county_id = ?", *place.CountyID)
	} else if place.CityID != nil {
		q = q.Where("places.city_id = ?", *place.CityID)
	}
	return q
}

// AssignmentsInPlace matches assignments in place. When exact is false, assignments anywhere inside
// place match too, so a state matches its cities and counties.
func AssignmentsInPlace(place Place, exact bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		linked := subquery(db).Table("assignment_places").Select("assignment_places.assignment_id")
		if exact {
			linked = linked.Where("assignment_places.place_id = ?", place.ID)
		} else {
			linked = linked.Where("assignment_places.place_id IN (?)", placesWithin(db, place))
		}
		return db.Where("assignments.id IN (?)", linked)
	}
}

func AssignmentsAtBureauHeadquarters(db *gorm.DB) *gorm.DB {
	return db.Where("assignments.bureau_headquarters = ?", true)
}

func EmployeesEmployedDuringYear(year int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		employed := subquery(db).Model(&Assignment{}).
			Select("assignments.employee_id").
			Where("assignments.employee_id IS NOT NULL").
			Scopes(AssignmentsDuringYear(year))
		return db.Where("employees.id IN (?)", employed)
	}
}

func EmployeesBirthplaceKnown(db *gorm.DB) *gorm.DB {
	return db.Where("employees.place_of_birth_id IS NOT NULL")
}

// EmployeesForeignBorn matches employees born in a country other than the United States.
func EmployeesForeignBorn(db *gorm.DB) *gorm.DB {
	foreign := subquery(db).Model(&Place{}).
		Select("places.id").
		Joins("JOIN countries ON countries.id = places.country_id").
		Where("countries.code2 <> ?", "US")
	return db.Where("employees.place_of_birth_id IN (?)", foreign)
}

// EmployeesUSCT matches members of a United States Colored Troops regiment.
func EmployeesUSCT(db *gorm.DB) *gorm.DB {
	members := subquery(db).Table("employee_regiments").
		Select("employee_regiments.employee_id").
		Joins("JOIN regiments ON regiments.id = employee_regiments.regiment_id").
		Where("regiments.usct = ?", true)
	return db.Where("employees.id IN (?)", members)
}

func EmployeesVRC(db *gorm.DB) *gorm.DB {
	return db.Where("employees.vrc = ?", true)
}

func EmployeesNonVRC(db *gorm.DB) *gorm.DB {
	return db.Where("employees.vrc = ?", false)
}

func EmployeesFemale(db *gorm.DB) *gorm.DB {
	return db.Where("employees.gender = ?", GenderFemale)
}

func EmployeesInBureauState(regionID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		employed := subquery(db).Table("employee_bureau_states").
			Select("employee_bureau_states.employee_id").
			Where("employee_bureau_states.region_id = ?", regionID)
		return db.Where("employees.id IN (?)", employed)
	}
}

func EmployeesWithAilment(ailmentID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		sick := subquery(db).Table("employee_ailments").
			Select("employee_ailments.employee_id").
			Where("employee_ailments.ailment_id = ?", ailmentID)
		return db.Where("employees.id IN (?)", sick)
	}
}

func EmployeesWithAilmentType(typeID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		sick := subquery(db).Table("employee_ailments").
			Select("employee_ailments.employee_id").
			Joins("JOIN ailments ON ailments.id = employee_ailments.ailment_id").
			Where("ailments.type_id = ?", typeID)
		return db.Where("employees.id IN (?)", sick)
	}
}

func EmployeesWithoutAilments(db *gorm.DB) *gorm.DB {
	sick := subquery(db).Table("employee_ailments").Select("employee_ailments.employee_id")
	return db.Where("employees.id NOT IN (?)", sick)
}

func employeesWithPlaceIn(column string, place Place) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("employees."+column+" IN (?)", placesWithin(db, place))
	}
}

// EmployeesBornInPlace uses the same containment rules as AssignmentsInPlace.
func EmployeesBornInPlace(place Place) Scope {
	return employeesWithPlaceIn("place_of_birth_id", place)
}

func EmployeesDiedInPlace(place Place) Scope {
	return employeesWithPlaceIn("place_of_death_id", place)
}

func EmployeesResidedInPlace(place Place) Scope {
	return employeesWithPlaceIn("place_of_residence_id", place)
}

// EmployeesNameContains matches the term anywhere in the first or last name, ignoring case.
func EmployeesNameContains(term string) Scope {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(LOWER(employees.first_name) LIKE ? OR LOWER(employees.last_name) LIKE ?)", pattern, pattern)
	}
}

func EmployeeOrder(db *gorm.DB) *gorm.DB {
	return db.Order("employees.last_name, employees.first_name")
}

// BureauStates lists regions where the Bureau operated, by name.
func BureauStates(db *gorm.DB) *gorm.DB {
	return db.Where("regions.bureau_operations = ?", true).Order("regions.name")
}

// RegionOnlyPlace matches the place standing for the whole region.
func RegionOnlyPlace(regionID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("places.region_id = ? AND places.city_id IS NULL AND places.county_id IS NULL", regionID)
	}
}

// CountryOnlyPlace matches the place standing for the whole country.
func CountryOnlyPlace(countryID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("places.country_id = ? AND places.region_id IS NULL AND places.city_id IS NULL AND places.county_id IS NULL", countryID)
	}
}

// PercentVRCEmployees is the share of employees employed in the state who served in the VRC.
func (r Region) PercentVRCEmployees(db *gorm.DB) (float64, error) {
	var total, vrc int64
	if err := db.Model(&Employee{}).Scopes(EmployeesInBureauState(r.ID)).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	if err := db.Model(&Employee{}).Scopes(EmployeesInBureauState(r.ID), EmployeesVRC).Count(&vrc).Error; err != nil {
		return 0, err
	}
	return float64(vrc) / float64(total) * 100, nil
}
