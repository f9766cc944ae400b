// Package testutil opens throwaway databases and seeds records for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var databaseCounter atomic.Int64

// NewDB opens a migrated in-memory SQLite database private to the test and installs it as db.DB.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:bureau_test_%d?mode=memory&cache=shared", databaseCounter.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	previous := db.DB
	db.UseDatabase(conn)
	t.Cleanup(func() { db.UseDatabase(previous) })

	require.NoError(t, db.MigrateDatabase())
	return conn
}

// Seed holds a small set of places shared by most database tests.
type Seed struct {
	US, Germany, Prussia          models.Country
	Georgia, Virginia, WestVA, DC models.Region
	Clayton                       models.County
	Jonesboro, Atlanta            models.City

	GeorgiaPlace, JonesboroPlace, AtlantaPlace, ClaytonPlace models.Place
	VirginiaPlace, WestVAPlace, GermanyPlace, PrussiaPlace    models.Place
}

// SeedPlaces creates the Seed hierarchy in conn.
func SeedPlaces(t *testing.T, conn *gorm.DB) *Seed {
	t.Helper()

	s := &Seed{
		US:      models.Country{Name: "United States", Code2: "US"},
		Germany: models.Country{Name: "Germany", Code2: "DE"},
		Prussia: models.Country{Name: "Prussia", Code2: "PR"},
	}
	require.NoError(t, conn.Create(&s.US).Error)
	require.NoError(t, conn.Create(&s.Germany).Error)
	require.NoError(t, conn.Create(&s.Prussia).Error)

	s.Georgia = models.Region{Name: "Georgia", GeonameCode: "GA", CountryID: s.US.ID, BureauOperations: true}
	s.Virginia = models.Region{Name: "Virginia", GeonameCode: "VA", CountryID: s.US.ID, BureauOperations: true}
	s.WestVA = models.Region{Name: "West Virginia", GeonameCode: "WV", CountryID: s.US.ID, BureauOperations: true}
	s.DC = models.Region{Name: "District of Columbia", GeonameCode: "DC", CountryID: s.US.ID, BureauOperations: true}
	for _, region := range []*models.Region{&s.Georgia, &s.Virginia, &s.WestVA, &s.DC} {
		require.NoError(t, conn.Create(region).Error)
	}

	s.Clayton = models.County{Name: "Clayton County", StateID: &s.Georgia.ID, CountryID: s.US.ID}
	require.NoError(t, conn.Create(&s.Clayton).Error)

	s.Jonesboro = models.City{Name: "Jonesboro", RegionID: &s.Georgia.ID, CountryID: s.US.ID, Population: 4000}
	s.Atlanta = models.City{Name: "Atlanta", RegionID: &s.Georgia.ID, CountryID: s.US.ID, Population: 400000}
	require.NoError(t, conn.Create(&s.Jonesboro).Error)
	require.NoError(t, conn.Create(&s.Atlanta).Error)

	s.GeorgiaPlace = models.Place{RegionID: &s.Georgia.ID}
	s.JonesboroPlace = models.Place{CityID: &s.Jonesboro.ID}
	s.AtlantaPlace = models.Place{CityID: &s.Atlanta.ID}
	s.ClaytonPlace = models.Place{CountyID: &s.Clayton.ID}
	s.VirginiaPlace = models.Place{RegionID: &s.Virginia.ID}
	s.WestVAPlace = models.Place{RegionID: &s.WestVA.ID}
	s.GermanyPlace = models.Place{CountryID: &s.Germany.ID}
	s.PrussiaPlace = models.Place{CountryID: &s.Prussia.ID}
	for _, place := range []*models.Place{
		&s.GeorgiaPlace, &s.JonesboroPlace, &s.AtlantaPlace, &s.ClaytonPlace,
		&s.VirginiaPlace, &s.WestVAPlace, &s.GermanyPlace, &s.PrussiaPlace,
	} {
		require.NoError(t, conn.Create(place).Error)
	}

	return s
}

// NewEmployee creates an employee, applying edit before saving.
func NewEmployee(t *testing.T, conn *gorm.DB, last, first string, edit func(*models.Employee)) models.Employee {
	t.Helper()

	employee := models.Employee{LastName: last, FirstName: first}
	if edit != nil {
		edit(&employee)
	}
	require.NoError(t, conn.Create(&employee).Error)
	return employee
}

// NewAssignment creates an assignment for employee with the given ISO partial dates.
func NewAssignment(t *testing.T, conn *gorm.DB, employee *models.Employee, start, end string, edit func(*models.Assignment)) models.Assignment {
	t.Helper()

	assignment := models.Assignment{
		StartDate: models.MustParsePartialDate(start),
		EndDate:   models.MustParsePartialDate(end),
	}
	if employee != nil {
		assignment.EmployeeID = &employee.ID
	}
	if edit != nil {
		edit(&assignment)
	}
	require.NoError(t, conn.Create(&assignment).Error)
	return assignment
}
