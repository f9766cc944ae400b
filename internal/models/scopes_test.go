package models_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/testutil"
)

func employeeIDs(t *testing.T, conn *gorm.DB, scopes ...models.Scope) []uuid.UUID {
	t.Helper()
	var ids []uuid.UUID
	require.NoError(t, conn.Model(&models.Employee{}).Scopes(scopes...).Pluck("employees.id", &ids).Error)
	return ids
}

func assignmentIDs(t *testing.T, conn *gorm.DB, scopes ...models.Scope) []uuid.UUID {
	t.Helper()
	var ids []uuid.UUID
	require.NoError(t, conn.Model(&models.Assignment{}).Scopes(scopes...).Pluck("assignments.id", &ids).Error)
	return ids
}

func TestEmployeesEmployedDuringYear(t *testing.T) {
	conn := testutil.NewDB(t)

	cases := []struct {
		start, end string
		employed   bool
	}{
		// ended before the year
		{"1865-08", "1865-10", false},
		{"1865-08", "", false},
		{"1864", "1865", false},
		{"1865", "", false},
		// started after the year
		{"1867-08", "1867-10", false},
		{"1867-08", "", false},
		{"1867", "1868", false},
		{"1867", "", false},
		// started the year before and continued into it
		{"1865-08", "1866-10", true},
		{"1865", "1866", true},
		// entirely within the year
		{"1866-08", "1866-10", true},
		{"1866-02", "", true},
		{"1866", "", true},
		// started in the year and continued past it
		{"1866-08", "1867-10", true},
		{"1866", "1867", true},
		// spans the whole year
		{"1865-08", "1867-10", true},
		{"1865", "1867", true},
	}

	for _, tc := range cases {
		employee := testutil.NewEmployee(t, conn, "Doe", tc.start+"/"+tc.end, nil)
		testutil.NewAssignment(t, conn, &employee, tc.start, tc.end, nil)

		ids := employeeIDs(t, conn, models.EmployeesEmployedDuringYear(1866))
		if tc.employed {
			assert.Contains(t, ids, employee.ID, "start=%s end=%s", tc.start, tc.end)
		} else {
			assert.NotContains(t, ids, employee.ID, "start=%s end=%s", tc.start, tc.end)
		}
	}
}

func TestAssignmentsInPlace(t *testing.T) {
	conn := testutil.NewDB(t)
	seed := testutil.SeedPlaces(t, conn)

	inPlace := func(places ...models.Place) models.Assignment {
		return testutil.NewAssignment(t, conn, nil, "1866", "", func(a *models.Assignment) { a.Places = places })
	}
	stateOnly := inPlace(seed.GeorgiaPlace)
	jonesboro := inPlace(seed.JonesboroPlace)
	clayton := inPlace(seed.ClaytonPlace)
	atlanta := inPlace(seed.AtlantaPlace)
	virginia := inPlace(seed.VirginiaPlace)

	ids := assignmentIDs(t, conn, models.AssignmentsInPlace(seed.GeorgiaPlace, false))
	assert.ElementsMatch(t, []uuid.UUID{stateOnly.ID, jonesboro.ID, clayton.ID, atlanta.ID}, ids)

	ids = assignmentIDs(t, conn, models.AssignmentsInPlace(seed.GeorgiaPlace, true))
	assert.ElementsMatch(t, []uuid.UUID{stateOnly.ID}, ids)

	ids = assignmentIDs(t, conn, models.AssignmentsInPlace(seed.JonesboroPlace, false))
	assert.ElementsMatch(t, []uuid.UUID{jonesboro.ID}, ids)

	ids = assignmentIDs(t, conn, models.AssignmentsInPlace(seed.ClaytonPlace, false))
	assert.ElementsMatch(t, []uuid.UUID{clayton.ID}, ids)

	ids = assignmentIDs(t, conn, models.AssignmentsInPlace(seed.VirginiaPlace, false))
	assert.ElementsMatch(t, []uuid.UUID{virginia.ID}, ids)
}

func TestAssignmentsDuringYearAndPlaceCombine(t *testing.T) {
	conn := testutil.NewDB(t)
	seed := testutil.SeedPlaces(t, conn)

	early := testutil.NewAssignment(t, conn, nil, "1865", "1865-12", func(a *models.Assignment) {
		a.Places = []models.Place{seed.JonesboroPlace}
	})
	late := testutil.NewAssignment(t, conn, nil, "1866-03", "", func(a *models.Assignment) {
		a.Places = []models.Place{seed.JonesboroPlace}
	})

	ids := assignmentIDs(t, conn, models.AssignmentsInPlace(seed.GeorgiaPlace, false), models.AssignmentsDuringYear(1866))
	assert.Equal(t, []uuid.UUID{late.ID}, ids)
	assert.NotContains(t, ids, early.ID)
}

func TestPlaceHierarchyIsDerivedOnSave(t *testing.T) {
	conn := testutil.NewDB(t)
	seed := testutil.SeedPlaces(t, conn)

	var jonesboro models.Place
	require.NoError(t, conn.First(&jonesboro, "id = ?", seed.JonesboroPlace.ID).Error)
	require.NotNil(t, jonesboro.RegionID)
	require.NotNil(t, jonesboro.CountryID)
	assert.Equal(t, seed.Georgia.ID, *jonesboro.RegionID)
	assert.Equal(t, seed.US.ID, *jonesboro.CountryID)

	// A conflicting region is overwritten by the city's own.
	conflicting := models.Place{CityID: &seed.Atlanta.ID, RegionID: &seed.Virginia.ID}
	require.NoError(t, conn.Create(&conflicting).Error)
	assert.Equal(t, seed.Georgia.ID, *conflicting.RegionID)

	var clayton models.Place
	require.NoError(t, conn.First(&clayton, "id = ?", seed.ClaytonPlace.ID).Error)
	assert.Equal(t, seed.Georgia.ID, *clayton.RegionID)
	assert.Equal(t, seed.US.ID, *clayton.CountryID)

	var virginia models.Place
	require.NoError(t, conn.First(&virginia, "id = ?", seed.VirginiaPlace.ID).Error)
	assert.Equal(t, seed.US.ID, *virginia.CountryID)

	err := conn.Create(&models.Place{}).Error
	assert.True(t, models.IsValidationError(err))

	missing := uuid.New()
	err = conn.Create(&models.Place{CityID: &missing}).Error
	assert.True(t, models.IsValidationError(err))
}

func TestEmployeeScopes(t *testing.T) {
	conn := testutil.NewDB(t)
	seed := testutil.SeedPlaces(t, conn)

	usct := models.Regiment{Name: "54th USCT", USCT: true}
	vrcUnit := models.Regiment{Name: "9th VRC", VRC: true}
	require.NoError(t, conn.Create(&usct).Error)
	require.NoError(t, conn.Create(&vrcUnit).Error)

	illness := models.AilmentType{Name: "Illness"}
	require.NoError(t, conn.Create(&illness).Error)
	fever := models.Ailment{Name: "Fever", TypeID: illness.ID}
	require.NoError(t, conn.Create(&fever).Error)

	native := testutil.NewEmployee(t, conn, "Native", "Georgia", func(e *models.Employee) {
		e.PlaceOfBirthID = &seed.JonesboroPlace.ID
		e.PlaceOfResidenceID = &seed.AtlantaPlace.ID
		e.BureauStates = []models.Region{seed.Georgia}
		e.Regiments = []models.Regiment{usct}
	})
	german := testutil.NewEmployee(t, conn, "Schmidt", "Karl", func(e *models.Employee) {
		e.PlaceOfBirthID = &seed.GermanyPlace.ID
		e.PlaceOfDeathID = &seed.ClaytonPlace.ID
		e.Regiments = []models.Regiment{vrcUnit}
		e.Ailments = []models.Ailment{fever}
		e.Gender = models.GenderFemale
	})
	unknown := testutil.NewEmployee(t, conn, "Unknown", "Person", nil)

	assert.ElementsMatch(t, []uuid.UUID{native.ID, german.ID}, employeeIDs(t, conn, models.EmployeesBirthplaceKnown))
	assert.ElementsMatch(t, []uuid.UUID{german.ID}, employeeIDs(t, conn, models.EmployeesForeignBorn))
	assert.ElementsMatch(t, []uuid.UUID{native.ID}, employeeIDs(t, conn, models.EmployeesUSCT))
	assert.ElementsMatch(t, []uuid.UUID{german.ID}, employeeIDs(t, conn, models.EmployeesVRC), "VRC follows the regiment")
	assert.ElementsMatch(t, []uuid.UUID{native.ID, unknown.ID}, employeeIDs(t, conn, models.EmployeesNonVRC))
	assert.ElementsMatch(t, []uuid.UUID{german.ID}, employeeIDs(t, conn, models.EmployeesFemale))
	assert.ElementsMatch(t, []uuid.UUID{native.ID}, employeeIDs(t, conn, models.EmployeesInBureauState(seed.Georgia.ID)))
	assert.ElementsMatch(t, []uuid.UUID{german.ID}, employeeIDs(t, conn, models.EmployeesWithAilment(fever.ID)))
	assert.ElementsMatch(t, []uuid.UUID{german.ID}, employeeIDs(t, conn, models.EmployeesWithAilmentType(illness.ID)))
	assert.ElementsMatch(t, []uuid.UUID{native.ID, unknown.ID}, employeeIDs(t, conn, models.EmployeesWithoutAilments))

	assert.ElementsMatch(t, []uuid.UUID{native.ID}, employeeIDs(t, conn, models.EmployeesBornInPlace(seed.GeorgiaPlace)))
	assert.ElementsMatch(t, []uuid.UUID{native.ID}, employeeIDs(t, conn, models.EmployeesBornInPlace(seed.JonesboroPlace)))
	assert.Empty(t, employeeIDs(t, conn, models.EmployeesBornInPlace(seed.AtlantaPlace)))
	assert.ElementsMatch(t, []uuid.UUID{native.ID}, employeeIDs(t, conn, models.EmployeesResidedInPlace(seed.GeorgiaPlace)))
	assert.ElementsMatch(t, []uuid.UUID{german.ID}, employeeIDs(t, conn, models.EmployeesDiedInPlace(seed.GeorgiaPlace)))
	assert.ElementsMatch(t, []uuid.UUID{german.ID}, employeeIDs(t, conn, models.EmployeesBornInPlace(seed.GermanyPlace)))

	assert.ElementsMatch(t, []uuid.UUID{german.ID}, employeeIDs(t, conn, models.EmployeesNameContains("SCHM")))
	assert.ElementsMatch(t, []uuid.UUID{native.ID}, employeeIDs(t, conn, models.EmployeesNameContains("georg")))
}

func TestPercentVRCEmployees(t *testing.T) {
	conn := testutil.NewDB(t)
	seed := testutil.SeedPlaces(t, conn)

	percent, err := seed.Virginia.PercentVRCEmployees(conn)
	require.NoError(t, err)
	assert.Zero(t, percent)

	testutil.NewEmployee(t, conn, "A", "A", func(e *models.Employee) {
		e.VRC = true
		e.BureauStates = []models.Region{seed.Virginia}
	})
	for _, name := range []string{"B", "C", "D"} {
		testutil.NewEmployee(t, conn, name, name, func(e *models.Employee) {
			e.BureauStates = []models.Region{seed.Virginia}
		})
	}

	percent, err = seed.Virginia.PercentVRCEmployees(conn)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, percent, 0.001)
}

func TestBureauStates(t *testing.T) {
	conn := testutil.NewDB(t)
	seed := testutil.SeedPlaces(t, conn)

	ontario := models.Region{Name: "Ontario", CountryID: seed.US.ID}
	require.NoError(t, conn.Create(&ontario).Error)

	var names []string
	require.NoError(t, conn.Model(&models.Region{}).Scopes(models.BureauStates).Pluck("regions.name", &names).Error)
	assert.Equal(t, []string{"District of Columbia", "Georgia", "Virginia", "West Virginia"}, names)
}
