//go:build integration

package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/stats"
	"github.com/freedmens-bureau/bureau/internal/testutil"
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("bureau"),
		postgres.WithUsername("bureau"),
		postgres.WithPassword("bureau"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	if err := db.ConnectDatabase(dsn, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	if err := db.MigrateDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to terminate postgres container: %v\n", err)
	}
	os.Exit(code)
}

// fresh empties every table so each test starts from the seed alone.
func fresh(t *testing.T) (*gorm.DB, *testutil.Seed) {
	t.Helper()
	conn := db.DB
	require.NoError(t, conn.Exec(`TRUNCATE users, countries, regions, counties, cities, places, positions, regiments,
		ailment_types, ailments, employees, assignments, employee_regiments, employee_bureau_states,
		employee_ailments, assignment_positions, assignment_places, assignment_bureau_states CASCADE`).Error)
	return conn, testutil.SeedPlaces(t, conn)
}

func TestMigrateIsIdempotent(t *testing.T) {
	require.NoError(t, db.MigrateDatabase())
	assert.True(t, db.DB.Migrator().HasTable("employee_bureau_states"))
}

func TestConstraintErrorsAreTranslated(t *testing.T) {
	conn, seed := fresh(t)

	require.NoError(t, conn.Create(&models.Position{Title: "Agent"}).Error)
	err := conn.Create(&models.Position{Title: "Agent"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	testutil.NewEmployee(t, conn, "Native", "Georgian", func(e *models.Employee) {
		e.PlaceOfBirthID = &seed.GeorgiaPlace.ID
	})
	err = conn.Delete(&seed.GeorgiaPlace).Error
	assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated, "birthplaces are protected")
}

func TestReportsOnPostgres(t *testing.T) {
	conn, seed := fresh(t)

	vrc := models.Regiment{Name: "1st VRC", VRC: true}
	state := models.Regiment{Name: "2nd Georgia", StateID: &seed.Georgia.ID}
	require.NoError(t, conn.Create(&vrc).Error)
	require.NoError(t, conn.Create(&state).Error)

	employee := testutil.NewEmployee(t, conn, "Tillson", "Davis", func(e *models.Employee) {
		e.DateOfBirth = models.MustParsePartialDate("1830")
		e.PlaceOfBirthID = &seed.JonesboroPlace.ID
		e.BureauStates = []models.Region{seed.Georgia}
		e.Regiments = []models.Regiment{vrc}
	})
	assert.True(t, employee.VRC)
	testutil.NewAssignment(t, conn, &employee, "1865-09", "1866-12", func(a *models.Assignment) {
		a.Places = []models.Place{seed.AtlantaPlace}
	})

	var regiments []models.Regiment
	require.NoError(t, conn.Scopes(models.RegimentOrder).Find(&regiments).Error)
	require.Len(t, regiments, 2)
	assert.Equal(t, "2nd Georgia", regiments[0].Name)

	var ids []string
	require.NoError(t, conn.Model(&models.Employee{}).
		Scopes(models.EmployeesEmployedDuringYear(1866), models.EmployeesBornInPlace(seed.GeorgiaPlace)).
		Pluck("employees.id", &ids).Error)
	assert.Equal(t, []string{employee.ID.String()}, ids)

	rows, err := stats.StateRows(context.Background(), conn, seed.Georgia)
	require.NoError(t, err)
	assert.Equal(t, "Avg. age in 1865", rows[0].Label)
	assert.Equal(t, "35.0", rows[0].Value)

	comparison, err := stats.ComputeStateComparison(context.Background(), conn)
	require.NoError(t, err)
	require.NotEmpty(t, comparison)
	require.Len(t, comparison[0].States, 1)
	assert.Equal(t, "Georgia", comparison[0].States[0].Name)
}
