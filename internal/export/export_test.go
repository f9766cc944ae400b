package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/stats"
)

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestEmployeesWorkbook(t *testing.T) {
	georgia := models.Region{Name: "Georgia"}
	employees := []models.Employee{
		{
			LastName:     "Howard",
			FirstName:    "Oliver",
			Gender:       models.GenderMale,
			VRC:          true,
			DateOfBirth:  models.MustParsePartialDate("1830-11-08"),
			PlaceOfBirth: &models.Place{Region: &georgia},
			BureauStates: []models.Region{georgia, {Name: "Virginia"}},
			Ailments:     []models.Ailment{{Name: "Loss of arm"}},
		},
		{LastName: "Doe", FirstName: "Jane", Gender: models.GenderFemale},
	}

	data, err := Employees(employees)
	require.NoError(t, err)

	rows := readRows(t, data, "Employees")
	require.Len(t, rows, 3)
	assert.Equal(t, employeeHeaders, rows[0])
	assert.Equal(t, "Howard", rows[1][0])
	assert.Equal(t, "Yes", rows[1][3])
	assert.Equal(t, "1830-11-08", rows[1][7])
	assert.Equal(t, "Georgia", rows[1][8])
	assert.Equal(t, "-", rows[1][10])
	assert.Equal(t, "Georgia, Virginia", rows[1][12])
	assert.Equal(t, "Loss of arm", rows[1][14])
	assert.Equal(t, "F", rows[2][2])
}

func TestStateComparisonWorkbook(t *testing.T) {
	data, err := StateComparison([]stats.ComparisonRow{
		{Label: "Employee count", States: []stats.StateValue{
			{Name: "Virginia", Value: 3, Display: "3"},
			{Name: "Georgia", Value: 2, Display: "2"},
		}},
		{Label: "% VRC employees", States: []stats.StateValue{{Name: "Georgia", Value: 50, Display: "50.00"}}},
		{Label: "Left-hand penmanship contest entrants"},
	})
	require.NoError(t, err)

	rows := readRows(t, data, "State comparison")
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Measure", "Rank", "State", "Value", "Display"}, rows[0])
	assert.Equal(t, []string{"Employee count", "1", "Virginia", "3", "3"}, rows[1])
	assert.Equal(t, []string{"% VRC employees", "1", "Georgia", "50", "50.00"}, rows[3])
}
