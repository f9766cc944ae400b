package export

import (
	"strings"

	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/settings"
	"github.com/freedmens-bureau/bureau/internal/stats"
)

var employeeHeaders = []string{
	"Last name", "First name", "Gender", "VRC", "Colored", "Former slave", "Slaveholder",
	"Date of birth", "Place of birth", "Date of death", "Place of death", "Place of residence",
	"Bureau states", "Regiments", "Ailments", "Notes",
}

// Employees expects each employee's places, regiments, ailments and bureau states preloaded.
func Employees(employees []models.Employee) ([]byte, error) {
	rows := make([][]interface{}, 0, len(employees))
	for _, e := range employees {
		regiments := make([]string, 0, len(e.Regiments))
		for _, r := range e.Regiments {
			regiments = append(regiments, r.String())
		}
		ailments := make([]string, 0, len(e.Ailments))
		for _, a := range e.Ailments {
			ailments = append(ailments, a.Name)
		}

		rows = append(rows, []interface{}{
			e.LastName,
			e.FirstName,
			string(e.Gender),
			yesNo(e.VRC),
			yesNo(e.Colored),
			yesNo(e.FormerSlave),
			yesNo(e.Slaveholder),
			e.DateOfBirth.String(),
			placeName(e.PlaceOfBirth),
			e.DateOfDeath.String(),
			placeName(e.PlaceOfDeath),
			placeName(e.PlaceOfResidence),
			e.BureauStateList(),
			strings.Join(regiments, "; "),
			strings.Join(ailments, ", "),
			e.Notes,
		})
	}

	return Render(Sheet{
		Name:    "Employees",
		Headers: employeeHeaders,
		Widths:  []float64{18, 18, 8, 6, 8, 12, 12, 14, 30, 14, 30, 30, 30, 40, 30, 50},
		Rows:    rows,
	})
}

// StateComparison lays the comparison out one state per row, ranked within each measure.
func StateComparison(comparison []stats.ComparisonRow) ([]byte, error) {
	var rows [][]interface{}
	for _, measure := range comparison {
		for rank, state := range measure.States {
			rows = append(rows, []interface{}{measure.Label, rank + 1, state.Name, state.Value, state.Display})
		}
	}

	return Render(Sheet{
		Name:    "State comparison",
		Headers: []string{"Measure", "Rank", "State", "Value", "Display"},
		Widths:  []float64{45, 6, 25, 10, 10},
		Rows:    rows,
	})
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func placeName(p *models.Place) string {
	if p == nil {
		return settings.Get().EmptyFieldString
	}
	return p.String()
}
