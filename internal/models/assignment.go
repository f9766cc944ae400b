package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/settings"
)

// Position is a Bureau job title like Agent or Subassistant Commissioner.
type Position struct {
	BaseModel

	Title string `gorm:"size:100;uniqueIndex;not null" json:"title"`
}

func (p Position) String() string {
	return p.Title
}

const maxDescriptionLength = 150

type Assignment struct {
	BaseModel

	Description        string      `gorm:"size:150" json:"description"`
	EmployeeID         *uuid.UUID  `gorm:"type:uuid;index" json:"employee_id"`
	StartDate          PartialDate `gorm:"index" json:"start_date"`
	EndDate            PartialDate `json:"end_date"`
	BureauHeadquarters bool        `gorm:"not null;default:false" json:"bureau_headquarters"`

	// Relationships
	Employee     *Employee  `gorm:"foreignKey:EmployeeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"employee,omitempty"`
	Positions    []Position `gorm:"many2many:assignment_positions" json:"positions,omitempty"`
	Places       []Place    `gorm:"many2many:assignment_places" json:"places,omitempty"`
	BureauStates []Region   `gorm:"many2many:assignment_bureau_states" json:"bureau_states,omitempty"`
}

func (a *Assignment) BeforeSave(tx *gorm.DB) error {
	if len([]rune(a.Description)) > maxDescriptionLength {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", maxDescriptionLength)}
	}
	return nil
}

// String needs Positions and Places loaded. Without them it falls back to the description.
func (a Assignment) String() string {
	if a.Positions == nil || a.Places == nil {
		return a.Description
	}
	return fmt.Sprintf("%s, %s, %s", a.PositionList(), a.PlaceList(), a.Dates())
}

func (a Assignment) Dates() string {
	switch {
	case !a.StartDate.IsZero() && !a.EndDate.IsZero():
		return fmt.Sprintf("%s - %s", a.StartDate.Display(), a.EndDate.Display())
	case !a.StartDate.IsZero():
		return a.StartDate.Display()
	case !a.EndDate.IsZero():
		return a.EndDate.Display()
	}
	return settings.Get().EmptyFieldString
}

func (a Assignment) PlaceList() string {
	if len(a.Places) == 0 {
		return settings.Get().EmptyFieldString
	}

	names := make([]string, 0, len(a.Places))
	for _, place := range a.Places {
		names = append(names, place.NameWithoutCountry())
	}
	return strings.Join(names, " and ")
}

func (a Assignment) PositionList() string {
	if len(a.Positions) == 0 {
		return settings.Get().EmptyFieldString
	}

	titles := make([]string, 0, len(a.Positions))
	for _, position := range a.Positions {
		titles = append(titles, position.Title)
	}
	return strings.Join(titles, " and ")
}

func (a Assignment) BureauStateList() string {
	names := make([]string, 0, len(a.BureauStates))
	for _, state := range a.BureauStates {
		names = append(names, state.Name)
	}
	return strings.Join(names, ", ")
}

// concatenatedTitles joins the titles with no separator, for ordering.
func (a Assignment) concatenatedTitles() string {
	var b strings.Builder
	for _, position := range a.Positions {
		b.WriteString(position.Title)
	}
	return b.String()
}

// SortAssignments orders by start date, position titles, then employee last and first name.
// Positions and Employee must be loaded. Empty values sort last.
func SortAssignments(assignments []Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if c := compareLast(a.StartDate.String(), b.StartDate.String()); c != 0 {
			return c < 0
		}
		if c := compareLast(a.concatenatedTitles(), b.concatenatedTitles()); c != 0 {
			return c < 0
		}
		if c := compareLast(employeeField(a, lastName), employeeField(b, lastName)); c != 0 {
			return c < 0
		}
		return compareLast(employeeField(a, firstName), employeeField(b, firstName)) < 0
	})
}

const (
	lastName = iota
	firstName
)

func employeeField(a Assignment, field int) string {
	if a.Employee == nil {
		return ""
	}
	if field == lastName {
		return a.Employee.LastName
	}
	return a.Employee.FirstName
}

// compareLast compares strings with the empty string after everything else.
func compareLast(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(a, b)
}

// PreloadAssignmentList loads what an assignment row shows.
func PreloadAssignmentList(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Employee").
		Preload("Positions", func(db *gorm.DB) *gorm.DB { return db.Order("positions.title") }).
		Preload("BureauStates").
		Scopes(PreloadPlace("Places"))
}
