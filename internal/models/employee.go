package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderFemale Gender = "F"
	GenderMale   Gender = "M"
)

// Employee is a Freedmen's Bureau employee, military or civilian.
type Employee struct {
	BaseModel

	LastName             string      `gorm:"size:100;index" json:"last_name"`
	FirstName            string      `gorm:"size:100;index" json:"first_name"`
	Gender               Gender      `gorm:"size:1;not null;default:M" json:"gender"`
	Notes                string      `gorm:"type:text" json:"notes"`
	VRC                  bool        `gorm:"column:vrc;not null;default:false" json:"vrc"`
	Colored              bool        `gorm:"not null;default:false" json:"colored"`
	ConfederateVeteran   bool        `gorm:"not null;default:false" json:"confederate_veteran"`
	UnionVeteran         bool        `gorm:"not null;default:false" json:"union_veteran"`
	DiedDuringAssignment bool        `gorm:"not null;default:false" json:"died_during_assignment"`
	FormerSlave          bool        `gorm:"not null;default:false" json:"former_slave"`
	Slaveholder          bool        `gorm:"not null;default:false" json:"slaveholder"`
	PenmanshipContest    bool        `gorm:"not null;default:false" json:"penmanship_contest"`
	NeedsBackfilling     bool        `gorm:"not null;default:false" json:"needs_backfilling"`
	DateOfBirth          PartialDate `json:"date_of_birth"`
	DateOfDeath          PartialDate `json:"date_of_death"`
	PlaceOfBirthID       *uuid.UUID  `gorm:"type:uuid;index" json:"place_of_birth_id"`
	PlaceOfDeathID       *uuid.UUID  `gorm:"type:uuid;index" json:"place_of_death_id"`
	PlaceOfResidenceID   *uuid.UUID  `gorm:"type:uuid;index" json:"place_of_residence_id"`

	// Relationships
	PlaceOfBirth     *Place       `gorm:"foreignKey:PlaceOfBirthID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"place_of_birth,omitempty"`
	PlaceOfDeath     *Place       `gorm:"foreignKey:PlaceOfDeathID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"place_of_death,omitempty"`
	PlaceOfResidence *Place       `gorm:"foreignKey:PlaceOfResidenceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"place_of_residence,omitempty"`
	Regiments        []Regiment   `gorm:"many2many:employee_regiments" json:"regiments,omitempty"`
	BureauStates     []Region     `gorm:"many2many:employee_bureau_states" json:"bureau_states,omitempty"`
	Ailments         []Ailment    `gorm:"many2many:employee_ailments" json:"ailments,omitempty"`
	Assignments      []Assignment `gorm:"foreignKey:EmployeeID" json:"assignments,omitempty"`
}

func (e Employee) String() string {
	return fmt.Sprintf("%s, %s", e.LastName, e.FirstName)
}

func (e *Employee) BeforeSave(tx *gorm.DB) error {
	if e.Gender == "" {
		e.Gender = GenderMale
	}
	if e.Gender != GenderFemale && e.Gender != GenderMale {
		return &ValidationError{Field: "gender", Message: "must be F or M"}
	}
	e.SyncVRC()
	return nil
}

// SyncVRC sets VRC when any of the loaded regiments is a Veteran Reserve Corps unit.
// A VRC flag set by hand is kept when no such unit is recorded.
func (e *Employee) SyncVRC() {
	for _, regiment := range e.Regiments {
		if regiment.VRC {
			e.VRC = true
			return
		}
	}
}

func (e Employee) BureauStateList() string {
	names := make([]string, 0, len(e.BureauStates))
	for _, state := range e.BureauStates {
		names = append(names, state.Name)
	}
	return strings.Join(names, ", ")
}

// CalculateAge is the approximate age in year. Requires a birth date.
func (e Employee) CalculateAge(year int) int {
	return year - e.DateOfBirth.Year
}

// AgeAtDeath requires both dates. Month precision on both lets it account for the birthday.
func (e Employee) AgeAtDeath() int {
	age := e.DateOfDeath.Year - e.DateOfBirth.Year
	if e.DateOfDeath.earlierInYearThan(e.DateOfBirth) {
		age--
	}
	return age
}

func (e Employee) HasBirthDate() bool {
	return !e.DateOfBirth.IsZero()
}

func (e Employee) HasLifespan() bool {
	return !e.DateOfBirth.IsZero() && !e.DateOfDeath.IsZero()
}

// PreloadEmployeeDetail loads everything the employee detail view shows.
func PreloadEmployeeDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Regiments", RegimentOrder).
		Preload("BureauStates", func(db *gorm.DB) *gorm.DB { return db.Order("regions.name") }).
		Preload("Ailments.Type").
		Scopes(PreloadPlace("PlaceOfBirth"), PreloadPlace("PlaceOfDeath"), PreloadPlace("PlaceOfResidence")).
		Preload("Assignments.Positions").
		Scopes(PreloadPlace("Assignments.Places"))
}
