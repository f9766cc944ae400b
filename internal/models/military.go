package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Branch string

const (
	BranchInfantry      Branch = "INF"
	BranchCavalry       Branch = "CAV"
	BranchArtillery     Branch = "ART"
	BranchEngineers     Branch = "ENG"
	BranchSharpshooters Branch = "SHA"
)

func (b Branch) Valid() bool {
	switch b {
	case BranchInfantry, BranchCavalry, BranchArtillery, BranchEngineers, BranchSharpshooters:
		return true
	}
	return false
}

type Regiment struct {
	BaseModel

	Number      *int       `json:"number"`
	Branch      Branch     `gorm:"size:3;not null;default:INF" json:"branch"`
	Name        string     `gorm:"size:100;index" json:"name"`
	Notes       string     `gorm:"type:text" json:"notes"`
	StateID     *uuid.UUID `gorm:"type:uuid;index" json:"state_id"`
	US          bool       `gorm:"column:us;not null;default:false" json:"us"`
	USCT        bool       `gorm:"column:usct;not null;default:false" json:"usct"`
	VRC         bool       `gorm:"column:vrc;not null;default:false" json:"vrc"`
	Confederate bool       `gorm:"not null;default:false" json:"confederate"`

	// Relationships
	State *Region `gorm:"foreignKey:StateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"state,omitempty"`
}

func (r Regiment) String() string {
	return r.Name
}

func (r *Regiment) BeforeSave(tx *gorm.DB) error {
	if r.Branch == "" {
		r.Branch = BranchInfantry
	}
	if !r.Branch.Valid() {
		return &ValidationError{Field: "branch", Message: "must be one of INF, CAV, ART, ENG, SHA"}
	}
	return nil
}

// RegimentOrder sorts by state, vrc, us, usct, number, name. Missing states and numbers sort last.
func RegimentOrder(db *gorm.DB) *gorm.DB {
	const stateName = "(SELECT regions.name FROM regions WHERE regions.id = regiments.state_id)"
	return db.
		Order(stateName + " IS NULL, " + stateName).
		Order("regiments.vrc, regiments.us, regiments.usct").
		Order("regiments.number IS NULL, regiments.number, regiments.name")
}
