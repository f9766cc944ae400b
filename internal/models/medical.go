package models

import "github.com/google/uuid"

// AilmentType is a broad class of medical problem (illness, injury).
type AilmentType struct {
	BaseModel

	Name string `gorm:"size:100" json:"name"`

	// Relationships
	Ailments []Ailment `gorm:"foreignKey:TypeID" json:"ailments,omitempty"`
}

func (t AilmentType) String() string {
	return t.Name
}

type Ailment struct {
	BaseModel

	TypeID uuid.UUID `gorm:"type:uuid;not null;index" json:"type_id"`
	Name   string    `gorm:"size:100" json:"name"`

	// Relationships
	Type *AilmentType `gorm:"foreignKey:TypeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"type,omitempty"`
}

func (a Ailment) String() string {
	return a.Name
}
