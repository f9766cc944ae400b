package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (m BaseModel) GetID() uuid.UUID {
	return m.ID
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ValidationError is returned by model hooks when a record breaks a field-level rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// All is the migration order: referenced tables first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Country{},
		&Region{},
		&County{},
		&City{},
		&Place{},
		&Position{},
		&Regiment{},
		&AilmentType{},
		&Ailment{},
		&Employee{},
		&Assignment{},
	}
}
