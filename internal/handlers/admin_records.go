package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/utils"
)

type EmployeeRequest struct {
	LastName             string             `json:"last_name" binding:"required,max=100"`
	FirstName            string             `json:"first_name" binding:"max=100"`
	Gender               models.Gender      `json:"gender" binding:"omitempty,oneof=F M"`
	Notes                string             `json:"notes"`
	VRC                  bool               `json:"vrc"`
	Colored              bool               `json:"colored"`
	ConfederateVeteran   bool               `json:"confederate_veteran"`
	UnionVeteran         bool               `json:"union_veteran"`
	DiedDuringAssignment bool               `json:"died_during_assignment"`
	FormerSlave          bool               `json:"former_slave"`
	Slaveholder          bool               `json:"slaveholder"`
	PenmanshipContest    bool               `json:"penmanship_contest"`
	NeedsBackfilling     bool               `json:"needs_backfilling"`
	DateOfBirth          models.PartialDate `json:"date_of_birth"`
	DateOfDeath          models.PartialDate `json:"date_of_death"`
	PlaceOfBirthID       *uuid.UUID         `json:"place_of_birth_id"`
	PlaceOfDeathID       *uuid.UUID         `json:"place_of_death_id"`
	PlaceOfResidenceID   *uuid.UUID         `json:"place_of_residence_id"`
	RegimentIDs          []uuid.UUID        `json:"regiment_ids"`
	BureauStateIDs       []uuid.UUID        `json:"bureau_state_ids"`
	AilmentIDs           []uuid.UUID        `json:"ailment_ids"`
}

var employeeResource = resource[models.Employee, EmployeeRequest]{
	entity:  "Employee",
	order:   models.EmployeeOrder,
	preload: models.PreloadEmployeeDetail,
	filters: employeeFilters,
	apply: func(tx *gorm.DB, e *models.Employee, req *EmployeeRequest) error {
		for field, id := range map[string]*uuid.UUID{
			"place_of_birth_id":     req.PlaceOfBirthID,
			"place_of_death_id":     req.PlaceOfDeathID,
			"place_of_residence_id": req.PlaceOfResidenceID,
		} {
			if err := ensureExists[models.Place](tx, field, id); err != nil {
				return err
			}
		}

		regiments, err := loadByIDs[models.Regiment](tx, "regiment_ids", req.RegimentIDs)
		if err != nil {
			return err
		}
		states, err := loadByIDs[models.Region](tx, "bureau_state_ids", req.BureauStateIDs)
		if err != nil {
			return err
		}
		ailments, err := loadByIDs[models.Ailment](tx, "ailment_ids", req.AilmentIDs)
		if err != nil {
			return err
		}

		e.LastName = strings.TrimSpace(req.LastName)
		e.FirstName = strings.TrimSpace(req.FirstName)
		e.Gender = req.Gender
		e.Notes = req.Notes
		e.VRC = req.VRC
		e.Colored = req.Colored
		e.ConfederateVeteran = req.ConfederateVeteran
		e.UnionVeteran = req.UnionVeteran
		e.DiedDuringAssignment = req.DiedDuringAssignment
		e.FormerSlave = req.FormerSlave
		e.Slaveholder = req.Slaveholder
		e.PenmanshipContest = req.PenmanshipContest
		e.NeedsBackfilling = req.NeedsBackfilling
		e.DateOfBirth = req.DateOfBirth
		e.DateOfDeath = req.DateOfDeath
		e.PlaceOfBirthID = req.PlaceOfBirthID
		e.PlaceOfDeathID = req.PlaceOfDeathID
		e.PlaceOfResidenceID = req.PlaceOfResidenceID
		// Loaded before saving so the VRC flag follows the regiments.
		e.Regiments = regiments
		e.BureauStates = states
		e.Ailments = ailments
		return nil
	},
	replace: func(tx *gorm.DB, e *models.Employee) error {
		if err := replaceAssociation(tx, e, "Regiments", e.Regiments, len(e.Regiments)); err != nil {
			return err
		}
		if err := replaceAssociation(tx, e, "BureauStates", e.BureauStates, len(e.BureauStates)); err != nil {
			return err
		}
		return replaceAssociation(tx, e, "Ailments", e.Ailments, len(e.Ailments))
	},
	beforeDelete: func(tx *gorm.DB, e *models.Employee) error {
		if err := ensureUnreferenced(tx, e.ID, reference{"assignments", "employee_id"}); err != nil {
			return err
		}
		return clearJoinRows(tx, e.ID,
			reference{"employee_regiments", "employee_id"},
			reference{"employee_bureau_states", "employee_id"},
			reference{"employee_ailments", "employee_id"},
		)
	},
}

type AssignmentRequest struct {
	Description        string             `json:"description" binding:"max=150"`
	EmployeeID         *uuid.UUID         `json:"employee_id"`
	StartDate          models.PartialDate `json:"start_date"`
	EndDate            models.PartialDate `json:"end_date"`
	BureauHeadquarters bool               `json:"bureau_headquarters"`
	PositionIDs        []uuid.UUID        `json:"position_ids"`
	PlaceIDs           []uuid.UUID        `json:"place_ids"`
	BureauStateIDs     []uuid.UUID        `json:"bureau_state_ids"`
}

func assignmentFilters(ctx *gin.Context) ([]models.Scope, error) {
	var scopes []models.Scope

	if id, ok, err := utils.GetUUIDQuery(ctx, "employee"); err != nil {
		return nil, err
	} else if ok {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("assignments.employee_id = ?", id) })
	}

	if hq, ok, err := utils.GetBoolQuery(ctx, "bureau_headquarters"); err != nil {
		return nil, err
	} else if ok {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("assignments.bureau_headquarters = ?", hq) })
	}

	return scopes, nil
}

var assignmentResource = resource[models.Assignment, AssignmentRequest]{
	entity:  "Assignment",
	order:   orderBy("assignments.start_date, assignments.description"),
	preload: models.PreloadAssignmentList,
	filters: assignmentFilters,
	apply: func(tx *gorm.DB, a *models.Assignment, req *AssignmentRequest) error {
		if err := ensureExists[models.Employee](tx, "employee_id", req.EmployeeID); err != nil {
			return err
		}
		positions, err := loadByIDs[models.Position](tx, "position_ids", req.PositionIDs)
		if err != nil {
			return err
		}
		places, err := loadByIDs[models.Place](tx, "place_ids", req.PlaceIDs)
		if err != nil {
			return err
		}
		states, err := loadByIDs[models.Region](tx, "bureau_state_ids", req.BureauStateIDs)
		if err != nil {
			return err
		}

		a.Description = strings.TrimSpace(req.Description)
		a.EmployeeID = req.EmployeeID
		a.StartDate = req.StartDate
		a.EndDate = req.EndDate
		a.BureauHeadquarters = req.BureauHeadquarters
		a.Positions = positions
		a.Places = places
		a.BureauStates = states
		return nil
	},
	replace: func(tx *gorm.DB, a *models.Assignment) error {
		if err := replaceAssociation(tx, a, "Positions", a.Positions, len(a.Positions)); err != nil {
			return err
		}
		if err := replaceAssociation(tx, a, "Places", a.Places, len(a.Places)); err != nil {
			return err
		}
		return replaceAssociation(tx, a, "BureauStates", a.BureauStates, len(a.BureauStates))
	},
	beforeDelete: func(tx *gorm.DB, a *models.Assignment) error {
		return clearJoinRows(tx, a.ID,
			reference{"assignment_positions", "assignment_id"},
			reference{"assignment_places", "assignment_id"},
			reference{"assignment_bureau_states", "assignment_id"},
		)
	},
}

type PositionRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

var positionResource = resource[models.Position, PositionRequest]{
	entity:  "Position",
	order:   orderBy("positions.title"),
	filters: nameFilter("positions.title"),
	apply: func(tx *gorm.DB, p *models.Position, req *PositionRequest) error {
		p.Title = strings.TrimSpace(req.Title)
		return nil
	},
	beforeDelete: func(tx *gorm.DB, p *models.Position) error {
		return clearJoinRows(tx, p.ID, reference{"assignment_positions", "position_id"})
	},
}

type RegimentRequest struct {
	Number      *int          `json:"number" binding:"omitempty,min=1"`
	Branch      models.Branch `json:"branch" binding:"omitempty,oneof=INF CAV ART ENG SHA"`
	Name        string        `json:"name" binding:"required,max=100"`
	Notes       string        `json:"notes"`
	StateID     *uuid.UUID    `json:"state_id"`
	US          bool          `json:"us"`
	USCT        bool          `json:"usct"`
	VRC         bool          `json:"vrc"`
	Confederate bool          `json:"confederate"`
}

var regimentResource = resource[models.Regiment, RegimentRequest]{
	entity:  "Regiment",
	order:   models.RegimentOrder,
	preload: func(db *gorm.DB) *gorm.DB { return db.Preload("State") },
	filters: nameFilter("regiments.name"),
	apply: func(tx *gorm.DB, r *models.Regiment, req *RegimentRequest) error {
		if err := ensureExists[models.Region](tx, "state_id", req.StateID); err != nil {
			return err
		}
		r.Number = req.Number
		r.Branch = req.Branch
		r.Name = strings.TrimSpace(req.Name)
		r.Notes = req.Notes
		r.StateID = req.StateID
		r.US = req.US
		r.USCT = req.USCT
		r.VRC = req.VRC
		r.Confederate = req.Confederate
		return nil
	},
	beforeDelete: func(tx *gorm.DB, r *models.Regiment) error {
		return clearJoinRows(tx, r.ID, reference{"employee_regiments", "regiment_id"})
	},
}

type AilmentTypeRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

var ailmentTypeResource = resource[models.AilmentType, AilmentTypeRequest]{
	entity:  "Ailment type",
	order:   orderBy("ailment_types.name"),
	preload: func(db *gorm.DB) *gorm.DB { return db.Preload("Ailments") },
	apply: func(tx *gorm.DB, t *models.AilmentType, req *AilmentTypeRequest) error {
		t.Name = strings.TrimSpace(req.Name)
		return nil
	},
	beforeDelete: func(tx *gorm.DB, t *models.AilmentType) error {
		return ensureUnreferenced(tx, t.ID, reference{"ailments", "type_id"})
	},
}

type AilmentRequest struct {
	TypeID uuid.UUID `json:"type_id" binding:"required"`
	Name   string    `json:"name" binding:"required,max=100"`
}

var ailmentResource = resource[models.Ailment, AilmentRequest]{
	entity:  "Ailment",
	order:   orderBy("ailments.name"),
	preload: func(db *gorm.DB) *gorm.DB { return db.Preload("Type") },
	filters: nameFilter("ailments.name"),
	apply: func(tx *gorm.DB, a *models.Ailment, req *AilmentRequest) error {
		if err := ensureExists[models.AilmentType](tx, "type_id", &req.TypeID); err != nil {
			return err
		}
		a.TypeID = req.TypeID
		a.Name = strings.TrimSpace(req.Name)
		return nil
	},
	beforeDelete: func(tx *gorm.DB, a *models.Ailment) error {
		return clearJoinRows(tx, a.ID, reference{"employee_ailments", "ailment_id"})
	},
}

// nameFilter matches the q query parameter against column, case-insensitively.
func nameFilter(column string) func(ctx *gin.Context) ([]models.Scope, error) {
	return func(ctx *gin.Context) ([]models.Scope, error) {
		q := strings.TrimSpace(ctx.Query("q"))
		if q == "" {
			return nil, nil
		}
		pattern := "%" + strings.ToLower(q) + "%"
		return []models.Scope{func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER("+column+") LIKE ?", pattern)
		}}, nil
	}
}
