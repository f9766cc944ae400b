package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/stats"
	"github.com/freedmens-bureau/bureau/internal/utils"
)

func ListStates(ctx *gin.Context) {
	states := []models.Region{}
	if err := db.DB.WithContext(ctx.Request.Context()).Scopes(models.BureauStates).Find(&states).Error; err != nil {
		respondError(ctx, "State", err)
		return
	}

	ctx.JSON(http.StatusOK, states)
}

type assignmentPlace struct {
	models.Place
	Name string `json:"name"`
}

// GetState shows a bureau state with the places it had assignments in and its employee statistics.
func GetState(ctx *gin.Context) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	conn := db.DB.WithContext(ctx.Request.Context())

	var state models.Region
	if err := conn.Preload("Country").First(&state, "regions.id = ?", id).Error; err != nil {
		respondError(ctx, "State", err)
		return
	}

	places, err := stateAssignmentPlaces(conn, state)
	if err != nil {
		respondError(ctx, "Place", err)
		return
	}

	rows, err := stats.StateRows(ctx.Request.Context(), conn, state)
	if err != nil {
		respondError(ctx, "State", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"state":             state,
		"assignment_places": places,
		"stats":             rows,
	})
}

// stateAssignmentPlaces lists the places of the assignments in state: the state-only place first, then
// cities and counties together by name. Bureau Headquarters has no place of its own and uses the
// headquarters assignments instead.
func stateAssignmentPlaces(conn *gorm.DB, state models.Region) ([]assignmentPlace, error) {
	var scope models.Scope

	var statePlace models.Place
	err := conn.Scopes(models.RegionOnlyPlace(state.ID)).First(&statePlace).Error
	switch {
	case err == nil:
		scope = models.AssignmentsInPlace(statePlace, false)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	case state.BureauHeadquarters:
		scope = models.AssignmentsAtBureauHeadquarters
	default:
		return []assignmentPlace{}, nil
	}

	assignments := conn.Session(&gorm.Session{NewDB: true}).Model(&models.Assignment{}).Select("assignments.id").Scopes(scope)
	linked := conn.Session(&gorm.Session{NewDB: true}).Table("assignment_places").
		Select("assignment_places.place_id").
		Where("assignment_places.assignment_id IN (?)", assignments)

	var places []models.Place
	if err := conn.Scopes(models.PreloadPlace("")).Where("places.id IN (?)", linked).Find(&places).Error; err != nil {
		return nil, err
	}

	out := make([]assignmentPlace, 0, len(places))
	for _, p := range places {
		out = append(out, assignmentPlace{Place: p, Name: p.String()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LocalName(), out[j].LocalName()
		if a == b {
			return out[i].Name < out[j].Name
		}
		return a < b
	})
	return out, nil
}
