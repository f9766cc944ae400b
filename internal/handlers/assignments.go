package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/models"
)

// findAssignments loads the matching assignments ordered by start date, position titles and employee
// name. The ordering needs the positions and employee, so it happens after loading.
func findAssignments(ctx *gin.Context, scopes ...models.Scope) ([]models.Assignment, error) {
	assignments := []models.Assignment{}
	err := db.DB.WithContext(ctx.Request.Context()).
		Scopes(scopes...).
		Scopes(models.PreloadAssignmentList).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	models.SortAssignments(assignments)
	return assignments, nil
}

func ListAssignments(ctx *gin.Context) {
	assignments, err := findAssignments(ctx)
	if err != nil {
		respondError(ctx, "Assignment", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"place": nil, "assignments": assignments})
}

// AssignmentsInPlace lists the assignments in exactly that place, not in places inside it.
func AssignmentsInPlace(ctx *gin.Context) {
	place, ok := loadPlace(ctx)
	if !ok {
		return
	}

	assignments, err := findAssignments(ctx, models.AssignmentsInPlace(*place, true))
	if err != nil {
		respondError(ctx, "Assignment", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"place": place, "place_name": place.String(), "assignments": assignments})
}

func BureauHeadquartersAssignments(ctx *gin.Context) {
	assignments, err := findAssignments(ctx, models.AssignmentsAtBureauHeadquarters)
	if err != nil {
		respondError(ctx, "Assignment", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"bureau_headquarters": true, "assignments": assignments})
}
