package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/export"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/types"
	"github.com/freedmens-bureau/bureau/internal/utils"
)

// employeeFilters turns the list query parameters into scopes: q, gender, vrc, usct, bureau_state,
// ailment, ailment_type and year.
func employeeFilters(ctx *gin.Context) ([]models.Scope, error) {
	var scopes []models.Scope

	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		scopes = append(scopes, models.EmployeesNameContains(q))
	}

	switch models.Gender(ctx.Query("gender")) {
	case "":
	case models.GenderFemale:
		scopes = append(scopes, models.EmployeesFemale)
	case models.GenderMale:
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("employees.gender = ?", models.GenderMale) })
	default:
		return nil, errInvalidParam("gender")
	}

	vrc, ok, err := utils.GetBoolQuery(ctx, "vrc")
	if err != nil {
		return nil, err
	}
	if ok && vrc {
		scopes = append(scopes, models.EmployeesVRC)
	} else if ok {
		scopes = append(scopes, models.EmployeesNonVRC)
	}

	usct, ok, err := utils.GetBoolQuery(ctx, "usct")
	if err != nil {
		return nil, err
	}
	if ok && usct {
		scopes = append(scopes, models.EmployeesUSCT)
	}

	if id, ok, err := utils.GetUUIDQuery(ctx, "bureau_state"); err != nil {
		return nil, err
	} else if ok {
		scopes = append(scopes, models.EmployeesInBureauState(id))
	}

	if id, ok, err := utils.GetUUIDQuery(ctx, "ailment"); err != nil {
		return nil, err
	} else if ok {
		scopes = append(scopes, models.EmployeesWithAilment(id))
	}

	if id, ok, err := utils.GetUUIDQuery(ctx, "ailment_type"); err != nil {
		return nil, err
	} else if ok {
		scopes = append(scopes, models.EmployeesWithAilmentType(id))
	}

	if raw := ctx.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 1 || year > 9998 {
			return nil, errInvalidParam("year")
		}
		scopes = append(scopes, models.EmployeesEmployedDuringYear(year))
	}

	return scopes, nil
}

type invalidParamError string

func (e invalidParamError) Error() string {
	return "Invalid " + string(e)
}

func errInvalidParam(name string) error {
	return invalidParamError(name)
}

func ListEmployees(ctx *gin.Context) {
	scopes, err := employeeFilters(ctx)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	page, size := utils.GetPagination(ctx, types.EmployeesPerPage, types.MaxEmployeesPerPage)
	conn := db.DB.WithContext(ctx.Request.Context())

	var total int64
	if err := conn.Model(&models.Employee{}).Scopes(scopes...).Count(&total).Error; err != nil {
		respondError(ctx, "Employee", err)
		return
	}

	var employees []models.Employee
	err = conn.Scopes(scopes...).
		Scopes(models.EmployeeOrder).
		Preload("BureauStates", func(db *gorm.DB) *gorm.DB { return db.Order("regions.name") }).
		Offset((page - 1) * size).
		Limit(size).
		Find(&employees).Error
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewPage(employees, page, size, total))
}

func GetEmployee(ctx *gin.Context) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	var employee models.Employee
	err = db.DB.WithContext(ctx.Request.Context()).
		Scopes(models.PreloadEmployeeDetail).
		First(&employee, "employees.id = ?", id).Error
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}
	models.SortAssignments(employee.Assignments)

	ctx.JSON(http.StatusOK, employee)
}

func findEmployees(ctx *gin.Context, scopes ...models.Scope) ([]models.Employee, error) {
	employees := []models.Employee{}
	err := db.DB.WithContext(ctx.Request.Context()).
		Scopes(scopes...).
		Scopes(models.EmployeeOrder).
		Find(&employees).Error
	return employees, err
}

// EmployeesWithAilment lists employees recorded with one ailment.
func EmployeesWithAilment(ctx *gin.Context) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	var ailment models.Ailment
	if err := db.DB.WithContext(ctx.Request.Context()).Preload("Type").First(&ailment, "id = ?", id).Error; err != nil {
		respondError(ctx, "Ailment", err)
		return
	}

	employees, err := findEmployees(ctx, models.EmployeesWithAilment(id))
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ailment": ailment, "employees": employees})
}

// EmployeesWithAilmentType lists employees recorded with any ailment of one type.
func EmployeesWithAilmentType(ctx *gin.Context) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	var ailmentType models.AilmentType
	if err := db.DB.WithContext(ctx.Request.Context()).First(&ailmentType, "id = ?", id).Error; err != nil {
		respondError(ctx, "Ailment type", err)
		return
	}

	employees, err := findEmployees(ctx, models.EmployeesWithAilmentType(id))
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ailment_type": ailmentType, "employees": employees})
}

func loadPlace(ctx *gin.Context) (*models.Place, bool) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return nil, false
	}

	var place models.Place
	if err := db.DB.WithContext(ctx.Request.Context()).Scopes(models.PreloadPlace("")).First(&place, "places.id = ?", id).Error; err != nil {
		respondError(ctx, "Place", err)
		return nil, false
	}
	return &place, true
}

// EmployeesInPlace lists the employees born, resided and died in a place or anywhere inside it.
func EmployeesInPlace(ctx *gin.Context) {
	place, ok := loadPlace(ctx)
	if !ok {
		return
	}

	born, err := findEmployees(ctx, models.EmployeesBornInPlace(*place))
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}
	resided, err := findEmployees(ctx, models.EmployeesResidedInPlace(*place))
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}
	died, err := findEmployees(ctx, models.EmployeesDiedInPlace(*place))
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"place":      place,
		"place_name": place.String(),
		"born":       born,
		"resided":    resided,
		"died":       died,
	})
}

// ExportEmployees returns the filtered employee list as a spreadsheet.
func ExportEmployees(ctx *gin.Context) {
	scopes, err := employeeFilters(ctx)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	var employees []models.Employee
	err = db.DB.WithContext(ctx.Request.Context()).
		Scopes(scopes...).
		Scopes(models.EmployeeOrder).
		Preload("Regiments", models.RegimentOrder).
		Preload("BureauStates", func(db *gorm.DB) *gorm.DB { return db.Order("regions.name") }).
		Preload("Ailments").
		Scopes(models.PreloadPlace("PlaceOfBirth"), models.PreloadPlace("PlaceOfDeath"), models.PreloadPlace("PlaceOfResidence")).
		Find(&employees).Error
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}

	data, err := export.Employees(employees)
	if err != nil {
		logger.Error("Failed to render employee workbook", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="employees.xlsx"`)
	ctx.Data(http.StatusOK, export.ContentType, data)
}
