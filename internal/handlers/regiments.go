package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/types"
	"github.com/freedmens-bureau/bureau/internal/utils"
)

// Regiment list variants by route suffix.
var regimentVariants = map[string]models.Scope{
	"all": func(db *gorm.DB) *gorm.DB { return db },
	"confederate": func(db *gorm.DB) *gorm.DB {
		return db.Where("regiments.confederate = ?", true)
	},
	"regular": func(db *gorm.DB) *gorm.DB {
		return db.Where("regiments.us = ? AND regiments.usct = ? AND regiments.branch <> ?", true, false, models.BranchSharpshooters)
	},
	"state": func(db *gorm.DB) *gorm.DB {
		return db.Where("regiments.state_id IS NOT NULL")
	},
	"usct": func(db *gorm.DB) *gorm.DB {
		return db.Where("regiments.usct = ?", true)
	},
	"vrc": func(db *gorm.DB) *gorm.DB {
		return db.Where("regiments.vrc = ?", true)
	},
}

// ListRegiments serves one regiment list variant, 25 per page, filtered by search_text.
func ListRegiments(variant string) gin.HandlerFunc {
	scope, ok := regimentVariants[variant]
	if !ok {
		panic("unknown regiment list variant " + variant)
	}

	return func(ctx *gin.Context) {
		scopes := []models.Scope{scope}
		searchText := strings.TrimSpace(ctx.Query("search_text"))
		if searchText != "" {
			pattern := "%" + strings.ToLower(searchText) + "%"
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
				return db.Where("LOWER(regiments.name) LIKE ?", pattern)
			})
		}

		page, _ := utils.GetPagination(ctx, types.RegimentsPerPage, types.RegimentsPerPage)
		conn := db.DB.WithContext(ctx.Request.Context())

		var total int64
		if err := conn.Model(&models.Regiment{}).Scopes(scopes...).Count(&total).Error; err != nil {
			respondError(ctx, "Regiment", err)
			return
		}

		var regiments []models.Regiment
		err := conn.Scopes(scopes...).
			Scopes(models.RegimentOrder).
			Preload("State").
			Offset((page - 1) * types.RegimentsPerPage).
			Limit(types.RegimentsPerPage).
			Find(&regiments).Error
		if err != nil {
			respondError(ctx, "Regiment", err)
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"variant":     variant,
			"search_text": searchText,
			"regiments":   types.NewPage(regiments, page, types.RegimentsPerPage, total),
		})
	}
}

func GetRegiment(ctx *gin.Context) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	var regiment models.Regiment
	if err := db.DB.WithContext(ctx.Request.Context()).Preload("State").First(&regiment, "regiments.id = ?", id).Error; err != nil {
		respondError(ctx, "Regiment", err)
		return
	}

	members, err := findEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		ids := db.Session(&gorm.Session{NewDB: true}).Table("employee_regiments").
			Select("employee_regiments.employee_id").
			Where("employee_regiments.regiment_id = ?", id)
		return db.Where("employees.id IN (?)", ids)
	})
	if err != nil {
		respondError(ctx, "Employee", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"regiment": regiment, "employees": members})
}
