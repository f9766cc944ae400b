package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/types"
	"github.com/freedmens-bureau/bureau/internal/utils"
)

type record interface {
	GetID() uuid.UUID
}

// resource is the admin CRUD for one model T edited through request body R.
type resource[T record, R any] struct {
	entity string
	order  models.Scope

	// preload loads what the admin views show; optional.
	preload models.Scope
	// filters reads list query parameters; optional.
	filters func(ctx *gin.Context) ([]models.Scope, error)
	// apply copies the request onto the record, loading referenced records into associations.
	apply func(tx *gorm.DB, rec *T, req *R) error
	// replace writes the many-to-many associations of a saved record; optional.
	replace func(tx *gorm.DB, rec *T) error
	// beforeDelete refuses to delete referenced records and clears join rows; optional.
	beforeDelete func(tx *gorm.DB, rec *T) error
}

func (r resource[T, R]) register(group *gin.RouterGroup, path string) {
	group.GET(path, r.list)
	group.POST(path, r.create)
	group.GET(path+"/:id", r.get)
	group.PUT(path+"/:id", r.update)
	group.DELETE(path+"/:id", r.remove)
}

func (r resource[T, R]) withPreload(tx *gorm.DB) *gorm.DB {
	if r.preload != nil {
		return tx.Scopes(r.preload)
	}
	return tx
}

func (r resource[T, R]) list(ctx *gin.Context) {
	var scopes []models.Scope
	if r.filters != nil {
		var err error
		if scopes, err = r.filters(ctx); err != nil {
			badRequest(ctx, err.Error())
			return
		}
	}

	page, size := utils.GetPagination(ctx, types.EmployeesPerPage, types.MaxEmployeesPerPage)
	conn := db.DB.WithContext(ctx.Request.Context())

	var total int64
	if err := conn.Model(new(T)).Scopes(scopes...).Count(&total).Error; err != nil {
		respondError(ctx, r.entity, err)
		return
	}

	var records []T
	query := r.withPreload(conn.Scopes(scopes...))
	if r.order != nil {
		query = query.Scopes(r.order)
	}
	if err := query.Offset((page - 1) * size).Limit(size).Find(&records).Error; err != nil {
		respondError(ctx, r.entity, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewPage(records, page, size, total))
}

func (r resource[T, R]) find(tx *gorm.DB, id uuid.UUID) (*T, error) {
	var rec T
	if err := r.withPreload(tx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r resource[T, R]) get(ctx *gin.Context) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	rec, err := r.find(db.DB.WithContext(ctx.Request.Context()), id)
	if err != nil {
		respondError(ctx, r.entity, err)
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (r resource[T, R]) create(ctx *gin.Context) {
	var req R
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}

	var rec T
	err := db.DB.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := r.apply(tx, &rec, &req); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return err
		}
		if r.replace != nil {
			return r.replace(tx, &rec)
		}
		return nil
	})
	if err != nil {
		respondError(ctx, r.entity, err)
		return
	}
	invalidateStats(ctx.Request.Context())

	created, err := r.find(db.DB.WithContext(ctx.Request.Context()), rec.GetID())
	if err != nil {
		respondError(ctx, r.entity, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (r resource[T, R]) update(ctx *gin.Context) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	var req R
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err.Error())
		return
	}

	err = db.DB.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var rec T
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		if err := r.apply(tx, &rec, &req); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&rec).Error; err != nil {
			return err
		}
		if r.replace != nil {
			return r.replace(tx, &rec)
		}
		return nil
	})
	if err != nil {
		respondError(ctx, r.entity, err)
		return
	}
	invalidateStats(ctx.Request.Context())

	updated, err := r.find(db.DB.WithContext(ctx.Request.Context()), id)
	if err != nil {
		respondError(ctx, r.entity, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (r resource[T, R]) remove(ctx *gin.Context) {
	id, err := utils.GetUUIDParam(ctx, "id")
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	err = db.DB.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var rec T
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		if r.beforeDelete != nil {
			if err := r.beforeDelete(tx, &rec); err != nil {
				return err
			}
		}
		return tx.Delete(&rec).Error
	})
	if err != nil {
		respondError(ctx, r.entity, err)
		return
	}
	invalidateStats(ctx.Request.Context())

	ctx.JSON(http.StatusOK, gin.H{"message": r.entity + " deleted successfully"})
}

func orderBy(columns string) models.Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(columns)
	}
}

// ensureExists checks an optional reference to a T.
func ensureExists[T any](tx *gorm.DB, field string, id *uuid.UUID) error {
	if id == nil {
		return nil
	}

	var count int64
	if err := tx.Model(new(T)).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &models.ValidationError{Field: field, Message: "does not exist"}
	}
	return nil
}

// loadByIDs loads the records for a list of ids, failing when any is unknown.
func loadByIDs[T any](tx *gorm.DB, field string, ids []uuid.UUID) ([]T, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	records := []T{}
	if len(unique) == 0 {
		return records, nil
	}
	if err := tx.Where("id IN ?", unique).Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) != len(unique) {
		return nil, &models.ValidationError{Field: field, Message: "contains unknown ids"}
	}
	return records, nil
}

// replaceAssociation sets a many-to-many association to exactly values.
func replaceAssociation(tx *gorm.DB, owner interface{}, name string, values interface{}, count int) error {
	association := tx.Model(owner).Association(name)
	if count == 0 {
		return association.Clear()
	}
	return association.Replace(values)
}

type reference struct {
	table  string
	column string
}

// ensureUnreferenced returns ErrInUse when any of the references points at id.
func ensureUnreferenced(tx *gorm.DB, id uuid.UUID, refs ...reference) error {
	for _, ref := range refs {
		var count int64
		if err := tx.Table(ref.table).Where(ref.column+" = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrInUse
		}
	}
	return nil
}

// clearJoinRows deletes the join table rows pointing at id.
func clearJoinRows(tx *gorm.DB, id uuid.UUID, refs ...reference) error {
	for _, ref := range refs {
		if err := tx.Exec("DELETE FROM "+ref.table+" WHERE "+ref.column+" = ?", id).Error; err != nil {
			return err
		}
	}
	return nil
}
