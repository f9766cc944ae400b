package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/internal/models"
)

// ErrInUse is returned when deleting a record other records still point at.
var ErrInUse = errors.New("record is still referenced")

// respondError writes the response for a failed database operation on entity.
func respondError(ctx *gin.Context, entity string, err error) {
	var validation *models.ValidationError
	var pgErr *pgconn.PgError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
	case errors.As(err, &validation):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, ErrInUse):
		ctx.JSON(http.StatusConflict, gin.H{"error": entity + " is still referenced by other records"})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		ctx.JSON(http.StatusConflict, gin.H{"error": entity + " with the same unique attributes already exists"})
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid foreign key reference"})
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		ctx.JSON(http.StatusConflict, gin.H{"error": entity + " with the same unique attributes already exists"})
	case errors.As(err, &pgErr) && pgErr.Code == "23503":
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid foreign key reference"})
	default:
		logger.Error("Database error", zap.String("entity", entity), zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": message})
}
