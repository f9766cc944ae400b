package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/export"
	"github.com/freedmens-bureau/bureau/internal/scheduler"
	"github.com/freedmens-bureau/bureau/internal/stats"
)

func GeneralStats(ctx *gin.Context) {
	general, err := stats.ComputeGeneral(ctx.Request.Context(), db.DB)
	if err != nil {
		respondError(ctx, "Statistics", err)
		return
	}

	ctx.JSON(http.StatusOK, general)
}

func DetailedStats(ctx *gin.Context) {
	var (
		detailed *stats.Detailed
		err      error
	)
	if store != nil {
		detailed, err = store.Detailed(ctx.Request.Context())
	} else {
		detailed, err = stats.ComputeDetailed(ctx.Request.Context(), db.DB)
	}
	if err != nil {
		respondError(ctx, "Statistics", err)
		return
	}

	ctx.JSON(http.StatusOK, detailed)
}

func stateComparison(ctx *gin.Context) ([]stats.ComparisonRow, error) {
	if store != nil {
		return store.StateComparison(ctx.Request.Context())
	}
	return stats.ComputeStateComparison(ctx.Request.Context(), db.DB)
}

func StateComparison(ctx *gin.Context) {
	rows, err := stateComparison(ctx)
	if err != nil {
		respondError(ctx, "Statistics", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"stats": rows})
}

func StateComparisonWorkbook(ctx *gin.Context) {
	rows, err := stateComparison(ctx)
	if err != nil {
		respondError(ctx, "Statistics", err)
		return
	}

	data, err := export.StateComparison(rows)
	if err != nil {
		logger.Error("Failed to render state comparison workbook", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="state-comparison.xlsx"`)
	ctx.Data(http.StatusOK, export.ContentType, data)
}

// RefreshStats recomputes the cached reports now instead of waiting for the next scheduled run.
func RefreshStats(ctx *gin.Context) {
	if store == nil {
		ctx.JSON(http.StatusOK, gin.H{"message": "Statistics are computed on every request"})
		return
	}

	err := scheduler.RefreshNow(ctx.Request.Context())
	if errors.Is(err, scheduler.ErrNotRunning) {
		err = store.Refresh(ctx.Request.Context())
	}
	if err != nil {
		respondError(ctx, "Statistics", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Statistics refreshed", "scheduler": scheduler.Status()})
}
