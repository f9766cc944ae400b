package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/services"
)

type GeoNamesLookupRequest struct {
	GeoNamesSearch string `json:"geonames_search" binding:"required"`
}

type lookupFunc func(c *services.GeoNamesClient, ctx context.Context, conn *gorm.DB, search string) (*services.LookupResult, error)

func geoNamesLookup(lookup lookupFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var body GeoNamesLookupRequest
		if err := ctx.ShouldBindJSON(&body); err != nil {
			badRequest(ctx, "geonames_search is required")
			return
		}

		search := strings.TrimSpace(body.GeoNamesSearch)
		if search == "" || len([]rune(search)) > services.MaxSearchLength {
			badRequest(ctx, "geonames_search must be between 1 and 150 characters")
			return
		}

		if geoNames == nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "GeoNames lookup is not configured"})
			return
		}

		result, err := lookup(geoNames, ctx.Request.Context(), db.DB, search)
		if err != nil {
			if errors.Is(err, services.ErrGeoNamesUnavailable) {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "GeoNames is unavailable, try again later"})
				return
			}
			ctx.JSON(http.StatusBadGateway, gin.H{"error": "GeoNames lookup failed"})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"geonames_search": search, "found": result.Found(), "result": result})
	}
}

// GeoNamesCityLookup prefills a new city from GeoNames.
var GeoNamesCityLookup = geoNamesLookup((*services.GeoNamesClient).CityLookup)

// GeoNamesCountyLookup prefills a new county from GeoNames.
var GeoNamesCountyLookup = geoNamesLookup((*services.GeoNamesClient).CountyLookup)
