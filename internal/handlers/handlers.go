package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/freedmens-bureau/bureau/internal/services"
	"github.com/freedmens-bureau/bureau/internal/stats"
)

// Dependencies are the shared services the handlers use besides db.DB.
type Dependencies struct {
	Logger       *zap.Logger
	Stats        *stats.Store
	GeoNames     *services.GeoNamesClient
	CookieDomain string
}

var (
	logger   = zap.NewNop()
	store    *stats.Store
	geoNames *services.GeoNamesClient
	Domain   string
)

// Configure installs the shared services. Call it before serving requests.
func Configure(deps Dependencies) {
	if deps.Logger != nil {
		logger = deps.Logger.Named("handlers")
	}
	store = deps.Stats
	geoNames = deps.GeoNames
	Domain = deps.CookieDomain
}

// invalidateStats drops the cached reports after an admin write.
func invalidateStats(ctx context.Context) {
	if store == nil {
		return
	}
	if err := store.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate stats snapshots", zap.Error(err))
	}
}
