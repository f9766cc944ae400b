package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/freedmens-bureau/bureau/internal/handlers"
	"github.com/freedmens-bureau/bureau/internal/middleware"
)

func NewRouter(allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		employees := api.Group("/employees")
		{
			employees.GET("", handlers.ListEmployees)
			employees.GET("/export.xlsx", handlers.ExportEmployees)
			employees.GET("/ailment/:id", handlers.EmployeesWithAilment)
			employees.GET("/ailment-type/:id", handlers.EmployeesWithAilmentType)
			employees.GET("/place/:id", handlers.EmployeesInPlace)
			employees.GET("/:id", handlers.GetEmployee)
		}

		assignments := api.Group("/assignments")
		{
			assignments.GET("", handlers.ListAssignments)
			assignments.GET("/place/:id", handlers.AssignmentsInPlace)
			assignments.GET("/bureau-headquarters", handlers.BureauHeadquartersAssignments)
		}

		regiments := api.Group("/regiments")
		{
			regiments.GET("", handlers.ListRegiments("all"))
			for _, variant := range []string{"confederate", "regular", "state", "usct", "vrc"} {
				regiments.GET("/"+variant, handlers.ListRegiments(variant))
			}
			regiments.GET("/:id", handlers.GetRegiment)
		}

		states := api.Group("/states")
		{
			states.GET("", handlers.ListStates)
			states.GET("/:id", handlers.GetState)
		}

		stats := api.Group("/stats")
		{
			stats.GET("/general", handlers.GeneralStats)
			stats.GET("/detailed", handlers.DetailedStats)
			stats.GET("/state-comparison", handlers.StateComparison)
			stats.GET("/state-comparison.xlsx", handlers.StateComparisonWorkbook)
		}

		admin := api.Group("/admin", middleware.AuthMiddleware())
		{
			handlers.RegisterAdmin(admin)
			admin.POST("/stats/refresh", handlers.RefreshStats)
		}
	}

	return r
}
